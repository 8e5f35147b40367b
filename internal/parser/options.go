package parser

import (
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxIncludeDepth = 32
)

// Fetcher loads the raw bytes behind an http(s) include reference.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

type Option func(*Parser)

// Verbose logs every consumed line at info level instead of debug level.
func Verbose(verbose bool) Option {
	return func(p *Parser) {
		p.verbose = verbose
	}
}

func MaxIncludeDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

func WithFetcher(fetcher Fetcher) Option {
	return func(p *Parser) {
		p.fetcher = fetcher
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}
