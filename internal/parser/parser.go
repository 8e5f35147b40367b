package parser

import (
	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/sirupsen/logrus"
)

// Result is the outcome of a validate-only run. Line holds the raw text of
// the offending line when the failure can be tied to one.
type Result struct {
	Valid      bool
	Message    string
	Line       string
	LineNumber int

	Err error
}

type Parser struct {
	verbose  bool
	maxDepth int
	fetcher  Fetcher
	logger   *logrus.Logger
}

func New(opts ...Option) *Parser {
	p := &Parser{
		maxDepth: DefaultMaxIncludeDepth,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func ParseFile(path string, opts ...Option) (*archive.Document, error) {
	return New(opts...).ParseFile(path)
}

func ParseString(data string, opts ...Option) (*archive.Document, error) {
	return New(opts...).ParseString(data)
}

func ValidateFile(path string, opts ...Option) Result {
	return New(opts...).ValidateFile(path)
}

func ValidateString(data string, opts ...Option) Result {
	return New(opts...).ValidateString(data)
}

func (p *Parser) ParseFile(path string) (*archive.Document, error) {
	doc, _, err := p.parseRef(path, "", nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Parser) ParseString(data string) (*archive.Document, error) {
	doc, _, err := p.parseData(stringSource, ".", []byte(data), nil)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *Parser) ValidateFile(path string) Result {
	_, failed, err := p.parseRef(path, "", nil)
	return newResult(failed, err)
}

func (p *Parser) ValidateString(data string) Result {
	_, failed, err := p.parseData(stringSource, ".", []byte(data), nil)
	return newResult(failed, err)
}

// Load parses path once and reports both the document and the validation
// result. The document is nil whenever the result is not valid.
func (p *Parser) Load(path string) (*archive.Document, Result) {
	doc, failed, err := p.parseRef(path, "", nil)
	return doc, newResult(failed, err)
}

func newResult(failed *line, err error) Result {
	if err == nil {
		return Result{Valid: true}
	}
	result := Result{Message: err.Error(), Err: err}
	if failed != nil {
		result.Line = failed.raw
		result.LineNumber = failed.num
	}
	return result
}

// parseData runs the whole pipeline over already decoded content. chain holds
// the canonical names of the files being parsed, outermost first. On failure
// it also returns the line being consumed when the error was raised.
func (p *Parser) parseData(name, dir string, data []byte, chain []string) (*archive.Document, *line, error) {
	lines, err := tokenize(name, data)
	if err != nil {
		return nil, nil, err
	}

	b := newBuilder(p, name, dir, chain)
	for i := range lines {
		b.cur = &lines[i]
		if err := b.consume(b.cur); err != nil {
			p.logger.WithError(err).WithField("file", name).Debug("parse failed")
			return nil, b.cur, err
		}
	}
	if err := b.finish(); err != nil {
		return nil, b.cur, err
	}
	return b.doc, nil, nil
}
