package rule

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/parser"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval   = 10 * time.Second
	DefaultMaxFailure = 20
)

type RuleOption func(*WatchRule)

// Path sets the archive file or http(s) URL to watch.
func Path(p string) RuleOption {
	return func(o *WatchRule) {
		o.Path = p
	}
}

// Name sets the archive name used when syncing to the local database.
func Name(name string) RuleOption {
	return func(o *WatchRule) {
		o.Name = name
	}
}

func SyncLocalDb(sync bool) RuleOption {
	return func(o *WatchRule) {
		o.SyncLocalDb = sync
	}
}

func PokeInterval(interval time.Duration) RuleOption {
	return func(o *WatchRule) {
		o.PokeInterval = interval
	}
}

func MaxFailure(failure int) RuleOption {
	return func(o *WatchRule) {
		o.MaxFailure = failure
	}
}

func NewPostCallback(callback func(*archive.MessageThread, *archive.Message)) RuleOption {
	return func(o *WatchRule) {
		o.NewPostCallback = callback
	}
}

func DefaultNewPostCallback() RuleOption {
	return func(o *WatchRule) {
		o.NewPostCallback = func(thread *archive.MessageThread, message *archive.Message) {
			logrus.Infof("New Post %d in thread %d by %s: %s", message.Post, thread.ID, message.Author, message.Message)
		}
	}
}

func UpdateCallback(callback func(*archive.Document)) RuleOption {
	return func(o *WatchRule) {
		o.UpdateCallback = callback
	}
}

func DefaultUpdateCallback() RuleOption {
	return func(o *WatchRule) {
		o.UpdateCallback = func(doc *archive.Document) {
			logrus.Infof("Update: %s now has %d services", o.Path, len(doc.Services))
		}
	}
}

func InvalidCallback(callback func(parser.Result)) RuleOption {
	return func(o *WatchRule) {
		o.InvalidCallback = callback
	}
}

func DefaultInvalidCallback() RuleOption {
	return func(o *WatchRule) {
		o.InvalidCallback = func(result parser.Result) {
			logrus.Warnf("Invalid: %s line %d: %s", o.Path, result.LineNumber, result.Message)
		}
	}
}

// WatchRule describes one watched archive and the state of its last poll.
type WatchRule struct {
	Path string
	Name string

	LastDigest   string
	LastError    string
	LastDocument *archive.Document

	SyncLocalDb  bool
	PokeInterval time.Duration
	MaxFailure   int

	NewPostCallback func(*archive.MessageThread, *archive.Message)
	UpdateCallback  func(*archive.Document)
	InvalidCallback func(parser.Result)
}

func NewWatchRule(opts ...RuleOption) (*WatchRule, error) {
	rule := &WatchRule{}
	for _, opt := range opts {
		opt(rule)
	}

	if rule.Path == "" {
		logrus.Errorf("Path is not set")
		return nil, errors.New("watch rule without a path")
	}

	if rule.NewPostCallback == nil {
		DefaultNewPostCallback()(rule)
	}
	if rule.UpdateCallback == nil {
		DefaultUpdateCallback()(rule)
	}
	if rule.InvalidCallback == nil {
		DefaultInvalidCallback()(rule)
	}

	if rule.Name == "" {
		if u, err := url.Parse(rule.Path); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			rule.Name = path.Base(u.Path)
		} else {
			rule.Name = filepath.Base(rule.Path)
		}
	}
	return rule, nil
}

func (rule *WatchRule) GetInterval() time.Duration {
	if rule.PokeInterval == 0 {
		return DefaultInterval
	}
	return rule.PokeInterval
}

func (rule *WatchRule) GetMaxFailure() int {
	if rule.MaxFailure == 0 {
		return DefaultMaxFailure
	}
	return rule.MaxFailure
}
