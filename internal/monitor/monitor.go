package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/db"
	"github.com/davidleitw/msgarchive/internal/parser"
	"github.com/davidleitw/msgarchive/internal/rule"
	"github.com/davidleitw/msgarchive/internal/writer"
	"github.com/sirupsen/logrus"
)

type Monitor interface {
	Run() error
	Stop()
}

type monitor struct {
	parser *parser.Parser
	db     db.ArchiveDB

	rules    []*rule.WatchRule
	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ Monitor = &monitor{}

// NewMonitor watches every rule with p. store may be nil when no rule syncs
// to the local database.
func NewMonitor(p *parser.Parser, store db.ArchiveDB, rules ...*rule.WatchRule) Monitor {
	return &monitor{
		parser: p,
		db:     store,
		rules:  rules,
		stopCh: make(chan struct{}),
	}
}

func digest(doc *archive.Document) string {
	sum := sha256.Sum256([]byte(writer.Serialize(doc, writer.LF)))
	return hex.EncodeToString(sum[:])
}

type postKey struct {
	entry  int
	thread int
	post   int
}

func knownPosts(doc *archive.Document) map[postKey]struct{} {
	posts := make(map[postKey]struct{})
	if doc == nil {
		return posts
	}
	for _, service := range doc.Services {
		for _, thread := range service.MessageThreads {
			for _, message := range thread.Messages {
				posts[postKey{service.Entry, thread.ID, message.Post}] = struct{}{}
			}
		}
	}
	return posts
}

// poll checks the rule's archive once. A read failure is returned so the
// loop can count it; invalid content is reported through the rule callback.
func (m *monitor) poll(watch *rule.WatchRule) error {
	doc, result := m.parser.Load(watch.Path)
	if !result.Valid {
		var ioErr *archive.IOError
		if errors.As(result.Err, &ioErr) {
			return result.Err
		}
		if result.Message != watch.LastError {
			watch.InvalidCallback(result)
		}
		watch.LastError = result.Message
		return nil
	}
	watch.LastError = ""

	sum := digest(doc)
	if sum == watch.LastDigest {
		return nil
	}

	// First poll only records the state.
	if watch.LastDigest != "" {
		known := knownPosts(watch.LastDocument)
		for _, service := range doc.Services {
			for _, thread := range service.MessageThreads {
				for _, message := range thread.Messages {
					if _, ok := known[postKey{service.Entry, thread.ID, message.Post}]; !ok {
						watch.NewPostCallback(thread, message)
					}
				}
			}
		}
		watch.UpdateCallback(doc)
	}

	if watch.SyncLocalDb && m.db != nil {
		if _, err := m.db.SaveDocument(watch.Name, doc); err != nil {
			logrus.WithError(err).Error("db.SaveDocument failed")
			return fmt.Errorf("sync %s: %w", watch.Name, err)
		}
	}
	watch.LastDigest = sum
	watch.LastDocument = doc
	return nil
}

func (m *monitor) activateWatchLoop(watch *rule.WatchRule) {
	failures := watch.GetMaxFailure()
	interval := watch.GetInterval()

	for {
		if err := m.poll(watch); err != nil {
			logrus.WithError(err).WithField("path", watch.Path).Error("poll failed")
			failures--
			if failures == 0 {
				logrus.WithField("path", watch.Path).Error("Max failure reached")
				return
			}
		}

		select {
		case <-m.stopCh:
			logrus.WithField("path", watch.Path).Info("Stop watch loop")
			return
		case <-time.After(interval):
		}
	}
}

func (m *monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Run watches every rule until SIGINT or SIGTERM, Stop, or until every loop
// has given up.
func (m *monitor) Run() error {
	if len(m.rules) == 0 {
		return errors.New("no watch rules")
	}

	var wg sync.WaitGroup
	for _, watch := range m.rules {
		wg.Add(1)
		go func(watch *rule.WatchRule) {
			defer wg.Done()
			m.activateWatchLoop(watch)
		}(watch)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
	case <-m.stopCh:
	case <-done:
	}
	m.Stop()

	logrus.Info("Shutting down monitor ...")
	<-done
	return nil
}
