package rule

import (
	"testing"
	"time"

	"github.com/davidleitw/msgarchive/internal/archive"
)

func TestNewWatchRule(t *testing.T) {
	var called bool
	rule, err := NewWatchRule(
		Path("/tmp/boards/board.txt.gz"),
		PokeInterval(time.Second),
		SyncLocalDb(true),
		UpdateCallback(func(*archive.Document) { called = true }),
	)
	if err != nil {
		t.Fatalf("NewWatchRule failed: %v", err)
	}
	if rule.Name != "board.txt.gz" {
		t.Errorf("expected name from path, got %q", rule.Name)
	}
	if rule.GetInterval() != time.Second || rule.GetMaxFailure() != DefaultMaxFailure || !rule.SyncLocalDb {
		t.Errorf("unexpected rule settings: %+v", rule)
	}
	if rule.NewPostCallback == nil || rule.InvalidCallback == nil {
		t.Error("expected default callbacks")
	}
	rule.UpdateCallback(archive.NewDocument())
	if !called {
		t.Error("expected the custom update callback")
	}
}

func TestNewWatchRuleDefaults(t *testing.T) {
	rule, err := NewWatchRule(Path("https://example.com/boards/main.txt?rev=2"), Name(""), MaxFailure(3))
	if err != nil {
		t.Fatalf("NewWatchRule failed: %v", err)
	}
	if rule.GetInterval() != DefaultInterval || rule.GetMaxFailure() != 3 {
		t.Errorf("unexpected rule settings: %+v", rule)
	}
	if rule.Name != "main.txt" {
		t.Errorf("unexpected name: %q", rule.Name)
	}

	if _, err := NewWatchRule(PokeInterval(time.Second)); err == nil {
		t.Error("expected an error without a path")
	}
}
