package writer

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/parser"
)

func newBoard(t *testing.T) *archive.Document {
	t.Helper()
	doc := archive.NewDocument()
	service, err := doc.AddService(1, "Message Board", "A simple message board.\n\nTalk about anything.")
	if err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	service.Interactions = []string{"Topic", "Reply", "Poll"}
	service.Status = []string{"Pinned", "Locked"}

	if _, err := service.AddCategory(archive.GroupCategories, "Main Category", 1, 0, "Game Maker 2k", "Just talk about anything."); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := service.AddCategory(archive.GroupCategories, "Sub Category", 2, 1, "Off Topic", ""); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := service.AddCategory(archive.GroupForums, "Main Forum", 1, 0, "General Discussion", "Line one\nLine two"); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}

	users := []archive.User{
		{ID: 2, Name: "Kazuki Suzuki", Handle: "@kazuki.suzuki"},
		{ID: 1, Name: "Cool Dude 2k", Handle: "@cooldude2k", Location: "Somewhere", Joined: "Jul 1, 2024", Birthday: "Jul 1, 1987", Bio: "I'm just a very cool dude! ^_^"},
	}
	for _, user := range users {
		if _, err := service.AddUser(user); err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
	}

	if _, err := service.AddThread(archive.MessageThread{
		ID:       1,
		Title:    "Hello, World!",
		Category: []string{"Game Maker 2k"},
		Forum:    []string{"General Discussion"},
		Type:     "Topic",
		State:    "Pinned",
	}); err != nil {
		t.Fatalf("AddThread failed: %v", err)
	}
	if _, err := service.AddThread(archive.MessageThread{ID: 2}); err != nil {
		t.Fatalf("AddThread failed: %v", err)
	}

	posts := []archive.Message{
		{Author: "@kazuki.suzuki", Time: "8:00 AM", Date: "Jul 1, 2024", Type: "Topic", Post: 1, Message: "Hello, World! ^_^"},
		{Author: "@cooldude2k", Time: "10:00 AM", Date: "Jul 1, 2024", Type: "Reply", Post: 2, Nested: 1, Message: "Why did you say 'Hello, World!' O_o\n\nTime: 12:00"},
		{Type: "Poll", SubType: "Vote", Post: 3, Nested: 2},
	}
	for _, post := range posts {
		if _, err := service.AddPost(1, post); err != nil {
			t.Fatalf("AddPost failed: %v", err)
		}
	}
	if _, err := service.AddPoll(1, 3, archive.Poll{
		Num:        1,
		Question:   "Was it cool?",
		Answers:    []string{"Yes", "No", "Maybe"},
		Results:    []int{2, 0, 1},
		Percentage: []float64{66.66666666666667, 0, 33.333333333333336},
		Votes:      3,
	}); err != nil {
		t.Fatalf("AddPoll failed: %v", err)
	}

	if _, err := doc.AddService(2, "Empty Board", ""); err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	return doc
}

func TestSerializeRoundTrip(t *testing.T) {
	doc := newBoard(t)

	for _, ending := range []LineEnding{LF, CR, CRLF} {
		t.Run(string(ending), func(t *testing.T) {
			text := Serialize(doc, ending)
			if !strings.HasSuffix(text, "--- End Archive Service ---"+ending.Separator()) {
				t.Errorf("expected output to end with a terminated end marker")
			}

			parsed, err := parser.ParseString(text)
			if err != nil {
				t.Fatalf("parser.ParseString failed: %v", err)
			}
			if !reflect.DeepEqual(parsed, doc) {
				t.Errorf("round trip mismatch:\n%s", Serialize(parsed, LF))
			}
			if again := Serialize(parsed, ending); again != text {
				t.Errorf("serialize is not idempotent for %s", ending)
			}
		})
	}
}

func TestSerializeLineEndings(t *testing.T) {
	doc := newBoard(t)
	lf := Serialize(doc, LF)

	if strings.Contains(lf, "\r") {
		t.Error("expected no carriage returns with lf")
	}
	if cr := Serialize(doc, CR); strings.Contains(cr, "\n") || cr != strings.ReplaceAll(lf, "\n", "\r") {
		t.Error("expected only carriage returns with cr")
	}
	if crlf := Serialize(doc, CRLF); crlf != strings.ReplaceAll(lf, "\n", "\r\n") {
		t.Error("expected crlf to terminate every line with \\r\\n")
	}
}

func TestSerializeMinimal(t *testing.T) {
	if got := Serialize(archive.NewDocument(), LF); got != "" {
		t.Errorf("expected empty output for an empty document, got %q", got)
	}

	doc := archive.NewDocument()
	if _, err := doc.AddService(5, "", ""); err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	want := "--- Start Archive Service ---\nEntry: 5\nService:\n--- End Archive Service ---\n"
	if got := Serialize(doc, LF); got != want {
		t.Errorf("unexpected minimal output:\n%q\nwant\n%q", got, want)
	}
}

func TestParseLineEnding(t *testing.T) {
	tests := map[string]LineEnding{"lf": LF, "CR": CR, " crlf ": CRLF}
	for name, want := range tests {
		got, err := ParseLineEnding(name)
		if err != nil {
			t.Fatalf("ParseLineEnding(%q) failed: %v", name, err)
		}
		if got != want {
			t.Errorf("ParseLineEnding(%q) = %s, want %s", name, got, want)
		}
	}
	if _, err := ParseLineEnding("lfcr"); err == nil {
		t.Error("expected an error for an unknown line ending")
	}
}

func TestWriteFileCompressed(t *testing.T) {
	doc := newBoard(t)
	path := filepath.Join(t.TempDir(), "board.txt.xz")
	if err := WriteFile(doc, path, CRLF); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	parsed, err := parser.ParseFile(path)
	if err != nil {
		t.Fatalf("parser.ParseFile failed: %v", err)
	}
	if !reflect.DeepEqual(parsed, doc) {
		t.Error("compressed round trip mismatch")
	}
}
