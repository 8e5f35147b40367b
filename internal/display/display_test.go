package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/davidleitw/msgarchive/internal/archive"
)

func TestPrint(t *testing.T) {
	doc := archive.NewDocument()
	service, err := doc.AddService(7, "Message Board", "First line\nSecond line")
	if err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	service.Interactions = []string{"Topic", "Reply"}
	if _, err := service.AddCategory(archive.GroupForums, "Main Forum", 1, 0, "General", "Talk."); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := service.AddUser(archive.User{ID: 3, Name: "Cool Dude 2k", Handle: "@cooldude2k"}); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if _, err := service.AddThread(archive.MessageThread{ID: 1, Title: "Hello"}); err != nil {
		t.Fatalf("AddThread failed: %v", err)
	}
	if _, err := service.AddPost(1, archive.Message{Author: "@cooldude2k", Type: "Topic", Post: 1, Message: "Hi\nthere"}); err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}
	if _, err := service.AddPoll(1, 1, archive.Poll{Num: 1, Answers: []string{"Yes", "No"}, Results: []int{1, 1}, Percentage: []float64{50, 50}, Votes: 2}); err != nil {
		t.Fatalf("AddPoll failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Print(&buf, doc); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Service Entry 7: Message Board",
		"Info: First line\n  Second line",
		"Forums: Main Forum",
		"Type: Forums, Level: Main Forum",
		"User ID: 3",
		"Location: N/A",
		"--- Message Thread 1 ---",
		"@cooldude2k (N/A on N/A): [Post] Post ID: 1 Nested: 0",
		"      Hi\n      there",
		"Percentage: 50.00, 50.00",
		"Votes: 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("expected no escape sequences when writing to a buffer")
	}
}
