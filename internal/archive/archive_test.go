package archive

import (
	"errors"
	"testing"
)

func TestSplitKind(t *testing.T) {
	tests := []struct {
		kind      string
		wantType  string
		wantLevel string
	}{
		{"Categories, Main Category", "Categories", "Main Category"},
		{"Forums,Sub Forum, extra", "Forums", "Sub Forum, extra"},
		{"Categories", "Categories", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		typ, level := SplitKind(tt.kind)
		if typ != tt.wantType || level != tt.wantLevel {
			t.Errorf("SplitKind(%q) = (%q, %q), want (%q, %q)", tt.kind, typ, level, tt.wantType, tt.wantLevel)
		}
	}
}

func TestDefaultSubType(t *testing.T) {
	tests := []struct {
		post, nested int
		want         string
	}{
		{1, 0, SubTypePost},
		{1, 3, SubTypePost},
		{4, 0, SubTypePost},
		{4, 2, SubTypeReply},
	}

	for _, tt := range tests {
		if got := DefaultSubType(tt.post, tt.nested); got != tt.want {
			t.Errorf("DefaultSubType(%d, %d) = %q, want %q", tt.post, tt.nested, got, tt.want)
		}
	}
}

func TestSplitList(t *testing.T) {
	if got := SplitList("  "); got != nil {
		t.Errorf("expected nil for blank value, got %v", got)
	}
	got := SplitList("Topic, Reply ,Poll")
	want := []string{"Topic", "Reply", "Poll"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestAddCategoryValidatesInSub(t *testing.T) {
	service := NewService(1, "Board", "")

	if _, err := service.AddCategory(GroupCategories, "Main", 1, 0, "Root", ""); err != nil {
		t.Fatalf("AddCategory root failed: %v", err)
	}
	if _, err := service.AddCategory(GroupCategories, "Sub", 2, 1, "Child", ""); err != nil {
		t.Fatalf("AddCategory child failed: %v", err)
	}

	_, err := service.AddCategory(GroupCategories, "Sub", 3, 99, "Orphan", "")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) || validationErr.Field != "InSub" {
		t.Fatalf("expected InSub validation error, got %v", err)
	}

	// Ids are namespaced per type.
	if _, err := service.AddCategory(GroupForums, "Main", 1, 0, "Forum", ""); err != nil {
		t.Fatalf("AddCategory forum failed: %v", err)
	}
	if _, err := service.AddCategory(GroupForums, "Main", 1, 0, "Again", ""); !errors.As(err, &validationErr) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}

	group := service.Group(GroupCategories)
	if group == nil || len(group.Levels) != 2 || group.Levels[0] != "Main" || group.Levels[1] != "Sub" {
		t.Errorf("unexpected categorization: %+v", group)
	}
	if len(service.Categories) != 3 {
		t.Errorf("expected 3 categories, got %d", len(service.Categories))
	}
}

func TestAddPost(t *testing.T) {
	service := NewService(1, "Board", "")
	service.Interactions = []string{"Topic", "Reply"}
	if _, err := service.AddThread(MessageThread{ID: 1, Title: "Hello"}); err != nil {
		t.Fatalf("AddThread failed: %v", err)
	}

	first, err := service.AddPost(1, Message{Author: "@kazuki", Type: "Topic", Post: 1, Message: "Hello"})
	if err != nil {
		t.Fatalf("AddPost failed: %v", err)
	}
	if first.SubType != SubTypePost {
		t.Errorf("expected default sub type Post, got %q", first.SubType)
	}

	second, err := service.AddPost(1, Message{Author: "@cool", Type: "Reply", Post: 2, Nested: 1})
	if err != nil {
		t.Fatalf("AddPost reply failed: %v", err)
	}
	if second.SubType != SubTypeReply {
		t.Errorf("expected default sub type Reply, got %q", second.SubType)
	}

	tests := []struct {
		name    string
		message Message
		field   string
	}{
		{"undeclared type", Message{Type: "Poll", Post: 3}, "Type"},
		{"dangling nested", Message{Type: "Reply", Post: 3, Nested: 5}, "Nested"},
		{"duplicate post", Message{Type: "Reply", Post: 2, Nested: 1}, "Post"},
		{"negative post", Message{Post: -1}, "Post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.AddPost(1, tt.message)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, validationErr.Field)
			}
		})
	}

	if _, err := service.AddPost(9, Message{Post: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing thread, got %v", err)
	}
}

func TestAddPollAndRemove(t *testing.T) {
	doc := NewDocument()
	service, err := doc.AddService(1, "Board", "info")
	if err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	service.AddThread(MessageThread{ID: 7})
	service.AddPost(7, Message{Post: 1})

	if _, err := service.AddPoll(7, 1, Poll{Num: 1, Question: "Yes?", Answers: []string{"Yes", "No"}}); err != nil {
		t.Fatalf("AddPoll failed: %v", err)
	}
	if len(service.Thread(7).Post(1).Polls) != 1 {
		t.Errorf("expected poll attached to post")
	}
	if _, err := service.AddPoll(7, 2, Poll{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing post, got %v", err)
	}

	if err := service.RemovePost(7, 1); err != nil {
		t.Errorf("RemovePost failed: %v", err)
	}
	if err := service.RemoveThread(7); err != nil {
		t.Errorf("RemoveThread failed: %v", err)
	}
	if err := service.RemoveThread(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	service.AddUser(User{ID: 3, Name: "Cool Dude", Handle: "@cool"})
	if err := service.RemoveUser(3); err != nil {
		t.Errorf("RemoveUser failed: %v", err)
	}
	if err := doc.RemoveService(1); err != nil {
		t.Errorf("RemoveService failed: %v", err)
	}
	if len(doc.Services) != 0 {
		t.Errorf("expected no services left, got %d", len(doc.Services))
	}
	if err := doc.RemoveService(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestErrorMessagesNameLineAndField(t *testing.T) {
	err := &FormatError{Line: 12, Field: "Post", Msg: "invalid integer 'abc'"}
	want := "format error on line 12 (Post): invalid integer 'abc'"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	cyclic := &CyclicIncludeError{Path: "a.txt", Chain: []string{"a.txt", "b.txt"}}
	if cyclic.Error() != "cyclic include of 'a.txt' (a.txt -> b.txt -> a.txt)" {
		t.Errorf("unexpected message %q", cyclic.Error())
	}
}

func TestMergeDeclarations(t *testing.T) {
	service := NewService(1, "Board", "")
	service.SetGroup(GroupCategories, []string{"Main"})
	service.Interactions = []string{"Topic"}

	included := NewService(0, "", "")
	included.SetGroup(GroupCategories, []string{"Main", "Sub"})
	included.SetGroup(GroupForums, []string{"Main"})
	included.Interactions = []string{"Topic", "Poll"}
	included.Status = []string{"Locked"}

	service.MergeDeclarations(included)

	if got := service.Group(GroupCategories).Levels; len(got) != 2 || got[0] != "Main" || got[1] != "Sub" {
		t.Errorf("unexpected Categories levels: %v", got)
	}
	if forums := service.Group(GroupForums); forums == nil || len(forums.Levels) != 1 {
		t.Errorf("expected Forums group to be declared, got %+v", service.Categorization)
	}
	if len(service.Interactions) != 2 || service.Interactions[1] != "Poll" {
		t.Errorf("unexpected interactions: %v", service.Interactions)
	}
	if len(service.Status) != 1 || service.Status[0] != "Locked" {
		t.Errorf("unexpected status: %v", service.Status)
	}

	included.Group(GroupForums).Levels[0] = "Changed"
	if service.Group(GroupForums).Levels[0] != "Main" {
		t.Error("expected merged levels not to share storage with the included service")
	}
}
