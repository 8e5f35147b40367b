package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const board = `--- Start Archive Service ---
Entry: 1
Service: Message Board
--- Start User List ---
--- Start User Info ---
User: 1
Name: Cool Dude 2k
Handle: @cooldude2k
--- End User Info ---
--- End User List ---
--- Start Message List ---
Interactions: Topic, Reply
--- Start Message Thread ---
Thread: 1
Title: Hello, World!
--- Start Message Post ---
Author: @cooldude2k
Type: Topic
Post: 1
--- Start Message Body ---
Hello, World! ^_^
--- End Message Body ---
--- End Message Post ---
--- End Message Thread ---
--- End Message List ---
--- End Archive Service ---
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a, err := newApp(args, &out)
	if err != nil {
		return out.String(), err
	}
	err = a.run()
	return out.String(), err
}

func writeBoard(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "board.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile failed: %v", err)
	}
	return path
}

func TestValidateOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeBoard(t, dir, board)

	out, err := runCLI(t, "-validate-only", path)
	if err != nil {
		t.Fatalf("expected a valid file, got %v", err)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("unexpected output: %q", out)
	}

	broken := writeBoard(t, dir, strings.Replace(board, "Type: Topic", "Type: Poll", 1))
	out, err = runCLI(t, "-v", broken)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	if !strings.Contains(out, "Validation Error:") || !strings.Contains(out, "Line: Type: Poll") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDisplayByDefault(t *testing.T) {
	path := writeBoard(t, t.TempDir(), board)
	out, err := runCLI(t, path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Service Entry 1: Message Board") || !strings.Contains(out, "Hello, World! ^_^") {
		t.Errorf("unexpected display output: %q", out)
	}
}

func TestConvertAndLoadBack(t *testing.T) {
	dir := t.TempDir()
	path := writeBoard(t, dir, board)
	jsonPath := filepath.Join(dir, "board.json")
	yamlPath := filepath.Join(dir, "board.yaml")
	xmlPath := filepath.Join(dir, "board.xml.gz")
	original := filepath.Join(dir, "copy.txt")
	dbPath := filepath.Join(dir, "archive.db")

	out, err := runCLI(t, "-to-json", jsonPath, "-to-yaml", yamlPath, "-to-xml", xmlPath,
		"-to-original", original, "-line-ending", "crlf", "-to-sqlite", dbPath, path)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, want := range []string{"Saved JSON", "Saved YAML", "Saved XML", "Saved original format", "Saved archive 'board.txt'"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}

	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatalf("os.ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "--- Start Archive Service ---\r\n") {
		t.Errorf("expected crlf output, got %q", data[:40])
	}

	for _, args := range [][]string{
		{"-from-json", jsonPath},
		{"-from-yaml", yamlPath},
		{"-from-xml", xmlPath},
		{"-from-sqlite", dbPath},
		{"-from-sqlite", dbPath, "board.txt"},
		{"-validate-only", original},
	} {
		out, err := runCLI(t, args...)
		if err != nil {
			t.Fatalf("%v failed: %v", args, err)
		}
		if !strings.Contains(out, "Message Board") && !strings.Contains(out, "is valid") {
			t.Errorf("%v: unexpected output %q", args, out)
		}
	}

	out, err = runCLI(t, "-from-json", "unused.json", "-json-string", `{"services":[{"entry":4,"service":"Inline","users":{}}]}`)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out, "Service Entry 4: Inline") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestImportHTMLFile(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "thread.html")
	html := `<html><body>
<div class="c-post__header"><h1 class="c-post__header__title">Imported</h1></div>
<section class="c-section" id="post_1"><div class="c-section__main">
<div class="c-post__header__author"><a class="floor" data-floor="1">#1</a><a class="userid">someone</a><a class="username">Someone</a></div>
<div class="c-article__content">First floor</div>
</div></section>
</body></html>`
	if err := os.WriteFile(page, []byte(html), 0644); err != nil {
		t.Fatalf("os.WriteFile failed: %v", err)
	}

	original := filepath.Join(dir, "imported.txt")
	if _, err := runCLI(t, "-import-html", page, "-to-original", original); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	out, err := runCLI(t, "-validate-only", original)
	if err != nil {
		t.Fatalf("expected imported archive to validate, got %v: %s", err, out)
	}
}

func TestOptionErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"a.txt", "b.txt"},
		{"-json-string", "{}", "a.txt"},
		{"-unknown-flag", "a.txt"},
	} {
		if _, err := runCLI(t, args...); err == nil {
			t.Errorf("expected %v to fail", args)
		}
	}

	path := writeBoard(t, t.TempDir(), board)
	if _, err := runCLI(t, "-to-original", filepath.Join(t.TempDir(), "x.txt"), "-line-ending", "unix", path); err == nil {
		t.Error("expected an unknown line ending to fail")
	}
}
