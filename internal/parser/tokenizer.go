package parser

import (
	"bufio"
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/davidleitw/msgarchive/internal/archive"
)

const maxLineLength = 16 * 1024 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type line struct {
	num  int
	raw  string
	text string
}

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenMarker
	tokenKeyValue
)

type token struct {
	kind   tokenKind
	marker marker
	key    string
	value  string
}

// tokenize splits decoded file content into numbered lines. "\n", "\r\n" and
// a lone "\r" all terminate a line.
func tokenize(name string, data []byte) ([]line, error) {
	if !utf8.Valid(data) {
		return nil, &archive.DecodeError{Path: name, Offset: invalidOffset(data)}
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(scanAnyLines)

	lines := make([]line, 0, bytes.Count(data, []byte{'\n'})+1)
	for scanner.Scan() {
		raw := scanner.Text()
		lines = append(lines, line{
			num:  len(lines) + 1,
			raw:  raw,
			text: strings.TrimSpace(raw),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, &archive.IOError{Path: name, Err: err}
	}
	return lines, nil
}

func scanAnyLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		// A trailing '\r' may be the first half of "\r\n".
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func invalidOffset(data []byte) int {
	offset := 0
	for offset < len(data) {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size == 1 {
			return offset
		}
		offset += size
	}
	return offset
}

// classify turns a trimmed line into a marker, a "key: value" pair or free text.
func classify(text string) token {
	if m, ok := markers[text]; ok {
		return token{kind: tokenMarker, marker: m}
	}
	if key, value, ok := splitKeyValue(text); ok {
		return token{kind: tokenKeyValue, key: key, value: value}
	}
	return token{kind: tokenText}
}

// splitKeyValue splits on the first colon only, so values may contain colons.
func splitKeyValue(text string) (string, string, bool) {
	key, value, ok := strings.Cut(text, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}
