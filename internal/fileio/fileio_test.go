package fileio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCodecFor(t *testing.T) {
	tests := map[string]Codec{
		"board.txt":         Plain,
		"board":             Plain,
		"board.txt.gz":      Gzip,
		"board.txt.GZ":      Gzip,
		"board.txt.bz2":     Bzip2,
		"board.txt.xz":      XZ,
		"board.txt.lzma":    LZMA,
		"board.txt.zl":      Zlib,
		"board.txt.zz":      Zlib,
		"board.txt.deflate": Deflate,
	}
	for name, want := range tests {
		if got := CodecFor(name); got != want {
			t.Errorf("CodecFor(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestWriteReadFileThroughEveryCodec(t *testing.T) {
	content := []byte(strings.Repeat("--- Start Archive Service ---\nEntry: 1\n--- End Archive Service ---\n", 20))
	dir := t.TempDir()

	for _, ext := range []string{".txt", ".gz", ".bz2", ".xz", ".lzma", ".zl", ".deflate"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "nested", "board"+ext)
			if err := WriteFile(path, content); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			data, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if string(data) != string(content) {
				t.Errorf("content mismatch for %s", ext)
			}

			if ext == ".txt" {
				return
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("os.ReadFile failed: %v", err)
			}
			if string(raw) == string(content) {
				t.Errorf("expected %s file to be compressed on disk", ext)
			}
			decoded, err := Decode(path, raw)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if string(decoded) != string(content) {
				t.Errorf("Decode mismatch for %s", ext)
			}
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
