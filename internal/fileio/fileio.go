// Package fileio reads and writes archive files through the compression
// codec selected by the file extension.
package fileio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

type Codec int

const (
	Plain Codec = iota
	Gzip
	Bzip2
	XZ
	LZMA
	Zlib
	Deflate
)

var codecNames = map[Codec]string{
	Plain:   "plain",
	Gzip:    "gzip",
	Bzip2:   "bzip2",
	XZ:      "xz",
	LZMA:    "lzma",
	Zlib:    "zlib",
	Deflate: "deflate",
}

func (c Codec) String() string {
	return codecNames[c]
}

// CodecFor picks the codec from the extension of name.
func CodecFor(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return Gzip
	case ".bz2":
		return Bzip2
	case ".xz":
		return XZ
	case ".lzma":
		return LZMA
	case ".zl", ".zz":
		return Zlib
	case ".deflate":
		return Deflate
	default:
		return Plain
	}
}

func NewReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch CodecFor(name) {
	case Gzip:
		return gzip.NewReader(r)
	case Bzip2:
		return bzip2.NewReader(r, nil)
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case LZMA:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(lr), nil
	case Zlib:
		return zlib.NewReader(r)
	case Deflate:
		return flate.NewReader(r), nil
	default:
		return io.NopCloser(r), nil
	}
}

func NewWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch CodecFor(name) {
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Bzip2:
		return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case XZ:
		return xz.NewWriter(w)
	case LZMA:
		return lzma.NewWriter(w)
	case Zlib:
		return zlib.NewWriterLevel(w, zlib.BestCompression)
	case Deflate:
		return flate.NewWriter(w, flate.BestCompression)
	default:
		return nopWriteCloser{w}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// Decode decompresses data already held in memory, e.g. a fetched remote file.
func Decode(name string, data []byte) ([]byte, error) {
	if CodecFor(name) == Plain {
		return data, nil
	}
	r, err := NewReader(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ReadFile reads and decompresses the whole file at path.
func ReadFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r, err := NewReader(path, file)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("fileio.NewReader failed")
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile compresses data into path, creating missing parent directories.
func WriteFile(path string, data []byte) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w, err := NewWriter(path, file)
	if err != nil {
		file.Close()
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		file.Close()
		return err
	}
	if err := w.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func EnsureDirectoryExists(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logrus.Infof("Directory %s not exist, create it", dir)
		if err = os.MkdirAll(dir, 0755); err != nil {
			logrus.WithError(err).Error("os.MkdirAll failed")
			return err
		}
	}
	return nil
}
