// Package exchange converts archive documents to and from JSON, XML and YAML.
// Every format mirrors the document tree; none of them is validated on load.
package exchange

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/davidleitw/msgarchive/internal/archive"
	"github.com/davidleitw/msgarchive/internal/fileio"
	"github.com/sirupsen/logrus"
)

type Format string

const (
	JSON Format = "json"
	XML  Format = "xml"
	YAML Format = "yaml"
)

type codec struct {
	marshal   func(*archive.Document) ([]byte, error)
	unmarshal func([]byte) (*archive.Document, error)
}

var codecs = map[Format]codec{
	JSON: {marshal: marshalJSON, unmarshal: unmarshalJSON},
	XML:  {marshal: marshalXML, unmarshal: unmarshalXML},
	YAML: {marshal: marshalYAML, unmarshal: unmarshalYAML},
}

// FormatFor picks the exchange format from path, looking through a
// compression extension such as "board.json.gz".
func FormatFor(path string) (Format, error) {
	name := path
	if fileio.CodecFor(name) != fileio.Plain {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return JSON, nil
	case ".xml":
		return XML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("no exchange format for '%s'", path)
}

func lookup(format Format) (codec, error) {
	c, ok := codecs[format]
	if !ok {
		return codec{}, fmt.Errorf("unknown exchange format '%s'", format)
	}
	return c, nil
}

func Marshal(doc *archive.Document, format Format) ([]byte, error) {
	c, err := lookup(format)
	if err != nil {
		return nil, err
	}
	return c.marshal(doc)
}

func Unmarshal(data []byte, format Format) (*archive.Document, error) {
	c, err := lookup(format)
	if err != nil {
		return nil, err
	}
	doc, err := c.unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	normalize(doc)
	return doc, nil
}

func WriteFile(doc *archive.Document, path string, format Format) error {
	data, err := Marshal(doc, format)
	if err != nil {
		logrus.WithError(err).WithField("format", format).Error("exchange.Marshal failed")
		return err
	}
	if err := fileio.WriteFile(path, data); err != nil {
		logrus.WithError(err).WithField("path", path).Error("fileio.WriteFile failed")
		return err
	}
	return nil
}

func ReadFile(path string, format Format) (*archive.Document, error) {
	data, err := fileio.ReadFile(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("fileio.ReadFile failed")
		return nil, &archive.IOError{Path: path, Err: err}
	}
	return Unmarshal(data, format)
}

// normalize restores what the formats cannot express: a service always owns
// a user map, and a category's type and level follow from its kind.
func normalize(doc *archive.Document) {
	for _, service := range doc.Services {
		if service.Users == nil {
			service.Users = make(map[int]*archive.User)
		}
		for _, category := range service.Categories {
			if category.Type == "" && category.Level == "" && category.Kind != "" {
				category.Type, category.Level = archive.SplitKind(category.Kind)
			}
		}
	}
}
