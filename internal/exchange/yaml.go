package exchange

import (
	"bytes"

	"github.com/davidleitw/msgarchive/internal/archive"
	"go.yaml.in/yaml/v3"
)

func marshalYAML(doc *archive.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalYAML(data []byte) (*archive.Document, error) {
	doc := archive.NewDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
