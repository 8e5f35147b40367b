package exchange

import (
	"encoding/json"

	"github.com/davidleitw/msgarchive/internal/archive"
)

func marshalJSON(doc *archive.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func unmarshalJSON(data []byte) (*archive.Document, error) {
	doc := archive.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}
