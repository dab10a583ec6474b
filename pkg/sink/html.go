package sink

import (
	"bytes"

	"github.com/matzehuels/tilegrid/pkg/dom"
)

// RenderHTML serializes doc with the styles the grid committed.
func RenderHTML(doc *dom.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
