package pipeline

import (
	"strconv"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
)

// Parse reads the document and returns it with its grid container. Width and
// height overrides are written to the container's inline style.
func Parse(opts Options) (*dom.Document, *dom.Element, error) {
	doc, err := dom.ParseString(opts.HTML)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", opts.Source)
	}
	container, err := doc.Query(opts.Selector)
	if err != nil {
		return nil, nil, err
	}
	if opts.Width > 0 {
		container.SetStyleProperty("width", px(opts.Width))
	}
	if opts.Height > 0 {
		container.SetStyleProperty("height", px(opts.Height))
	}
	return doc, container, nil
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
