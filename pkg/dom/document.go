package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/tilegrid/pkg/errors"
)

// Document is an HTML document whose elements can be measured and styled.
type Document struct {
	mu   sync.RWMutex // guards attributes, tree shape and media state
	root *html.Node

	nodesMu sync.Mutex
	nodes   map[*html.Node]*Element
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse html")
	}
	return &Document{root: root, nodes: make(map[*html.Node]*Element)}, nil
}

// ParseString is a convenience wrapper around [Parse].
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the underlying document node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the body element, or nil if the document has none.
func (d *Document) Body() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := findFirst(d.root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if n == nil {
		return nil
	}
	return d.wrap(n)
}

// Query returns the first element matching selector. Selectors are XPath
// expressions; "#id" and ".class" are accepted as shorthands.
func (d *Document) Query(selector string) (*Element, error) {
	if err := errors.ValidateSelector(selector); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	n, err := htmlquery.Query(d.root, toXPath(selector))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSelector, err, "selector %q", selector)
	}
	if n == nil || n.Type != html.ElementNode {
		return nil, errors.New(errors.ErrCodeContainerNotFound, "no element matches %q", selector)
	}
	return d.wrap(n), nil
}

// QueryAll returns every element matching selector, in document order.
func (d *Document) QueryAll(selector string) ([]*Element, error) {
	if err := errors.ValidateSelector(selector); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	nodes, err := htmlquery.QueryAll(d.root, toXPath(selector))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSelector, err, "selector %q", selector)
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, d.wrap(n))
		}
	}
	return out, nil
}

// CreateElement returns a new detached element.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	return d.wrap(n)
}

// Element returns the handle for an element node of this document.
func (d *Document) Element(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return d.wrap(n)
}

// Render serializes the document, including every style the grid committed.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document to a string.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// PendingMedia returns media elements that are neither loaded nor failed.
func (d *Document) PendingMedia() []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Element
	walk(d.root, func(n *html.Node) {
		if !isMediaNode(n) {
			return
		}
		if el := d.wrap(n); !el.complete && el.failure == nil {
			out = append(out, el)
		}
	})
	return out
}

// Load marks a media element as loaded with the given intrinsic size and
// dispatches "load" to its listeners.
func (d *Document) Load(el *Element, width, height float64) {
	d.mu.Lock()
	el.complete = true
	el.failure = nil
	el.naturalWidth = width
	el.naturalHeight = height
	fns := el.listenersFor(EventLoad)
	d.mu.Unlock()

	dispatch(fns, Event{Type: EventLoad, Target: el})
}

// Fail marks a media element as broken and dispatches "error".
func (d *Document) Fail(el *Element, err error) {
	if err == nil {
		err = fmt.Errorf("failed to load %s", el.Attr("src"))
	}
	d.mu.Lock()
	el.complete = true
	el.failure = err
	fns := el.listenersFor(EventError)
	d.mu.Unlock()

	dispatch(fns, Event{Type: EventError, Target: el, Err: err})
}

// wrap returns the cached handle for n. Callers may hold d.mu.
func (d *Document) wrap(n *html.Node) *Element {
	d.nodesMu.Lock()
	defer d.nodesMu.Unlock()
	if el, ok := d.nodes[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	if isMediaNode(n) {
		el.complete = attr(n, "src") == ""
	}
	d.nodes[n] = el
	return el
}

func toXPath(selector string) string {
	s := strings.TrimSpace(selector)
	switch {
	case strings.HasPrefix(s, "#") && isName(s[1:]):
		return fmt.Sprintf("//*[@id='%s']", s[1:])
	case strings.HasPrefix(s, ".") && isName(s[1:]):
		return fmt.Sprintf("//*[contains(concat(' ', normalize-space(@class), ' '), ' %s ')]", s[1:])
	default:
		return s
	}
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '-' || r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}
