package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle on one element node of a [Document].
type Element struct {
	doc  *Document
	node *html.Node

	// media state, guarded by doc.mu
	complete      bool
	failure       error
	naturalWidth  float64
	naturalHeight float64

	listeners map[string]map[int]func(Event)
	nextID    int
}

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// TagName returns the lower-case tag name.
func (e *Element) TagName() string { return e.node.Data }

// Attr returns the value of an attribute and whether it is present.
func (e *Element) Attr(name string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, name)
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	_, ok := lookupAttr(e.node, name)
	return ok
}

// SetAttr sets an attribute, replacing any previous value.
func (e *Element) SetAttr(name, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	setAttr(e.node, name, value)
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	removeAttr(e.node, name)
}

// Dataset returns the attributes starting with prefix, keyed by the camel-cased
// remainder: with prefix "data-grid-", data-grid-max-column becomes "maxColumn".
func (e *Element) Dataset(prefix string) map[string]string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	out := make(map[string]string)
	for _, a := range e.node.Attr {
		if !strings.HasPrefix(a.Key, prefix) || len(a.Key) == len(prefix) {
			continue
		}
		out[camelCase(a.Key[len(prefix):])] = a.Val
	}
	return out
}

// Parent returns the parent element, or nil at the root or when detached.
func (e *Element) Parent() *Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Children returns the element children in document order.
func (e *Element) Children() []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.children()
}

func (e *Element) children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Find returns the descendants for which match returns true, in document order.
func (e *Element) Find(match func(*Element) bool) []*Element {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	var out []*Element
	walk(e.node, func(n *html.Node) {
		if el := e.doc.wrap(n); match(el) {
			out = append(out, el)
		}
	})
	return out
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for n := other.node; n != nil; n = n.Parent {
		if n == e.node {
			return true
		}
	}
	return false
}

// AppendChild moves child to the end of e's children.
func (e *Element) AppendChild(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	detach(child.node)
	e.node.AppendChild(child.node)
}

// InsertBefore inserts child before ref. A nil ref appends.
func (e *Element) InsertBefore(child, ref *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	detach(child.node)
	if ref == nil || ref.node.Parent != e.node {
		e.node.AppendChild(child.node)
		return
	}
	e.node.InsertBefore(child.node, ref.node)
}

// RemoveChild detaches child if it belongs to e.
func (e *Element) RemoveChild(child *Element) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if child.node.Parent == e.node {
		e.node.RemoveChild(child.node)
	}
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	detach(e.node)
}

// IsMedia reports whether e is an img or video element.
func (e *Element) IsMedia() bool { return isMediaNode(e.node) }

// Complete reports whether a media element finished loading (successfully or not).
// Non-media elements are always complete.
func (e *Element) Complete() bool {
	if !e.IsMedia() {
		return true
	}
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.complete
}

// Err returns the load failure of a media element, if any.
func (e *Element) Err() error {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.failure
}

// NaturalSize returns the intrinsic size of a loaded media element.
func (e *Element) NaturalSize() (width, height float64) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return e.naturalWidth, e.naturalHeight
}

// Load is shorthand for e.Document().Load(e, width, height).
func (e *Element) Load(width, height float64) { e.doc.Load(e, width, height) }

// Fail is shorthand for e.Document().Fail(e, err).
func (e *Element) Fail(err error) { e.doc.Fail(e, err) }

// String returns a short description such as <img#hero.card>.
func (e *Element) String() string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(e.node.Data)
	if id := attr(e.node, "id"); id != "" {
		b.WriteString("#" + id)
	}
	if cls := strings.Fields(attr(e.node, "class")); len(cls) > 0 {
		b.WriteString("." + strings.Join(cls, "."))
	}
	b.WriteString(">")
	return b.String()
}

func isMediaNode(n *html.Node) bool {
	return n.Type == html.ElementNode && (n.DataAtom == atom.Img || n.DataAtom == atom.Video)
}

func isReplacedNode(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Img, atom.Video, atom.Canvas, atom.Iframe, atom.Svg, atom.Embed, atom.Object:
		return true
	}
	return n.Data == "svg"
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func camelCase(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
