package dom

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// declaration is one "name: value" pair of an inline style.
type declaration struct {
	name      string
	value     string
	important bool
}

// CSSText returns the raw style attribute.
func (e *Element) CSSText() string {
	return e.Attr("style")
}

// SetCSSText replaces the style attribute verbatim. An empty string removes it.
func (e *Element) SetCSSText(text string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	if text == "" {
		removeAttr(e.node, "style")
		return
	}
	setAttr(e.node, "style", text)
}

// StyleProperty returns the value of one inline style declaration.
func (e *Element) StyleProperty(name string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return styleValue(e.node.Attr, name)
}

// SetStyleProperty sets one inline declaration, keeping the others. An empty
// value removes the declaration.
func (e *Element) SetStyleProperty(name, value string) {
	e.SetStyle(map[string]string{name: value})
}

// SetStyle merges several declarations into the inline style in one write.
// Declarations keep their original order; new ones are appended in key order.
func (e *Element) SetStyle(props map[string]string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()

	decls := parseStyle(attr(e.node, "style"))
	seen := make(map[string]bool, len(props))
	out := decls[:0]
	for _, d := range decls {
		v, ok := props[d.name]
		if !ok {
			out = append(out, d)
			continue
		}
		seen[d.name] = true
		if v != "" {
			out = append(out, declaration{name: d.name, value: v})
		}
	}
	for _, name := range sortedKeys(props) {
		if !seen[name] && props[name] != "" {
			out = append(out, declaration{name: name, value: props[name]})
		}
	}
	if len(out) == 0 {
		removeAttr(e.node, "style")
		return
	}
	setAttr(e.node, "style", formatStyle(out))
}

// ComputedPosition returns the inline position property, defaulting to static.
func (e *Element) ComputedPosition() string {
	if p := strings.TrimSpace(e.StyleProperty("position")); p != "" {
		return p
	}
	return "static"
}

func parseStyle(text string) []declaration {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	// douceur drops a final declaration that is not terminated.
	if !strings.HasSuffix(text, ";") {
		text += ";"
	}
	parsed, err := parser.ParseDeclarations(text)
	if err != nil {
		return nil
	}
	out := make([]declaration, 0, len(parsed))
	for _, d := range parsed {
		out = append(out, declaration{
			name:      strings.ToLower(d.Property),
			value:     d.Value,
			important: d.Important,
		})
	}
	return out
}

func formatStyle(decls []declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.name)
		b.WriteString(": ")
		b.WriteString(d.value)
		if d.important {
			b.WriteString(" !important")
		}
		b.WriteByte(';')
	}
	return b.String()
}

func styleValue(attrs []html.Attribute, name string) string {
	for _, a := range attrs {
		if a.Namespace != "" || a.Key != "style" {
			continue
		}
		var v string
		for _, d := range parseStyle(a.Val) {
			if d.name == name {
				v = d.value
			}
		}
		return v
	}
	return ""
}

// length is a parsed CSS length.
type length struct {
	value   float64
	percent bool
}

// parseLength accepts "12px", "12", "12.5" and "40%". Everything else
// (auto, calc(), em) is reported as unset.
func parseLength(s string) (length, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return length{}, false
	}
	percent := false
	switch {
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSuffix(s, "%")
		percent = true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return length{}, false
	}
	return length{value: v, percent: percent}, true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
