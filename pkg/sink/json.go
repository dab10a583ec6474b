package sink

import "encoding/json"

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	status bool
	id     bool
	indent string
}

// WithoutStatus drops the grid status, leaving only the item rects.
func WithoutStatus() JSONOption { return func(r *jsonRenderer) { r.status = false } }

// WithoutID drops the grid instance id, which differs between runs.
func WithoutID() JSONOption { return func(r *jsonRenderer) { r.id = false } }

// WithIndent sets the indent string. An empty string writes compact JSON.
func WithIndent(s string) JSONOption { return func(r *jsonRenderer) { r.indent = s } }

// RenderJSON writes the snapshot as JSON.
func RenderJSON(s Snapshot, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{status: true, id: true, indent: "  "}
	for _, opt := range opts {
		opt(&r)
	}
	if !r.status {
		s.Status = nil
	}
	if !r.id {
		s.ID = ""
	}
	if s.Items == nil {
		s.Items = []Item{}
	}
	if r.indent == "" {
		return json.Marshal(s)
	}
	return json.MarshalIndent(s, "", r.indent)
}

// ParseJSON reads a snapshot written by [RenderJSON].
func ParseJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	err := json.Unmarshal(data, &s)
	return s, err
}
