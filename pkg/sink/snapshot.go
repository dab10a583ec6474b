package sink

import (
	"github.com/matzehuels/tilegrid/pkg/grid"
)

// Snapshot is the laid out state of one grid.
type Snapshot struct {
	ID     string       `json:"id,omitempty"`
	Kind   string       `json:"kind"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Items  []Item       `json:"items"`
	Status *grid.Status `json:"status,omitempty"`
}

// Item is one placed element in physical coordinates.
type Item struct {
	Index int       `json:"index"`
	Key   string    `json:"key,omitempty"`
	Tag   string    `json:"tag,omitempty"`
	Label string    `json:"label,omitempty"`
	Rect  grid.Rect `json:"rect"`
}

// Capture reads the current placement of g. Items without an element keep
// an empty tag.
func Capture(g *grid.Grid) Snapshot {
	horizontal := g.Options().Horizontal
	status := g.Status(true)
	container := g.ContainerElement()

	items := g.Items()
	out := make([]Item, len(items))
	for i, item := range items {
		it := Item{
			Index: i,
			Key:   item.Key,
			Label: item.Attr("label"),
			Rect:  grid.FromGridRect(item.ComputedGridRect(), horizontal),
		}
		if item.Element != nil {
			it.Tag = item.Element.TagName()
		}
		if it.Label == "" {
			it.Label = it.Key
		}
		out[i] = it
	}

	return Snapshot{
		ID:     g.ID(),
		Kind:   g.Kind(),
		Width:  container.ClientWidth(),
		Height: container.ClientHeight(),
		Items:  out,
		Status: &status,
	}
}

// Bounds returns the smallest width and height covering the container and
// every item.
func (s Snapshot) Bounds() (width, height float64) {
	width, height = s.Width, s.Height
	for _, it := range s.Items {
		width = max(width, it.Rect.Left+it.Rect.Width)
		height = max(height, it.Rect.Top+it.Rect.Height)
	}
	return width, height
}
