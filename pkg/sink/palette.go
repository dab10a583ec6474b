package sink

// Palette is a list of fill colors cycled over items by index.
type Palette []string

var (
	// Mono draws every item in the same gray.
	Mono = Palette{"#d9d9d9"}
	// Pastel alternates soft hues so neighbours stay distinguishable.
	Pastel = Palette{"#a8d8ea", "#aa96da", "#fcbad3", "#ffffd2", "#b5ead7", "#ffdac1"}
)

const (
	strokeColor     = "#333333"
	containerStroke = "#999999"
)

func (p Palette) color(i int) string {
	if len(p) == 0 {
		return Mono[0]
	}
	return p[i%len(p)]
}
