package kinds

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/grid"
)

func container(t *testing.T) *dom.Element {
	t.Helper()
	doc, err := dom.ParseString(`<div id="grid" style="width: 600px;"><div style="width: 100px; height: 100px;"></div></div>`)
	require.NoError(t, err)
	el, err := doc.Query("#grid")
	require.NoError(t, err)
	return el
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"frame", "justified", "masonry", "packing"}, Names())
	for _, name := range Names() {
		assert.NoError(t, Validate(name))
	}
}

func TestValidate(t *testing.T) {
	err := Validate("bento")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))
	assert.Contains(t, err.Error(), "masonry")
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			g, err := New(name, container(t), grid.DefaultOptions(), nil)
			require.NoError(t, err)
			defer g.Destroy(grid.DestroyOptions{})
			assert.Equal(t, name, g.Kind())
		})
	}

	_, err := New("bento", container(t), grid.DefaultOptions(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))
}

func TestNewDecodesOptions(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		raw := []byte(`{"column": 3, "align": "center"}`)
		g, err := New("masonry", container(t), grid.DefaultOptions(), func(v any) error {
			return json.Unmarshal(raw, v)
		})
		require.NoError(t, err)
		column, _ := g.Option("column")
		assert.Equal(t, 3, column)
		align, _ := g.Option("align")
		assert.Equal(t, "center", fmt.Sprint(align))
	})

	t.Run("toml", func(t *testing.T) {
		var table map[string]toml.Primitive
		md, err := toml.Decode("[frame]\nframe = [[1, 1], [2, 3]]\nuse_frame_fill = false\n", &table)
		require.NoError(t, err)
		g, err := New("frame", container(t), grid.DefaultOptions(), func(v any) error {
			return md.PrimitiveDecode(table["frame"], v)
		})
		require.NoError(t, err)
		f, _ := g.Option("frame")
		assert.Equal(t, [][]int{{1, 1}, {2, 3}}, f)
		fill, _ := g.Option("useFrameFill")
		assert.Equal(t, false, fill)
	})

	t.Run("base options survive", func(t *testing.T) {
		base := grid.DefaultOptions()
		base.Gap = 7
		g, err := New("justified", container(t), base, func(v any) error {
			return json.Unmarshal([]byte(`{"columnRange": [2, 4]}`), v)
		})
		require.NoError(t, err)
		assert.Equal(t, 7.0, g.Options().Gap)
	})

	t.Run("decode error", func(t *testing.T) {
		_, err := New("packing", container(t), grid.DefaultOptions(), func(v any) error {
			return json.Unmarshal([]byte(`{"aspectRatio": "wide"}`), v)
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidOption))
	})
}

func TestFingerprint(t *testing.T) {
	a, err := New("justified", container(t), grid.DefaultOptions(), nil)
	require.NoError(t, err)
	b, err := New("justified", container(t), grid.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.True(t, strings.HasPrefix(Fingerprint(a), "kind=justified "))
	assert.Contains(t, Fingerprint(a), "sizeRange=[0 +Inf]")

	require.NoError(t, b.SetOption("columnRange", []int{2, 3}))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
