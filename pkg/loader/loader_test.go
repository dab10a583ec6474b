package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/httputil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), encodePNG(t, 40, 30), 0o644))
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodePNG(t, 7, 9))

	tests := []struct {
		name     string
		src      string
		wantW    float64
		wantH    float64
		wantCode errors.Code
	}{
		{"relative file", "a.png", 40, 30, ""},
		{"file url", "file://" + filepath.ToSlash(filepath.Join(dir, "a.png")), 40, 30, ""},
		{"data uri", dataURI, 7, 9, ""},
		{"missing file", "missing.png", 0, 0, errors.ErrCodeContent},
		{"remote", "https://example.com/a.png", 0, 0, errors.ErrCodeUnsupported},
		{"not an image", "data:text/plain,hello", 0, 0, errors.ErrCodeContent},
		{"empty", "", 0, 0, errors.ErrCodeContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := Probe(dir, tt.src)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestLoaderSettlesDocument(t *testing.T) {
	dir := t.TempDir()
	var body bytes.Buffer
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf("img%d.png", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), encodePNG(t, 10+i, 20), 0o644))
		fmt.Fprintf(&body, `<img src="%s">`, name)
	}
	body.WriteString(`<img src="nope.png"><video src="clip.mp4"></video><video src="clip.mp4" width="320" height="180"></video>`)

	doc, err := dom.ParseString("<div>" + body.String() + "</div>")
	require.NoError(t, err)

	l := New(dir, WithConcurrency(3))
	l.Start(context.Background(), doc)
	l.Wait()

	assert.Empty(t, doc.PendingMedia())

	imgs, err := doc.QueryAll("//img")
	require.NoError(t, err)
	for i, img := range imgs[:12] {
		w, h := img.NaturalSize()
		assert.Equal(t, float64(10+i), w)
		assert.Equal(t, 20.0, h)
		assert.NoError(t, img.Err())
	}
	assert.Error(t, imgs[12].Err())

	videos, err := doc.QueryAll("//video")
	require.NoError(t, err)
	assert.True(t, errors.Is(videos[0].Err(), errors.ErrCodeContent))
	w, h := videos[1].NaturalSize()
	assert.Equal(t, 320.0, w)
	assert.Equal(t, 180.0, h)
}

func TestLoaderCancelled(t *testing.T) {
	doc, err := dom.ParseString(`<div><img src="a.png"></div>`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(t.TempDir())
	l.Start(ctx, doc)
	l.Wait()

	img, err := doc.Query("//img")
	require.NoError(t, err)
	assert.True(t, errors.Is(img.Err(), errors.ErrCodeTimeout))
}

func TestLoaderNothingPending(t *testing.T) {
	doc, err := dom.ParseString(`<div><img></div>`)
	require.NoError(t, err)
	l := New("")
	l.Start(context.Background(), doc)
	l.Wait()
}

func TestLoaderRemote(t *testing.T) {
	img := encodePNG(t, 64, 48)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a.png" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(img)
	}))
	defer srv.Close()

	sizes, err := httputil.NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	run := func() *dom.Document {
		doc, err := dom.ParseString(fmt.Sprintf(`<div><img src="%s/a.png"><img src="%s/missing.png"></div>`, srv.URL, srv.URL))
		require.NoError(t, err)
		l := New("", WithHTTPClient(srv.Client()), WithSizeCache(sizes))
		l.Start(context.Background(), doc)
		l.Wait()
		return doc
	}

	for range 2 {
		doc := run()
		imgs, err := doc.QueryAll("//img")
		require.NoError(t, err)
		w, h := imgs[0].NaturalSize()
		assert.Equal(t, 64.0, w)
		assert.Equal(t, 48.0, h)
		assert.True(t, errors.Is(imgs[1].Err(), errors.ErrCodeContent))
	}
	assert.Equal(t, int32(1), hits.Load(), "second run should use the size cache")
}
