// Package loader settles the media elements of a document by probing their
// intrinsic size from local files, data URIs or, when enabled, http(s) URLs.
//
// It stands in for the browser's image fetch: a [Loader] walks every pending
// img and video element, decodes just enough of the referenced file to learn
// its dimensions, and reports the result through [dom.Document.Load] or
// [dom.Document.Fail]. Remote sources are only fetched with [WithHTTPClient].
package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/tilegrid/pkg/dom"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/httputil"
)

// DefaultConcurrency bounds the number of files probed at once.
const DefaultConcurrency = 8

// Loader probes media sizes concurrently.
type Loader struct {
	baseDir string
	limit   int
	logger  *log.Logger
	client  *http.Client
	sizes   *httputil.Cache

	pending sync.WaitGroup
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency sets how many probes may run at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.limit = n
		}
	}
}

// WithLogger sets the logger used for probe failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHTTPClient enables http and https sources.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithSizeCache remembers the probed size of remote sources.
func WithSizeCache(c *httputil.Cache) Option {
	return func(l *Loader) {
		if c != nil {
			l.sizes = c.Namespace("size:")
		}
	}
}

// New creates a loader resolving relative sources against baseDir.
func New(baseDir string, opts ...Option) *Loader {
	l := &Loader{
		baseDir: baseDir,
		limit:   DefaultConcurrency,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start probes every pending media element of doc in the background and
// returns immediately. Elements still pending when ctx is cancelled are
// failed with a timeout error.
func (l *Loader) Start(ctx context.Context, doc *dom.Document) {
	media := doc.PendingMedia()
	if len(media) == 0 {
		return
	}

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.limit)
		for _, el := range media {
			g.Go(func() error {
				l.settle(gctx, el)
				return nil
			})
		}
		_ = g.Wait()
	}()
}

// Wait blocks until every started probe has settled its element.
func (l *Loader) Wait() {
	l.pending.Wait()
}

func (l *Loader) settle(ctx context.Context, el *dom.Element) {
	if err := ctx.Err(); err != nil {
		el.Fail(errors.Wrap(errors.ErrCodeTimeout, err, "load %s", el.Attr("src")))
		return
	}

	src := el.Attr("src")
	if el.TagName() == "video" {
		w, h, ok := declaredSize(el)
		if !ok {
			el.Fail(errors.New(errors.ErrCodeContent, "video %s has no declared size", src))
			return
		}
		el.Load(w, h)
		return
	}

	w, h, err := l.probe(ctx, src)
	if err != nil {
		l.logger.Debug("media failed", "src", src, "err", err)
		el.Fail(err)
		return
	}
	l.logger.Debug("media loaded", "src", src, "width", w, "height", h)
	el.Load(w, h)
}

type size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (l *Loader) probe(ctx context.Context, src string) (float64, float64, error) {
	if l.client == nil || !isRemote(src) {
		return Probe(l.baseDir, src)
	}
	if l.sizes != nil {
		var s size
		if ok, _ := l.sizes.Get(src, &s); ok {
			return s.Width, s.Height, nil
		}
	}
	data, err := httputil.Fetch(ctx, l.client, src)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeContent, err, "decode %s", src)
	}
	w, h := float64(cfg.Width), float64(cfg.Height)
	if l.sizes != nil {
		if err := l.sizes.Set(src, size{Width: w, Height: h}); err != nil {
			l.logger.Debug("size cache write failed", "src", src, "err", err)
		}
	}
	return w, h, nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Probe returns the pixel dimensions of the image referenced by src.
func Probe(baseDir, src string) (width, height float64, err error) {
	if src == "" {
		return 0, 0, errors.New(errors.ErrCodeContent, "empty src")
	}
	var r io.Reader
	switch {
	case strings.HasPrefix(src, "data:"):
		data, err := decodeDataURI(src)
		if err != nil {
			return 0, 0, err
		}
		r = bytes.NewReader(data)
	default:
		path, err := resolve(baseDir, src)
		if err != nil {
			return 0, 0, err
		}
		f, err := os.Open(path)
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeContent, err, "open %s", src)
		}
		defer f.Close()
		r = f
	}

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeContent, err, "decode %s", src)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func resolve(baseDir, src string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeContent, err, "parse src %q", src)
	}
	switch u.Scheme {
	case "", "file":
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "remote source %q is not fetched", src)
	}
	p := filepath.FromSlash(u.Path)
	if filepath.IsAbs(p) || baseDir == "" {
		return p, nil
	}
	return filepath.Join(baseDir, p), nil
}

func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeContent, "malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeContent, err, "decode data uri")
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContent, err, "decode data uri")
	}
	return []byte(s), nil
}

func declaredSize(el *dom.Element) (w, h float64, ok bool) {
	w, errW := strconv.ParseFloat(el.Attr("width"), 64)
	h, errH := strconv.ParseFloat(el.Attr("height"), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
