// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz              build information
//	POST /v1/layout            run the pipeline on a JSON request
//	GET  /v1/snapshots/{id}    fetch a saved layout
//
// Errors are JSON objects with the error code and a user-facing message;
// the status follows errors.HTTPStatus.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tilegrid/pkg/buildinfo"
	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/httputil"
	"github.com/matzehuels/tilegrid/pkg/observability"
	"github.com/matzehuels/tilegrid/pkg/pipeline"
	"github.com/matzehuels/tilegrid/pkg/sink"
	"github.com/matzehuels/tilegrid/pkg/snapshot"
)

// MaxRequestSize bounds the body of a layout request.
const MaxRequestSize = 8 << 20

// Config holds what the handlers need.
type Config struct {
	Runner *pipeline.Runner
	Store  snapshot.Store
	Logger *log.Logger

	// MediaDir resolves relative media sources.
	MediaDir string
	// Fetch enables http(s) media sources.
	Fetch bool
	// SizeCache remembers remote media sizes when Fetch is set.
	SizeCache *httputil.Cache
	// SnapshotTTL is the lifetime of saved layouts.
	SnapshotTTL time.Duration
}

// Server routes API requests to the pipeline and snapshot store.
type Server struct {
	cfg    Config
	router chi.Router
	client *http.Client
}

// New creates a server. A nil Runner uses an uncached one; a nil Store
// disables saving.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = snapshot.DefaultTTL
	}
	s := &Server{cfg: cfg}
	if cfg.Fetch {
		s.client = httputil.NewClient()
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Get("/snapshots/{id}", s.handleGetSnapshot)
	})
	return r
}

// observe reports every request to the HTTP hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// LayoutRequest is the body of POST /v1/layout.
type LayoutRequest struct {
	pipeline.Options

	// Save stores the result and returns its snapshot id.
	Save bool `json:"save,omitempty"`
}

// LayoutResponse is the result of POST /v1/layout. Text artifacts are
// returned as is; PDF and PNG as base64 data URIs.
type LayoutResponse struct {
	SnapshotID    string            `json:"snapshotId,omitempty"`
	Snapshot      sink.Snapshot     `json:"snapshot"`
	Artifacts     map[string]string `json:"artifacts"`
	ContentErrors []int             `json:"contentErrors,omitempty"`
	Passes        int               `json:"passes"`
	LayoutHash    string            `json:"layoutHash"`
	Cached        bool              `json:"cached"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	body := http.MaxBytesReader(w, r.Body, MaxRequestSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if req.Save && s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "snapshot store is disabled"))
		return
	}

	opts := req.Options
	opts.Source = "request " + middleware.GetReqID(r.Context())
	opts.BaseDir = s.cfg.MediaDir
	opts.HTTPClient = s.client
	opts.SizeCache = s.cfg.SizeCache

	result, err := s.cfg.Runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := LayoutResponse{
		Snapshot:      result.Snapshot,
		Artifacts:     encodeArtifacts(result.Artifacts),
		ContentErrors: result.ContentErrors,
		Passes:        result.Stats.PassCount,
		LayoutHash:    result.LayoutHash,
		Cached:        result.CacheInfo.LayoutHit,
	}
	if req.Save {
		rec := snapshot.New(result.Snapshot.Kind, result.DocHash, result.Snapshot, s.cfg.SnapshotTTL)
		if err := s.cfg.Store.Set(r.Context(), rec); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "save snapshot"))
			return
		}
		resp.SnapshotID = rec.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "snapshot store is disabled"))
		return
	}
	id := chi.URLParam(r, "id")
	if err := snapshot.ValidateID(id); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "snapshot id"))
		return
	}
	rec, err := s.cfg.Store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "load snapshot"))
		return
	}
	if rec == nil {
		s.writeError(w, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// Helpers
// =============================================================================

var binaryTypes = map[string]string{
	pipeline.FormatPDF: "application/pdf",
	pipeline.FormatPNG: "image/png",
}

func encodeArtifacts(artifacts map[string][]byte) map[string]string {
	out := make(map[string]string, len(artifacts))
	for format, data := range artifacts {
		if mime, ok := binaryTypes[format]; ok {
			out[format] = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
			continue
		}
		out[format] = string(data)
	}
	return out
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.cfg.Logger.Error("request failed", "err", err)
	} else {
		s.cfg.Logger.Debug("request rejected", "err", err)
	}
	var body errorBody
	body.Error.Code = errors.GetCode(err)
	if body.Error.Code == "" {
		body.Error.Code = errors.ErrCodeInternal
	}
	body.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
