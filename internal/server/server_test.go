package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tilegrid/pkg/errors"
	"github.com/matzehuels/tilegrid/pkg/snapshot"
)

const page = `<div id="grid" style="width: 400px;">
  <div data-grid-key="a" style="width: 100px; height: 100px;"></div>
  <div data-grid-key="b" style="width: 100px; height: 100px;"></div>
</div>`

func newServer(t *testing.T) *Server {
	t.Helper()
	store, err := snapshot.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(Config{Store: store, MediaDir: t.TempDir()})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.Code {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	rec := do(t, newServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLayout(t *testing.T) {
	s := newServer(t)
	rec := do(t, s, http.MethodPost, "/v1/layout", map[string]any{
		"html":    page,
		"kind":    "packing",
		"options": map[string]any{"aspectRatio": 2},
		"formats": []string{"svg", "png"},
		"save":    true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LayoutResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "packing", resp.Snapshot.Kind)
	require.Len(t, resp.Snapshot.Items, 2)
	assert.InDelta(t, 200, resp.Snapshot.Items[1].Rect.Left, 1e-6)
	assert.True(t, strings.HasPrefix(resp.Artifacts["svg"], "<svg"))
	assert.True(t, strings.HasPrefix(resp.Artifacts["png"], "data:image/png;base64,"))
	assert.NotEmpty(t, resp.LayoutHash)
	require.NotEmpty(t, resp.SnapshotID)

	rec = do(t, s, http.MethodGet, "/v1/snapshots/"+resp.SnapshotID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved snapshot.Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, resp.SnapshotID, saved.ID)
	assert.Equal(t, "packing", saved.Kind)
	assert.Len(t, saved.Layout.Items, 2)
}

func TestLayoutErrors(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"malformed", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no html", map[string]any{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown kind", map[string]any{"html": page, "kind": "bento"}, http.StatusBadRequest, errors.ErrCodeInvalidKind},
		{"no container", map[string]any{"html": page, "selector": "#nope"}, http.StatusNotFound, errors.ErrCodeContainerNotFound},
		{"bad format", map[string]any{"html": page, "formats": []string{"gif"}}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/layout", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec))
		})
	}
}

func TestSnapshotErrors(t *testing.T) {
	s := newServer(t)

	rec := do(t, s, http.MethodGet, "/v1/snapshots/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/v1/snapshots/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeSnapshotNotFound, decodeError(t, rec))

	noStore := New(Config{})
	rec = do(t, noStore, http.MethodPost, "/v1/layout", map[string]any{"html": page, "save": true})
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
