package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/word-sketch/internal/export"
	"github.com/yourusername/word-sketch/pkg/sketch"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agg, err := sketch.NewAggregator(sketch.Config{Rows: 4, Columns: 256})
	require.NoError(t, err)

	s := NewServer(agg, log.New(io.Discard, "", 0))
	return s, s.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAddAndQueryWords(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/v1/words", `{"text": "Castles and castle, CASTLES!"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, decode(t, rec)["added"])

	rec = do(t, h, http.MethodGet, "/v1/words/Castles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Castles", body["word"])
	assert.Equal(t, "castle", body["stem"])
	assert.GreaterOrEqual(t, body["estimate"], 3.0)

	rec = do(t, h, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode(t, rec)
	assert.Equal(t, 4.0, stats["total"])
	assert.Equal(t, 4.0, stats["rows"])
	assert.Equal(t, 256.0, stats["columns"])
}

func TestGetCounters(t *testing.T) {
	s, h := newTestServer(t)
	s.agg.AddKey("tea")

	rec := do(t, h, http.MethodGet, "/v1/counters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zstd", rec.Header().Get("Content-Type"))

	snap, err := export.ReadCompressed(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Rows)
	assert.Equal(t, 256, snap.Columns)
	assert.Equal(t, uint64(1), snap.Total)
	assert.Equal(t, s.agg.Sketch().RawCounters(), snap.Counters)
}

func TestErrors(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/v1/words/1234", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "no letters")

	rec = do(t, h, http.MethodPost, "/v1/words", `{"txt": "oops"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/words", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/stats", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "DELETE")
}
