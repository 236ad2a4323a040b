package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHandler(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.rootHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "Welcome to the YOLOv8 Detection API!", body.Message)
}

func TestRootHandlerUnknownPath(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.rootHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Not Found", body.Detail)
}

func TestRootHandlerMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	s.rootHandler(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.healthHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.NotEmpty(t, body.Time)
}

func TestModelsHandler(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	rec := httptest.NewRecorder()
	s.modelsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, len(body.Models), body.Count)
	require.NotEmpty(t, body.Models)

	var foundActive bool
	for _, m := range body.Models {
		if m.Active {
			foundActive = true
			assert.Equal(t, "best_14.onnx", m.Filename)
		}
	}
	assert.True(t, foundActive, "loaded detection model should be marked active")
}

func TestSetupRoutes(t *testing.T) {
	s := newTestServer(t, &stubDetector{})

	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
