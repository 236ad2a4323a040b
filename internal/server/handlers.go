package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/cropvision/yodet/internal/models"
	"github.com/cropvision/yodet/internal/version"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error body in the form {"detail": "..."}.
func writeErrorResponse(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// rootHandler returns the API welcome message. The root pattern also
// catches unknown paths, which get a 404.
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeErrorResponse(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Message: welcomeMessage,
	})
}

// healthHandler reports liveness. The model is loaded before the
// server starts, so a running server is a healthy one.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// modelsHandler lists detection models available in the models
// directory and marks the one currently loaded.
func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	dir := models.GetModelsDir(s.modelsDir)
	known := models.ListAvailableModels()
	entries := make([]ModelEntry, 0, len(known))
	for _, m := range known {
		path := models.ResolveModelPath(dir, m.Type, m.Filename)
		entries = append(entries, ModelEntry{
			Name:        m.Name,
			Type:        m.Type,
			Description: m.Description,
			Filename:    m.Filename,
			Available:   models.ValidateModelExists(path) == nil,
			Active:      m.Type == models.TypeDetection && filepath.Base(s.modelPath) == m.Filename,
		})
	}

	writeJSON(w, http.StatusOK, ModelsResponse{
		Models: entries,
		Count:  len(entries),
	})
}
