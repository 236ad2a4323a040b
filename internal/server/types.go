// Package server implements the HTTP API for the detection service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cropvision/yodet/internal/pipeline"
)

// welcomeMessage is the greeting returned by the root endpoint.
const welcomeMessage = "Welcome to the YOLOv8 Detection API!"

// pipelineInterface defines the methods the server needs from a
// processing pipeline.
type pipelineInterface interface {
	ProcessUploads(uploads []pipeline.Upload) ([]pipeline.FileResult, error)
	ProcessEach(uploads []pipeline.Upload) []pipeline.Outcome
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	corsOrigins []string
	maxUploadMB int64
	timeoutSec  int
	modelsDir   string
	modelPath   string
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
	MaxUploadMB int64
	TimeoutSec  int
	ModelsDir   string

	// Pipeline settings
	ModelPath        string
	LabelsPath       string
	Confidence       float32
	IoUThreshold     float32
	InputSize        int
	NumThreads       int
	GPUEnabled       bool
	GPUDevice        int
	GPUMemoryLimitMB uint64
	JPEGQuality      int
}

// StatusResponse is returned by the root endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ModelsResponse lists the detection models found on disk.
type ModelsResponse struct {
	Models []ModelEntry `json:"models"`
	Count  int          `json:"count"`
}

// ModelEntry describes one available model file.
type ModelEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	Available   bool   `json:"available"`
	Active      bool   `json:"active"`
}

// ErrorResponse is the JSON body for every error status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewServer creates a server and loads the detection model. A model
// load failure is returned to the caller, which should treat it as
// fatal: the server must not start without a working detector.
func NewServer(config Config) (*Server, error) {
	builder := pipeline.NewBuilder().
		WithModelPath(config.ModelPath).
		WithLabelsPath(config.LabelsPath).
		WithConfidenceThreshold(config.Confidence).
		WithIoUThreshold(config.IoUThreshold).
		WithJPEGQuality(config.JPEGQuality).
		WithGPU(config.GPUEnabled, config.GPUDevice).
		WithGPUMemoryLimit(config.GPUMemoryLimitMB)
	if config.InputSize > 0 {
		builder = builder.WithInputSize(config.InputSize)
	}
	if config.NumThreads > 0 {
		builder = builder.WithNumThreads(config.NumThreads)
	}

	pl, err := builder.Build()
	if err != nil {
		return nil, err
	}

	return &Server{
		pipeline:    pl,
		corsOrigins: config.CORSOrigins,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		modelsDir:   config.ModelsDir,
		modelPath:   config.ModelPath,
	}, nil
}

// NewServerWithPipeline wraps an already-built pipeline, skipping
// model loading. Used when the caller owns the pipeline lifecycle,
// e.g. when embedding the server or in integration tests.
func NewServerWithPipeline(pl *pipeline.Pipeline, config Config) *Server {
	return &Server{
		pipeline:    pl,
		corsOrigins: config.CORSOrigins,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		modelsDir:   config.ModelsDir,
		modelPath:   config.ModelPath,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.corsMiddleware(s.rootHandler))
	mux.HandleFunc("/api/process", s.corsMiddleware(s.processHandler))
	mux.HandleFunc("/healthz", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/ws/process", s.processWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
