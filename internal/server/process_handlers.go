package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cropvision/yodet/internal/pipeline"
)

// uploadFieldName is the multipart form field carrying the files.
const uploadFieldName = "files"

// processHandler accepts a multipart batch of files, runs detection on
// every image, and returns the annotated results. The batch is
// all-or-nothing: one failing image fails the whole request.
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Upload exceeds the %d MB limit.", s.maxUploadMB))
			return
		}
		// A request without multipart content has no files in it.
		processRequestsTotal.WithLabelValues("empty_batch").Inc()
		writeErrorResponse(w, http.StatusBadRequest, "No files were uploaded.")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("failed to clean up multipart temp files", "error", err)
		}
	}()

	fileHeaders := r.MultipartForm.File[uploadFieldName]
	uploads, err := readUploads(fileHeaders)
	if err != nil {
		slog.Error("failed to read uploaded files", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to read uploaded files.")
		return
	}

	start := time.Now()
	results, err := s.pipeline.ProcessUploads(uploads)
	processingDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	processRequestsTotal.WithLabelValues("ok").Inc()
	imagesProcessedTotal.WithLabelValues("processed").Add(float64(len(results)))
	imagesProcessedTotal.WithLabelValues("skipped").Add(float64(len(uploads) - len(results)))
	for _, result := range results {
		detectionsPerImage.Observe(float64(result.DetectionCount))
	}

	slog.Info("batch processed",
		"files", len(uploads),
		"processed", len(results),
		"duration_ms", time.Since(start).Milliseconds())

	writeJSON(w, http.StatusOK, results)
}

// writeProcessError maps pipeline errors to API responses.
func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	var fileErr *pipeline.FileError

	switch {
	case errors.Is(err, pipeline.ErrNoFiles):
		processRequestsTotal.WithLabelValues("empty_batch").Inc()
		writeErrorResponse(w, http.StatusBadRequest, "No files were uploaded.")

	case errors.Is(err, pipeline.ErrNoValidImages):
		processRequestsTotal.WithLabelValues("no_valid_images").Inc()
		writeErrorResponse(w, http.StatusBadRequest, "No valid image files were processed.")

	case errors.As(err, &fileErr):
		processRequestsTotal.WithLabelValues("failed").Inc()
		imagesProcessedTotal.WithLabelValues("failed").Inc()
		slog.Error("batch aborted by file failure", "filename", fileErr.Filename, "error", fileErr.Err)
		writeErrorResponse(w, http.StatusInternalServerError,
			fmt.Sprintf("Error processing %s: %s", fileErr.Filename, fileErr.Err))

	default:
		processRequestsTotal.WithLabelValues("failed").Inc()
		slog.Error("batch processing failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// readUploads drains the multipart file headers into memory uploads.
func readUploads(fileHeaders []*multipart.FileHeader) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		data, err := readUpload(header)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
		}

		uploadSizeBytes.Observe(float64(len(data)))
		uploads = append(uploads, pipeline.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
