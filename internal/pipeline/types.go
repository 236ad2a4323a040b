package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for batch validation, mapped to client-facing
// responses by the callers.
var (
	// ErrNoFiles indicates an empty upload batch.
	ErrNoFiles = errors.New("no files uploaded")

	// ErrNoValidImages indicates a batch where no file carried an
	// image content type.
	ErrNoValidImages = errors.New("no valid image files in batch")
)

// Upload is a single incoming file in a processing batch.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FileResult is the processed output for one uploaded image.
type FileResult struct {
	Filename          string `json:"filename"`
	ContentType       string `json:"content_type"`
	ProcessedImageB64 string `json:"processed_image_b64"`
	DetectionCount    int    `json:"-"`
}

// FileError wraps a processing failure for a specific file so callers
// can report which file broke the batch.
type FileError struct {
	Filename string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.Filename, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Outcome is a per-file result used when the caller wants partial
// progress instead of all-or-nothing batch semantics.
type Outcome struct {
	Filename string
	Result   *FileResult // Set on success
	Err      error       // Set on failure
	Skipped  bool        // True when the file was not an image
}
