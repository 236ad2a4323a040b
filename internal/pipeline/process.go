package pipeline

import (
	"encoding/base64"

	"github.com/cropvision/yodet/internal/imgutil"
)

// processedContentType is the content type of every processed result;
// annotated images are always re-encoded as JPEG.
const processedContentType = "image/jpeg"

// ProcessUploads processes a batch with all-or-nothing semantics:
// non-image files are skipped, and the first processing failure on a
// valid image aborts the whole batch with a *FileError.
//
// Returns ErrNoFiles for an empty batch and ErrNoValidImages when
// every file was skipped.
func (p *Pipeline) ProcessUploads(uploads []Upload) ([]FileResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}

	results := make([]FileResult, 0, len(uploads))
	for _, upload := range uploads {
		if !imgutil.IsImageContentType(upload.ContentType) {
			p.logger.Debug("skipping non-image upload",
				"filename", upload.Filename,
				"content_type", upload.ContentType)
			continue
		}

		result, err := p.processUpload(upload)
		if err != nil {
			return nil, &FileError{Filename: upload.Filename, Err: err}
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, ErrNoValidImages
	}
	return results, nil
}

// ProcessEach processes a batch with per-file outcomes: a failure on
// one file does not abort the rest. Used by callers that stream
// progress or continue on error.
func (p *Pipeline) ProcessEach(uploads []Upload) []Outcome {
	outcomes := make([]Outcome, 0, len(uploads))
	for _, upload := range uploads {
		outcome := Outcome{Filename: upload.Filename}

		switch {
		case !imgutil.IsImageContentType(upload.ContentType):
			outcome.Skipped = true
		default:
			result, err := p.processUpload(upload)
			if err != nil {
				outcome.Err = &FileError{Filename: upload.Filename, Err: err}
			} else {
				outcome.Result = &result
			}
		}

		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (p *Pipeline) processUpload(upload Upload) (FileResult, error) {
	encoded, detections, err := p.ProcessImage(upload.Data)
	if err != nil {
		return FileResult{}, err
	}

	return FileResult{
		Filename:          upload.Filename,
		ContentType:       processedContentType,
		ProcessedImageB64: base64.StdEncoding.EncodeToString(encoded),
		DetectionCount:    len(detections),
	}, nil
}
