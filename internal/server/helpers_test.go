package server

import (
	"bytes"
	"image"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cropvision/yodet/internal/detector"
	"github.com/cropvision/yodet/internal/imgutil"
	"github.com/cropvision/yodet/internal/pipeline"
)

// stubDetector returns fixed detections without a real model.
type stubDetector struct {
	detections []detector.Detection
	err        error
}

func (d *stubDetector) Detect(img image.Image) ([]detector.Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.detections, nil
}

func (d *stubDetector) Close() error { return nil }

func defaultStubDetections() []detector.Detection {
	return []detector.Detection{
		{
			Box:        imgutil.NewBox(5, 5, 30, 30),
			ClassID:    0,
			ClassName:  "healthy",
			Confidence: 0.88,
		},
	}
}

// newTestServer builds a server around a stub detector, bypassing
// model loading.
func newTestServer(t *testing.T, det pipeline.ObjectDetector) *Server {
	t.Helper()

	pl, err := pipeline.NewBuilder().WithDetector(det).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })

	return &Server{
		pipeline:    pl,
		corsOrigins: []string{"*"},
		maxUploadMB: 50,
		timeoutSec:  30,
		modelPath:   "models/best_14.onnx",
	}
}

// uploadFile is one part of a multipart test request.
type uploadFile struct {
	filename    string
	contentType string
	data        []byte
}

// newMultipartRequest builds a POST request with the given files in
// the "files" field.
func newMultipartRequest(t *testing.T, target string, files []uploadFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+uploadFieldName+`"; filename="`+f.filename+`"`)
		header.Set("Content-Type", f.contentType)

		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
