// Package pipeline ties preprocessing, detection, annotation, and
// encoding into the image processing flow used by the server and CLI.
package pipeline

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/cropvision/yodet/internal/detector"
	"github.com/cropvision/yodet/internal/imgutil"
)

// ObjectDetector is the detection capability the pipeline needs.
// *detector.Detector satisfies it; tests substitute fakes.
type ObjectDetector interface {
	Detect(img image.Image) ([]detector.Detection, error)
	Close() error
}

// Pipeline processes images end to end: decode, detect, annotate,
// encode. Safe for concurrent use when the underlying detector is.
type Pipeline struct {
	detector    ObjectDetector
	jpegQuality int
	logger      *slog.Logger
}

// Builder assembles a Pipeline. Zero value is not usable; start with
// NewBuilder.
type Builder struct {
	detectorConfig detector.Config
	det            ObjectDetector
	jpegQuality    int
	logger         *slog.Logger
	err            error
}

// NewBuilder returns a Builder with default detector settings.
func NewBuilder() *Builder {
	return &Builder{
		detectorConfig: detector.DefaultConfig(),
		jpegQuality:    imgutil.DefaultJPEGQuality,
	}
}

// WithModelPath sets the ONNX model file to load.
func (b *Builder) WithModelPath(path string) *Builder {
	b.detectorConfig.ModelPath = path
	return b
}

// WithLabelsPath sets an optional class labels file.
func (b *Builder) WithLabelsPath(path string) *Builder {
	b.detectorConfig.LabelsPath = path
	return b
}

// WithConfidenceThreshold overrides the minimum detection confidence.
func (b *Builder) WithConfidenceThreshold(threshold float32) *Builder {
	b.detectorConfig.ConfidenceThreshold = threshold
	return b
}

// WithIoUThreshold overrides the NMS IoU threshold.
func (b *Builder) WithIoUThreshold(threshold float32) *Builder {
	b.detectorConfig.IoUThreshold = threshold
	return b
}

// WithInputSize overrides the model input size.
func (b *Builder) WithInputSize(size int) *Builder {
	b.detectorConfig.InputSize = size
	return b
}

// WithNumThreads sets the intra-op thread count for inference.
func (b *Builder) WithNumThreads(n int) *Builder {
	b.detectorConfig.NumThreads = n
	return b
}

// WithGPU enables CUDA acceleration on the given device.
func (b *Builder) WithGPU(enabled bool, deviceID int) *Builder {
	b.detectorConfig.GPU.UseGPU = enabled
	b.detectorConfig.GPU.DeviceID = deviceID
	return b
}

// WithGPUMemoryLimit caps CUDA device memory use, in MB. Zero leaves
// the device memory unlimited.
func (b *Builder) WithGPUMemoryLimit(mb uint64) *Builder {
	b.detectorConfig.GPU.MemoryLimitMB = mb
	return b
}

// WithJPEGQuality sets the output encoding quality (1-100).
func (b *Builder) WithJPEGQuality(quality int) *Builder {
	b.jpegQuality = quality
	return b
}

// WithLogger sets the structured logger used by the pipeline.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithDetector injects a pre-built detector, bypassing model loading.
// Used by tests and by callers that manage the detector themselves.
func (b *Builder) WithDetector(det ObjectDetector) *Builder {
	b.det = det
	return b
}

// Build constructs the Pipeline, loading the detection model unless a
// detector was injected. Model load failure is returned to the caller;
// servers treat it as fatal at startup.
func (b *Builder) Build() (*Pipeline, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	det := b.det
	if det == nil {
		d, err := detector.New(b.detectorConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize detector: %w", err)
		}
		det = d
	}

	return &Pipeline{
		detector:    det,
		jpegQuality: b.jpegQuality,
		logger:      logger,
	}, nil
}

// ProcessImage decodes raw image bytes, runs detection, draws the
// results, and encodes the annotated image as JPEG.
func (p *Pipeline) ProcessImage(data []byte) ([]byte, []detector.Detection, error) {
	img, format, err := imgutil.DecodeImage(data)
	if err != nil {
		return nil, nil, err
	}

	detections, err := p.detector.Detect(img)
	if err != nil {
		return nil, nil, fmt.Errorf("detection failed: %w", err)
	}

	annotated := Annotate(img, detections)

	encoded, err := imgutil.EncodeJPEG(annotated, p.jpegQuality)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Debug("image processed",
		"format", format,
		"detections", len(detections),
		"output_bytes", len(encoded))

	return encoded, detections, nil
}

// Close releases the underlying detector.
func (p *Pipeline) Close() error {
	return p.detector.Close()
}
