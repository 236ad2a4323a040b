// Package detector runs YOLOv8 object detection models through ONNX
// Runtime: letterbox preprocessing, inference, and NMS postprocessing.
package detector

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/cropvision/yodet/internal/imgutil"
	"github.com/cropvision/yodet/internal/onnx"
)

// Detector wraps an ONNX detection session. It is safe for concurrent
// use; inference runs are serialized on an internal mutex.
type Detector struct {
	config    Config
	labels    []string
	session   *ort.DynamicAdvancedSession
	inputSize int
	mu        sync.Mutex
	closed    bool
}

// New loads the detection model and prepares an inference session.
// The returned Detector must be closed with Close when done.
func New(config Config) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}

	if err := initONNXRuntime(config.GPU.UseGPU); err != nil {
		return nil, err
	}

	io, err := inspectModel(config.ModelPath)
	if err != nil {
		return nil, err
	}

	inputSize := config.InputSize
	if io.inputSize > 0 {
		if io.inputSize != config.InputSize {
			slog.Debug("model declares a fixed input size, overriding configuration",
				"model_size", io.inputSize, "configured_size", config.InputSize)
		}
		inputSize = io.inputSize
	}

	var labels []string
	if config.LabelsPath != "" {
		labels, err = LoadLabels(config.LabelsPath)
		if err != nil {
			slog.Warn("failed to load labels, falling back to numeric class names",
				"path", config.LabelsPath, "error", err)
			labels = nil
		}
	}

	session, err := createSession(config, io)
	if err != nil {
		return nil, err
	}

	slog.Info("detection model loaded",
		"model", config.ModelPath,
		"input_size", inputSize,
		"labels", len(labels),
		"gpu", config.GPU.UseGPU)

	return &Detector{
		config:    config,
		labels:    labels,
		session:   session,
		inputSize: inputSize,
	}, nil
}

// Config returns the configuration the detector was created with.
func (d *Detector) Config() Config { return d.config }

// Labels returns the loaded class labels, nil when none were loaded.
func (d *Detector) Labels() []string { return d.labels }

// InputSize returns the effective square input size used for inference.
func (d *Detector) InputSize() int { return d.inputSize }

// Detect runs inference on an image and returns detections in original
// image coordinates, sorted by descending confidence.
func (d *Detector) Detect(img image.Image) ([]Detection, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()
	if origWidth <= 0 || origHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", origWidth, origHeight)
	}

	lb, err := imgutil.LetterboxImage(img, d.inputSize)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	data, w, h, err := imgutil.NormalizeImage(lb.Image)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	tensor, err := onnx.NewImageTensor(data, 3, h, w)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}

	outData, outShape, err := d.run(tensor)
	if err != nil {
		return nil, err
	}

	return postprocess(outData, outShape, lb, origWidth, origHeight, d.config, d.labels)
}

// run executes the ONNX session with the prepared input tensor and
// copies out the raw output. Serialized: ORT sessions are not safe for
// concurrent Run calls on the same session.
func (d *Detector) run(t onnx.Tensor) ([]float32, []int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, nil, fmt.Errorf("detector is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer func() {
		if err := input.Destroy(); err != nil {
			slog.Error("failed to destroy input tensor", "error", err)
		}
	}()

	// ONNX Runtime allocates the output tensor when given nil.
	outputs := []ort.Value{nil}
	if err := d.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		if err := outputs[0].Destroy(); err != nil {
			slog.Error("failed to destroy output tensor", "error", err)
		}
	}()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	shape := outTensor.GetShape()
	raw := outTensor.GetData()
	data := make([]float32, len(raw))
	copy(data, raw)

	outShape := make([]int64, len(shape))
	copy(outShape, shape)

	return data, outShape, nil
}

// Close releases the ONNX session. Subsequent Detect calls fail.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.session != nil {
		if err := d.session.Destroy(); err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
		d.session = nil
	}
	return nil
}
