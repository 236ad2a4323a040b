package detector

import (
	"fmt"
	"os"

	"github.com/cropvision/yodet/internal/onnx"
)

// Default thresholds for YOLO-family detection models.
const (
	DefaultConfidenceThreshold = 0.25
	DefaultIoUThreshold        = 0.45
	DefaultInputSize           = 640
	DefaultMaxDetections       = 300
)

// Config holds detector configuration.
type Config struct {
	ModelPath           string  // Path to the ONNX detection model
	LabelsPath          string  // Optional path to a class labels file
	ConfidenceThreshold float32 // Minimum confidence score to keep a detection
	IoUThreshold        float32 // IoU threshold for non-maximum suppression
	InputSize           int     // Square model input side length
	NumThreads          int     // Intra-op thread count (0 = runtime default)
	MaxDetections       int     // Cap on detections returned per image
	GPU                 onnx.GPUConfig
}

// DefaultConfig returns a detector configuration with standard YOLO
// thresholds. ModelPath must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		IoUThreshold:        DefaultIoUThreshold,
		InputSize:           DefaultInputSize,
		MaxDetections:       DefaultMaxDetections,
	}
}

func validateConfig(config Config) error {
	if config.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if err := validateModelFile(config.ModelPath); err != nil {
		return err
	}
	if config.ConfidenceThreshold < 0 || config.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold must be in [0, 1], got %g", config.ConfidenceThreshold)
	}
	if config.IoUThreshold <= 0 || config.IoUThreshold > 1 {
		return fmt.Errorf("IoU threshold must be in (0, 1], got %g", config.IoUThreshold)
	}
	if config.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", config.InputSize)
	}
	if config.NumThreads < 0 {
		return fmt.Errorf("thread count must be non-negative, got %d", config.NumThreads)
	}
	if config.MaxDetections <= 0 {
		return fmt.Errorf("max detections must be positive, got %d", config.MaxDetections)
	}
	return onnx.ValidateGPUConfig(config.GPU)
}

func validateModelFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("model file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model file is empty: %s", path)
	}
	return nil
}
