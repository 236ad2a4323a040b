package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Model file constants to avoid typos and ensure consistency.
const (
	// Detection model weights (YOLOv8, ONNX export).
	DetectionDefault = "best_14.onnx"

	// Class label list, one name per line, index = class ID.
	LabelsDefault = "labels.txt"
)

// Model type categories for organized directory structure.
const (
	TypeDetection = "detection"
	TypeLabels    = "labels"
)

// Default models directory.
const DefaultModelsDir = "models"

// Environment variable for models directory override.
const EnvModelsDir = "YODET_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree looking for go.mod
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.New("could not find project root (go.mod not found)")
}

// ModelInfo contains metadata about a model asset.
type ModelInfo struct {
	Name        string
	Type        string
	Description string
	Filename    string
}

// GetModelsDir returns the models directory path from various sources
// Priority: 1. Explicit modelsDir parameter, 2. Environment variable, 3. Project root + default.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}

	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}

	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}

	// Fallback to relative path if project root can't be found
	return DefaultModelsDir
}

// ResolveModelPath resolves a model filename to its full path
// Supports both an organized per-type structure and a legacy flat layout.
func ResolveModelPath(modelsDir, modelType, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if modelType != "" {
		organizedPath := filepath.Join(baseDir, modelType, filename)
		if _, err := os.Stat(organizedPath); err == nil {
			return organizedPath
		}
	}

	// Fall back to flat structure
	return filepath.Join(baseDir, filename)
}

// GetDetectionModelPath returns the path for the detection model weights.
func GetDetectionModelPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeDetection, DetectionDefault)
}

// GetLabelsPath returns the path for the class label list.
func GetLabelsPath(modelsDir string) string {
	return ResolveModelPath(modelsDir, TypeLabels, LabelsDefault)
}

// ValidateModelExists checks if a model file exists at the given path.
func ValidateModelExists(modelPath string) error {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", modelPath)
	}
	return nil
}

// ListAvailableModels returns information about the model assets this
// service knows how to load.
func ListAvailableModels() []ModelInfo {
	return []ModelInfo{
		{
			Name:        "detection",
			Type:        TypeDetection,
			Description: "YOLOv8 object detection model",
			Filename:    DetectionDefault,
		},
		{
			Name:        "labels",
			Type:        TypeLabels,
			Description: "Class label list for the detection model",
			Filename:    LabelsDefault,
		},
	}
}
