package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModelsDir(t *testing.T) {
	t.Run("explicit dir wins", func(t *testing.T) {
		assert.Equal(t, "/tmp/weights", GetModelsDir("/tmp/weights"))
	})

	t.Run("environment variable override", func(t *testing.T) {
		t.Setenv(EnvModelsDir, "/opt/yodet-models")
		assert.Equal(t, "/opt/yodet-models", GetModelsDir(""))
	})
}

func TestResolveModelPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("flat layout fallback", func(t *testing.T) {
		path := ResolveModelPath(dir, TypeDetection, DetectionDefault)
		assert.Equal(t, filepath.Join(dir, DetectionDefault), path)
	})

	t.Run("organized layout preferred when present", func(t *testing.T) {
		organized := filepath.Join(dir, TypeDetection)
		require.NoError(t, os.MkdirAll(organized, 0o750))
		full := filepath.Join(organized, DetectionDefault)
		require.NoError(t, os.WriteFile(full, []byte("onnx"), 0o600))

		assert.Equal(t, full, ResolveModelPath(dir, TypeDetection, DetectionDefault))
	})
}

func TestValidateModelExists(t *testing.T) {
	dir := t.TempDir()

	err := ValidateModelExists(filepath.Join(dir, "missing.onnx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")

	existing := filepath.Join(dir, "present.onnx")
	require.NoError(t, os.WriteFile(existing, []byte("onnx"), 0o600))
	assert.NoError(t, ValidateModelExists(existing))
}

func TestListAvailableModels(t *testing.T) {
	infos := ListAvailableModels()
	require.NotEmpty(t, infos)

	var foundDetection bool
	for _, info := range infos {
		if info.Type == TypeDetection {
			foundDetection = true
			assert.Equal(t, DetectionDefault, info.Filename)
		}
	}
	assert.True(t, foundDetection)
}
