package detector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLabelsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadLabels(t *testing.T) {
	path := writeLabelsFile(t, "healthy\ndiseased\n\n# comment\npest\n")

	labels, err := LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"healthy", "diseased", "pest"}, labels)
}

func TestLoadLabelsErrors(t *testing.T) {
	_, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	path := writeLabelsFile(t, "\n# only comments\n")
	_, err = LoadLabels(path)
	assert.Error(t, err)
}

func TestClassName(t *testing.T) {
	labels := []string{"healthy", "diseased"}
	assert.Equal(t, "healthy", ClassName(labels, 0))
	assert.Equal(t, "diseased", ClassName(labels, 1))
	assert.Equal(t, "class 2", ClassName(labels, 2))
	assert.Equal(t, "class 5", ClassName(nil, 5))
	assert.Equal(t, "class -1", ClassName(labels, -1))
}
