package detector

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadLabels reads class names from a text file, one label per line.
// Blank lines and lines starting with '#' are skipped.
func LoadLabels(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer file.Close()

	var labels []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s contains no labels", path)
	}
	return labels, nil
}

// ClassName returns the label for a class index, falling back to a
// numeric name when no labels are loaded or the index is out of range.
func ClassName(labels []string, classID int) string {
	if classID >= 0 && classID < len(labels) {
		return labels[classID]
	}
	return fmt.Sprintf("class %d", classID)
}
