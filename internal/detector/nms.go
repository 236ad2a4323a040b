package detector

import (
	"sort"

	"github.com/cropvision/yodet/internal/imgutil"
)

// applyNMS performs per-class non-maximum suppression: boxes of
// different classes never suppress each other. Results are sorted by
// descending confidence.
func applyNMS(candidates []rawDetection, iouThreshold float32) []rawDetection {
	if len(candidates) == 0 {
		return nil
	}

	byClass := make(map[int][]rawDetection)
	for _, c := range candidates {
		byClass[c.classID] = append(byClass[c.classID], c)
	}

	var kept []rawDetection
	for _, group := range byClass {
		kept = append(kept, nmsGroup(group, iouThreshold)...)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].confidence > kept[j].confidence
	})
	return kept
}

// nmsGroup runs greedy hard NMS within a single class.
func nmsGroup(group []rawDetection, iouThreshold float32) []rawDetection {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].confidence > group[j].confidence
	})

	suppressed := make([]bool, len(group))
	var kept []rawDetection

	for i := range group {
		if suppressed[i] {
			continue
		}
		kept = append(kept, group[i])
		for j := i + 1; j < len(group); j++ {
			if suppressed[j] {
				continue
			}
			if imgutil.IoU(group[i].box, group[j].box) > float64(iouThreshold) {
				suppressed[j] = true
			}
		}
	}
	return kept
}
