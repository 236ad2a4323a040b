package detector

import (
	"fmt"

	"github.com/cropvision/yodet/internal/imgutil"
)

// Detection is a single detected object in original-image coordinates.
type Detection struct {
	Box        imgutil.Box
	ClassID    int
	ClassName  string
	Confidence float32
}

// rawDetection is a candidate box in model-input coordinates, before
// NMS and letterbox inversion.
type rawDetection struct {
	box        imgutil.Box
	classID    int
	confidence float32
}

// decodeOutput parses a YOLOv8 detection head output into candidate
// boxes above the confidence threshold.
//
// The canonical layout is [1, 4+nc, N]: four rows of box parameters
// (cx, cy, w, h) followed by nc rows of per-class scores, over N
// anchors. Some exports transpose the last two dimensions to
// [1, N, 4+nc]; both are handled.
func decodeOutput(data []float32, shape []int64, confThreshold float32) ([]rawDetection, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v, want [1, 4+nc, N]", shape)
	}

	dim1 := int(shape[1])
	dim2 := int(shape[2])
	if len(data) != dim1*dim2 {
		return nil, fmt.Errorf("output data length %d does not match shape %v", len(data), shape)
	}

	// Attributes-first when the smaller dimension comes before the
	// anchor dimension. YOLOv8 has far more anchors than attributes.
	attrsFirst := dim1 < dim2
	var numAttrs, numAnchors int
	if attrsFirst {
		numAttrs, numAnchors = dim1, dim2
	} else {
		numAttrs, numAnchors = dim2, dim1
	}

	if numAttrs < 5 {
		return nil, fmt.Errorf("output has %d attributes per anchor, want at least 5", numAttrs)
	}
	numClasses := numAttrs - 4

	at := func(anchor, attr int) float32 {
		if attrsFirst {
			return data[attr*numAnchors+anchor]
		}
		return data[anchor*numAttrs+attr]
	}

	var candidates []rawDetection
	for anchor := 0; anchor < numAnchors; anchor++ {
		bestClass := 0
		bestScore := at(anchor, 4)
		for c := 1; c < numClasses; c++ {
			if score := at(anchor, 4+c); score > bestScore {
				bestScore = score
				bestClass = c
			}
		}
		if bestScore < confThreshold {
			continue
		}

		cx := float64(at(anchor, 0))
		cy := float64(at(anchor, 1))
		w := float64(at(anchor, 2))
		h := float64(at(anchor, 3))
		if w <= 0 || h <= 0 {
			continue
		}

		candidates = append(candidates, rawDetection{
			box:        imgutil.NewBox(cx-w/2, cy-h/2, cx+w/2, cy+h/2),
			classID:    bestClass,
			confidence: bestScore,
		})
	}

	return candidates, nil
}

// postprocess converts raw model output into final detections: decode,
// per-class NMS, then mapping back into original image coordinates.
func postprocess(
	data []float32,
	shape []int64,
	lb imgutil.Letterbox,
	origWidth, origHeight int,
	config Config,
	labels []string,
) ([]Detection, error) {
	candidates, err := decodeOutput(data, shape, config.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	kept := applyNMS(candidates, config.IoUThreshold)
	if len(kept) > config.MaxDetections {
		kept = kept[:config.MaxDetections]
	}

	detections := make([]Detection, 0, len(kept))
	for _, raw := range kept {
		box := lb.ToOriginal(raw.box, origWidth, origHeight)
		if box.Width() <= 0 || box.Height() <= 0 {
			continue
		}
		detections = append(detections, Detection{
			Box:        box,
			ClassID:    raw.classID,
			ClassName:  ClassName(labels, raw.classID),
			Confidence: raw.confidence,
		})
	}
	return detections, nil
}
