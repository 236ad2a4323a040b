package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cropvision/yodet/internal/detector"
	"github.com/cropvision/yodet/internal/imgutil"
)

const boxThickness = 2

var labelTextColor = color.NRGBA{255, 255, 255, 255}

// Annotate draws detection boxes and class labels onto a copy of the
// image. The input image is not modified.
func Annotate(img image.Image, detections []detector.Detection) image.Image {
	dst := imgutil.ToDrawable(img)

	for _, det := range detections {
		rect := det.Box.ToRect(dst.Bounds())
		if rect.Empty() {
			continue
		}

		col := imgutil.ClassColor(det.ClassID)
		imgutil.DrawRect(dst, rect, col, boxThickness)

		label := fmt.Sprintf("%s %.2f", det.ClassName, det.Confidence)
		imgutil.DrawLabel(dst, rect, label, col, labelTextColor)
	}

	return dst
}
