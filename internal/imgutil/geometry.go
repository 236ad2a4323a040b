package imgutil

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Clamp limits the box to the given bounds.
func (b Box) Clamp(minX, minY, maxX, maxY float64) Box {
	return Box{
		MinX: math.Max(b.MinX, minX),
		MinY: math.Max(b.MinY, minY),
		MaxX: math.Min(b.MaxX, maxX),
		MaxY: math.Min(b.MaxY, maxY),
	}
}

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

// IoU computes Intersection over Union for two boxes.
func IoU(a, b Box) float64 {
	interLeft := math.Max(a.MinX, b.MinX)
	interTop := math.Max(a.MinY, b.MinY)
	interRight := math.Min(a.MaxX, b.MaxX)
	interBottom := math.Min(a.MaxY, b.MaxY)

	if interLeft >= interRight || interTop >= interBottom {
		return 0.0
	}

	interArea := (interRight - interLeft) * (interBottom - interTop)
	unionArea := a.Area() + b.Area() - interArea

	if unionArea <= 0 {
		return 0.0
	}

	return interArea / unionArea
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
