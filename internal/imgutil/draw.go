package imgutil

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawRect draws a rectangle outline on an image with the specified
// color and line thickness.
func DrawRect(img draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	bounds := img.Bounds()
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return
	}

	for t := 0; t < thickness; t++ {
		top := rect.Min.Y + t
		bottom := rect.Max.Y - 1 - t
		left := rect.Min.X + t
		right := rect.Max.X - 1 - t

		if top > bottom || left > right {
			break
		}

		for x := left; x <= right; x++ {
			img.Set(x, top, col)
			img.Set(x, bottom, col)
		}
		for y := top; y <= bottom; y++ {
			img.Set(left, y, col)
			img.Set(right, y, col)
		}
	}
}

// FillRect fills a rectangle on an image with the specified color.
func FillRect(img draw.Image, rect image.Rectangle, col color.Color) {
	rect = rect.Intersect(img.Bounds())
	draw.Draw(img, rect, image.NewUniform(col), image.Point{}, draw.Src)
}

// labelFace is the fixed-size font used for detection labels.
var labelFace = basicfont.Face7x13

// DrawLabel renders text inside a filled background box anchored above
// the given rectangle. If there is no room above, the label is drawn
// inside the top edge instead.
func DrawLabel(img draw.Image, rect image.Rectangle, text string, bg color.Color, fg color.Color) {
	if text == "" {
		return
	}

	metrics := labelFace.Metrics()
	textWidth := font.MeasureString(labelFace, text).Ceil()
	textHeight := metrics.Ascent.Ceil() + metrics.Descent.Ceil()

	const pad = 2
	boxWidth := textWidth + 2*pad
	boxHeight := textHeight + 2*pad

	boxMin := image.Pt(rect.Min.X, rect.Min.Y-boxHeight)
	if boxMin.Y < img.Bounds().Min.Y {
		boxMin.Y = rect.Min.Y
	}
	box := image.Rect(boxMin.X, boxMin.Y, boxMin.X+boxWidth, boxMin.Y+boxHeight)

	FillRect(img, box, bg)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: labelFace,
		Dot: fixed.Point26_6{
			X: fixed.I(box.Min.X + pad),
			Y: fixed.I(box.Min.Y + pad + metrics.Ascent.Ceil()),
		},
	}
	drawer.DrawString(text)
}

// classPalette provides distinct colors for class indices, cycled when
// the class count exceeds the palette size.
var classPalette = []color.NRGBA{
	{230, 57, 70, 255},   // red
	{29, 53, 87, 255},    // navy
	{42, 157, 143, 255},  // teal
	{244, 162, 97, 255},  // orange
	{38, 70, 83, 255},    // slate
	{231, 111, 81, 255},  // coral
	{106, 76, 147, 255},  // purple
	{82, 183, 136, 255},  // green
	{255, 183, 3, 255},   // amber
	{0, 119, 182, 255},   // blue
}

// ClassColor returns a stable color for a class index.
func ClassColor(classID int) color.NRGBA {
	if classID < 0 {
		classID = -classID
	}
	return classPalette[classID%len(classPalette)]
}
