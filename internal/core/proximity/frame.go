package proximity

import (
	"image"
	"image/draw"
)

// Frame is one captured camera frame as a packed RGBA buffer.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
}

// The heuristic walks a fixed sparse grid: every 4th pixel of the buffer,
// and only 1 in 4 of those, so one pixel in 16 is examined.
const (
	subsampleStride = 4
	examineEvery    = 4
)

// FromImage converts a decoded image into a Frame.
func FromImage(source image.Image) Frame {
	bounds := source.Bounds()
	rgba, ok := source.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, source, bounds.Min, draw.Src)
	}
	return Frame{
		Pix:    rgba.Pix,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

// SkinRatio returns the fraction of sampled pixels classified as skin tone.
// The classifier is a coarse channel heuristic, not face detection; it
// accepts known false positives and only has to be stable against the
// calibration baseline computed with the same rule.
func SkinRatio(frame Frame) float64 {
	pixelCount := len(frame.Pix) / 4
	if pixelCount == 0 {
		return 0
	}

	step := subsampleStride * examineEvery
	total := 0
	skin := 0
	for pixel := 0; pixel < pixelCount; pixel += step {
		offset := pixel * 4
		red := int(frame.Pix[offset])
		green := int(frame.Pix[offset+1])
		blue := int(frame.Pix[offset+2])
		total++
		if isSkinTone(red, green, blue) {
			skin++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(skin) / float64(total)
}

func isSkinTone(red, green, blue int) bool {
	diff := red - green
	if diff < 0 {
		diff = -diff
	}
	return red > 60 && green > 20 && blue > 10 &&
		red > green && red > blue && diff > 5
}
