package proximity

import "testing"

func TestSkinToneClassifier(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		skin    bool
	}{
		{"typical skin tone", 200, 120, 80, true},
		{"just inside all bounds", 61, 21, 11, true},
		{"red channel too low", 60, 21, 11, false},
		{"green channel too low", 200, 20, 11, false},
		{"blue channel too low", 200, 120, 10, false},
		{"green dominates red", 100, 110, 50, false},
		{"blue dominates red", 100, 50, 110, false},
		{"red green too close", 100, 96, 50, false},
		{"pure blue", 0, 0, 255, false},
		{"white", 255, 255, 255, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSkinTone(tt.r, tt.g, tt.b); got != tt.skin {
				t.Errorf("isSkinTone(%d,%d,%d) = %v, expected %v", tt.r, tt.g, tt.b, got, tt.skin)
			}
		})
	}
}

// buildFrame lays out one examined pixel per entry: the grid visits every
// 16th pixel, so entry i lands at pixel i*16.
func buildFrame(sampled []bool) Frame {
	pixelCount := len(sampled) * 16
	pix := make([]byte, pixelCount*4)
	for pixel := 0; pixel < pixelCount; pixel++ {
		offset := pixel * 4
		pix[offset], pix[offset+1], pix[offset+2], pix[offset+3] = 10, 10, 200, 255
	}
	for index, skin := range sampled {
		if skin {
			offset := index * 16 * 4
			pix[offset], pix[offset+1], pix[offset+2] = 200, 120, 80
		}
	}
	return Frame{Pix: pix, Width: pixelCount, Height: 1}
}

func TestSkinRatio(t *testing.T) {
	tests := []struct {
		name     string
		sampled  []bool
		expected float64
	}{
		{"no skin", []bool{false, false, false, false}, 0},
		{"all skin", []bool{true, true, true, true}, 1},
		{"half skin", []bool{true, false, true, false}, 0.5},
		{"quarter skin", []bool{true, false, false, false}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SkinRatio(buildFrame(tt.sampled)); got != tt.expected {
				t.Errorf("expected ratio %g, got %g", tt.expected, got)
			}
		})
	}
}

func TestSkinRatioIgnoresOffGridPixels(t *testing.T) {
	frame := buildFrame([]bool{false, false, false, false})
	// Paint every off-grid pixel skin-tone; the sampled ratio must stay 0.
	pixelCount := len(frame.Pix) / 4
	for pixel := 0; pixel < pixelCount; pixel++ {
		if pixel%16 == 0 {
			continue
		}
		offset := pixel * 4
		frame.Pix[offset], frame.Pix[offset+1], frame.Pix[offset+2] = 200, 120, 80
	}

	if got := SkinRatio(frame); got != 0 {
		t.Errorf("off-grid pixels leaked into the ratio: %g", got)
	}
}

func TestSkinRatioEmptyFrame(t *testing.T) {
	if got := SkinRatio(Frame{}); got != 0 {
		t.Errorf("empty frame should yield 0, got %g", got)
	}
}
