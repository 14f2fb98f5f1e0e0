package platform

import (
	"os"

	"gazeguard/internal/core/proximity"
)

func newFrameGrabber() proximity.FrameGrabber {
	device := os.Getenv("GAZEGUARD_CAMERA")
	if device == "" {
		device = "0"
	}
	return &ffmpegGrabber{format: "avfoundation", input: device}
}
