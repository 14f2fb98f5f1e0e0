package platform

import (
	"os"

	"gazeguard/internal/core/proximity"
)

const defaultVideoDevice = "/dev/video0"

func newFrameGrabber() proximity.FrameGrabber {
	device := os.Getenv("GAZEGUARD_CAMERA")
	if device == "" {
		device = defaultVideoDevice
	}
	return &ffmpegGrabber{format: "v4l2", input: device}
}
