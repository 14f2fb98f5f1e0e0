package platform

import (
	"os"

	"gazeguard/internal/core/proximity"
)

// DirectShow needs an explicit device name, so Windows capture works only
// when the user names the camera (e.g. GAZEGUARD_CAMERA="Integrated Camera").
func newFrameGrabber() proximity.FrameGrabber {
	device := os.Getenv("GAZEGUARD_CAMERA")
	if device == "" {
		return unsupportedGrabber{}
	}
	return &ffmpegGrabber{format: "dshow", input: "video=" + device}
}
