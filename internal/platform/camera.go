package platform

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os/exec"
	"sync"

	"gazeguard/internal/core/proximity"
)

// ErrCameraUnsupported indicates no camera capture path exists on this system.
var ErrCameraUnsupported = errors.New("camera capture unsupported")

// NewFrameGrabber returns a platform-specific camera grabber. The camera is
// acquired lazily on the first Grab; Release drops the handle so the next
// Grab reacquires from scratch.
func NewFrameGrabber() proximity.FrameGrabber {
	return newFrameGrabber()
}

// ffmpegGrabber shells out to ffmpeg for single-frame captures, the same way
// the idle provider shells out to xprintidle. One process per sample keeps
// the device closed between samples.
type ffmpegGrabber struct {
	mu     sync.Mutex
	binary string
	format string
	input  string
}

func (grabber *ffmpegGrabber) Grab() (proximity.Frame, error) {
	grabber.mu.Lock()
	defer grabber.mu.Unlock()

	if grabber.binary == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return proximity.Frame{}, fmt.Errorf("locate ffmpeg: %w", err)
		}
		grabber.binary = path
	}

	command := exec.Command(grabber.binary,
		"-hide_banner", "-loglevel", "error",
		"-f", grabber.format,
		"-i", grabber.input,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	output, err := command.Output()
	if err != nil {
		return proximity.Frame{}, fmt.Errorf("capture frame from %s: %w", grabber.input, err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(output))
	if err != nil {
		return proximity.Frame{}, fmt.Errorf("decode captured frame: %w", err)
	}
	return proximity.FromImage(decoded), nil
}

func (grabber *ffmpegGrabber) Release() error {
	grabber.mu.Lock()
	grabber.binary = ""
	grabber.mu.Unlock()
	return nil
}

type unsupportedGrabber struct{}

func (unsupportedGrabber) Grab() (proximity.Frame, error) {
	return proximity.Frame{}, ErrCameraUnsupported
}

func (unsupportedGrabber) Release() error {
	return nil
}
