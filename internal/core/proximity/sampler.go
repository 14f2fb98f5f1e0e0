// Package proximity implements the camera-based too-close heuristic. The
// sampler runs on its own loop, isolated from the coordinator: it owns the
// camera and the calibration data, and everything else (sensitivity,
// calibration persistence) is requested over the link with a deadline.
package proximity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"gazeguard/internal/core/link"
	"gazeguard/internal/core/model"
)

const (
	// MinSampleInterval is a hard floor between samples regardless of the
	// configured cadence, bounding camera and CPU load.
	MinSampleInterval = 2 * time.Second

	// CalibrationSamples is how many consecutive successful samples form
	// the baseline.
	CalibrationSamples = 5

	// DefaultSensitivity is used when the settings read-through stalls.
	DefaultSensitivity = 1.5

	thresholdBase   = 0.7
	settingsTimeout = time.Second
)

// FrameGrabber captures camera frames. Grab acquires the camera lazily on
// first use; Release must free it.
type FrameGrabber interface {
	Grab() (Frame, error)
	Release() error
}

type command int

const (
	commandSample command = iota
	commandReset
	commandRelease
)

// Sampler accumulates a calibration baseline and flags samples that cross
// the sensitivity-scaled threshold.
type Sampler struct {
	grabber   FrameGrabber
	bridge    *link.Link
	logger    *zap.Logger
	onWarning func()

	commands chan command
	stopCh   chan struct{}

	mu      sync.Mutex
	running bool
	status  string

	// Loop-owned state; never touched outside the loop goroutine.
	accumulator []float64
	baseline    model.Calibration
	calibrated  bool
	loaded      bool
	lastSample  time.Time
}

// New creates a Sampler. onWarning fires once per sample that crosses the
// threshold; a persistent close posture re-warns every sample.
func New(grabber FrameGrabber, bridge *link.Link, logger *zap.Logger, onWarning func()) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{
		grabber:   grabber,
		bridge:    bridge,
		logger:    logger,
		onWarning: onWarning,
		commands:  make(chan command, 1),
		stopCh:    make(chan struct{}),
		status:    "idle",
	}
}

// Start launches the sampling loop.
func (sampler *Sampler) Start() {
	sampler.mu.Lock()
	if sampler.running {
		sampler.mu.Unlock()
		return
	}
	sampler.running = true
	sampler.mu.Unlock()

	go sampler.loop()
}

// Stop terminates the loop and releases the camera.
func (sampler *Sampler) Stop() {
	sampler.mu.Lock()
	if !sampler.running {
		sampler.mu.Unlock()
		return
	}
	sampler.running = false
	sampler.mu.Unlock()
	close(sampler.stopCh)
}

// RequestSample asks for one sample. The request is dropped if a sample is
// already being processed; sample handling is never concurrent.
func (sampler *Sampler) RequestSample() {
	sampler.send(commandSample)
}

// ResetCalibration clears the in-memory accumulator and the persisted
// baseline, forcing recalibration on the next sample.
func (sampler *Sampler) ResetCalibration() {
	sampler.send(commandReset)
}

// Release frees the camera without stopping the loop. The next sample
// reacquires it.
func (sampler *Sampler) Release() {
	sampler.send(commandRelease)
}

// Status returns a short human-readable sampler state, e.g. a camera error.
func (sampler *Sampler) Status() string {
	sampler.mu.Lock()
	defer sampler.mu.Unlock()
	return sampler.status
}

func (sampler *Sampler) send(cmd command) {
	select {
	case sampler.commands <- cmd:
	default:
	}
}

func (sampler *Sampler) loop() {
	for {
		select {
		case <-sampler.stopCh:
			sampler.releaseCamera()
			return
		case cmd := <-sampler.commands:
			switch cmd {
			case commandSample:
				sampler.handleSample(time.Now())
			case commandReset:
				sampler.handleReset()
			case commandRelease:
				sampler.releaseCamera()
			}
		}
	}
}

func (sampler *Sampler) handleSample(now time.Time) {
	if !sampler.lastSample.IsZero() && now.Sub(sampler.lastSample) < MinSampleInterval {
		return
	}
	sampler.lastSample = now

	frame, err := sampler.grabber.Grab()
	if err != nil {
		sampler.setStatus("camera unavailable: " + err.Error())
		sampler.logger.Warn("grab frame", zap.Error(err))
		return
	}
	sampler.setStatus("sampling")

	ratio := SkinRatio(frame)
	sampler.ensureCalibrationLoaded(now)

	if sampler.calibrated && (sampler.baseline.Expired(now) || sampler.baseline.BaselineFaceSize <= 0) {
		// A stale baseline is treated as absent; accumulation restarts
		// from empty on the following samples.
		sampler.calibrated = false
		sampler.accumulator = nil
		sampler.clearStoredCalibration()
		return
	}

	if !sampler.calibrated {
		sampler.accumulate(ratio, now)
		return
	}

	sampler.check(ratio)
}

func (sampler *Sampler) accumulate(ratio float64, now time.Time) {
	sampler.accumulator = append(sampler.accumulator, ratio)
	if len(sampler.accumulator) < CalibrationSamples {
		sampler.setStatus("calibrating")
		return
	}

	sum := 0.0
	for _, value := range sampler.accumulator {
		sum += value
	}
	sampler.baseline = model.Calibration{
		BaselineFaceSize: sum / float64(len(sampler.accumulator)),
		Timestamp:        now,
	}
	sampler.calibrated = true
	sampler.accumulator = nil
	sampler.setStatus("calibrated")

	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()
	_, err := sampler.bridge.Call(ctx, link.Request{
		Kind:        link.KindPutCalibration,
		Calibration: sampler.baseline,
	})
	if err != nil {
		sampler.logger.Warn("persist calibration", zap.Error(err))
	}
}

func (sampler *Sampler) check(ratio float64) {
	if sampler.baseline.BaselineFaceSize <= 0 {
		return
	}
	proximity := ratio / sampler.baseline.BaselineFaceSize
	if proximity > thresholdBase*sampler.sensitivity() {
		if sampler.onWarning != nil {
			sampler.onWarning()
		}
	}
}

// sensitivity reads through to settings with a bounded wait; a stalled or
// failed read resolves to the default instead of blocking the loop.
func (sampler *Sampler) sensitivity() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()
	response, err := sampler.bridge.Call(ctx, link.Request{Kind: link.KindGetSensitivity})
	if err != nil || response.Sensitivity <= 0 {
		return DefaultSensitivity
	}
	return response.Sensitivity
}

// ensureCalibrationLoaded pulls the persisted baseline once, so calibration
// survives sampler restarts within its validity window.
func (sampler *Sampler) ensureCalibrationLoaded(now time.Time) {
	if sampler.loaded {
		return
	}
	sampler.loaded = true

	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()
	response, err := sampler.bridge.Call(ctx, link.Request{Kind: link.KindGetCalibration})
	if err != nil {
		sampler.logger.Warn("load calibration", zap.Error(err))
		return
	}
	if !response.Found {
		return
	}
	if response.Calibration.Expired(now) || response.Calibration.BaselineFaceSize <= 0 {
		sampler.clearStoredCalibration()
		return
	}
	sampler.baseline = response.Calibration
	sampler.calibrated = true
}

func (sampler *Sampler) handleReset() {
	sampler.accumulator = nil
	sampler.calibrated = false
	sampler.loaded = true
	sampler.baseline = model.Calibration{}
	sampler.clearStoredCalibration()
	sampler.setStatus("calibration reset")
}

func (sampler *Sampler) clearStoredCalibration() {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()
	if _, err := sampler.bridge.Call(ctx, link.Request{Kind: link.KindClearCalibration}); err != nil {
		sampler.logger.Warn("clear stored calibration", zap.Error(err))
	}
}

func (sampler *Sampler) releaseCamera() {
	if sampler.grabber == nil {
		return
	}
	if err := sampler.grabber.Release(); err != nil {
		sampler.logger.Warn("release camera", zap.Error(err))
	}
	sampler.setStatus("camera released")
}

func (sampler *Sampler) setStatus(status string) {
	sampler.mu.Lock()
	sampler.status = status
	sampler.mu.Unlock()
}
