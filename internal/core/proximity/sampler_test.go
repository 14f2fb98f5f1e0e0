package proximity

import (
	"errors"
	"testing"
	"time"

	"gazeguard/internal/core/link"
	"gazeguard/internal/core/model"
)

type fakeGrabber struct {
	frames   []Frame
	index    int
	err      error
	grabs    int
	releases int
}

func (grabber *fakeGrabber) Grab() (Frame, error) {
	grabber.grabs++
	if grabber.err != nil {
		return Frame{}, grabber.err
	}
	if len(grabber.frames) == 0 {
		return buildFrame([]bool{true, true, false, false}), nil
	}
	frame := grabber.frames[grabber.index]
	if grabber.index < len(grabber.frames)-1 {
		grabber.index++
	}
	return frame, nil
}

func (grabber *fakeGrabber) Release() error {
	grabber.releases++
	return nil
}

// fakeRemote stands in for the coordinator side of the link.
type fakeRemote struct {
	sensitivity float64
	calibration model.Calibration
	found       bool
	puts        []model.Calibration
	clears      int
}

func (remote *fakeRemote) handle(request link.Request) link.Response {
	switch request.Kind {
	case link.KindGetSensitivity:
		return link.Response{Sensitivity: remote.sensitivity}
	case link.KindGetCalibration:
		return link.Response{Calibration: remote.calibration, Found: remote.found}
	case link.KindPutCalibration:
		remote.puts = append(remote.puts, request.Calibration)
		remote.calibration = request.Calibration
		remote.found = true
		return link.Response{}
	case link.KindClearCalibration:
		remote.clears++
		remote.found = false
		return link.Response{}
	default:
		return link.Response{Err: errors.New("unexpected kind")}
	}
}

func newTestSampler(t *testing.T, grabber FrameGrabber, remote *fakeRemote) (*Sampler, *int) {
	t.Helper()
	bridge := link.New(4)
	stop := make(chan struct{})
	go bridge.Serve(stop, remote.handle)
	t.Cleanup(func() { close(stop) })

	warnings := 0
	sampler := New(grabber, bridge, nil, func() { warnings++ })
	return sampler, &warnings
}

// frameWithRatio builds a frame whose sampled skin fraction is quarters/4.
func frameWithRatio(quarters int) Frame {
	sampled := make([]bool, 4)
	for index := 0; index < quarters; index++ {
		sampled[index] = true
	}
	return buildFrame(sampled)
}

func TestCalibrationIsMeanOfFiveSamples(t *testing.T) {
	grabber := &fakeGrabber{frames: []Frame{
		frameWithRatio(0), // 0.00
		frameWithRatio(1), // 0.25
		frameWithRatio(2), // 0.50
		frameWithRatio(3), // 0.75
		frameWithRatio(4), // 1.00
	}}
	remote := &fakeRemote{sensitivity: 1.5}
	sampler, _ := newTestSampler(t, grabber, remote)

	now := time.Now()
	for sample := 0; sample < CalibrationSamples; sample++ {
		sampler.handleSample(now.Add(time.Duration(sample) * 3 * time.Second))
	}

	if !sampler.calibrated {
		t.Fatalf("expected calibration after %d samples", CalibrationSamples)
	}
	if sampler.baseline.BaselineFaceSize != 0.5 {
		t.Errorf("expected baseline 0.5, got %g", sampler.baseline.BaselineFaceSize)
	}
	if len(remote.puts) != 1 {
		t.Errorf("baseline should be persisted once, got %d", len(remote.puts))
	}

	// A sixth sample must not alter the baseline.
	sampler.handleSample(now.Add(time.Minute))
	if sampler.baseline.BaselineFaceSize != 0.5 {
		t.Errorf("sixth sample changed the baseline to %g", sampler.baseline.BaselineFaceSize)
	}
}

func TestSampleFloorSkipsRapidRequests(t *testing.T) {
	grabber := &fakeGrabber{}
	sampler, _ := newTestSampler(t, grabber, &fakeRemote{sensitivity: 1.5})

	now := time.Now()
	sampler.handleSample(now)
	sampler.handleSample(now.Add(time.Second))

	if grabber.grabs != 1 {
		t.Errorf("second sample within the floor should be skipped, grabs = %d", grabber.grabs)
	}

	sampler.handleSample(now.Add(3 * time.Second))
	if grabber.grabs != 2 {
		t.Errorf("sample past the floor should run, grabs = %d", grabber.grabs)
	}
}

func TestWarningAboveThreshold(t *testing.T) {
	// Baseline 0.25; a full-skin frame gives ratio 1.0/0.25 = 4.0,
	// well past 0.7 * 1.5.
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(4)}}
	remote := &fakeRemote{sensitivity: 1.5}
	sampler, warnings := newTestSampler(t, grabber, remote)
	sampler.loaded = true
	sampler.calibrated = true
	sampler.baseline = model.Calibration{BaselineFaceSize: 0.25, Timestamp: time.Now()}

	sampler.handleSample(time.Now())

	if *warnings != 1 {
		t.Errorf("expected one warning, got %d", *warnings)
	}
}

func TestNoWarningAtExactThreshold(t *testing.T) {
	// Sample ratio 0.5 against baseline 0.5 gives proximity 1.0; with
	// sensitivity such that 0.7*s == 1.0 the comparison is strictly
	// greater-than, so no warning fires.
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(2)}}
	remote := &fakeRemote{sensitivity: 1.0 / thresholdBase}
	sampler, warnings := newTestSampler(t, grabber, remote)
	sampler.loaded = true
	sampler.calibrated = true
	sampler.baseline = model.Calibration{BaselineFaceSize: 0.5, Timestamp: time.Now()}

	sampler.handleSample(time.Now())

	if *warnings != 0 {
		t.Errorf("boundary ratio must not warn, got %d warnings", *warnings)
	}
}

func TestPersistentClosePostureRewarnsEverySample(t *testing.T) {
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(4)}}
	remote := &fakeRemote{sensitivity: 1.5}
	sampler, warnings := newTestSampler(t, grabber, remote)
	sampler.loaded = true
	sampler.calibrated = true
	sampler.baseline = model.Calibration{BaselineFaceSize: 0.25, Timestamp: time.Now()}

	now := time.Now()
	sampler.handleSample(now)
	sampler.handleSample(now.Add(3 * time.Second))
	sampler.handleSample(now.Add(6 * time.Second))

	if *warnings != 3 {
		t.Errorf("expected a warning per sample, got %d", *warnings)
	}
}

func TestExpiredCalibrationRestartsAccumulation(t *testing.T) {
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(2)}}
	remote := &fakeRemote{sensitivity: 1.5}
	sampler, _ := newTestSampler(t, grabber, remote)
	sampler.loaded = true
	sampler.calibrated = true
	sampler.baseline = model.Calibration{
		BaselineFaceSize: 0.5,
		Timestamp:        time.Now().Add(-25 * time.Hour),
	}

	now := time.Now()
	sampler.handleSample(now)

	if sampler.calibrated {
		t.Errorf("expired baseline should be dropped")
	}
	if len(sampler.accumulator) != 0 {
		t.Errorf("accumulation should restart from empty, got %d entries", len(sampler.accumulator))
	}
	if remote.clears != 1 {
		t.Errorf("persisted stale baseline should be cleared, got %d clears", remote.clears)
	}

	sampler.handleSample(now.Add(3 * time.Second))
	if len(sampler.accumulator) != 1 {
		t.Errorf("next sample should start accumulating, got %d", len(sampler.accumulator))
	}
}

func TestStoredCalibrationLoadedOnFirstSample(t *testing.T) {
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(4)}}
	remote := &fakeRemote{
		sensitivity: 1.5,
		found:       true,
		calibration: model.Calibration{BaselineFaceSize: 0.25, Timestamp: time.Now()},
	}
	sampler, warnings := newTestSampler(t, grabber, remote)

	sampler.handleSample(time.Now())

	if !sampler.calibrated {
		t.Fatalf("stored baseline should be adopted")
	}
	if *warnings != 1 {
		t.Errorf("adopted baseline should drive the check, got %d warnings", *warnings)
	}
}

func TestStoredExpiredCalibrationTreatedAsAbsent(t *testing.T) {
	grabber := &fakeGrabber{frames: []Frame{frameWithRatio(2)}}
	remote := &fakeRemote{
		sensitivity: 1.5,
		found:       true,
		calibration: model.Calibration{BaselineFaceSize: 0.25, Timestamp: time.Now().Add(-25 * time.Hour)},
	}
	sampler, _ := newTestSampler(t, grabber, remote)

	sampler.handleSample(time.Now())

	if sampler.calibrated {
		t.Errorf("expired stored baseline must not be adopted")
	}
	if remote.clears != 1 {
		t.Errorf("expired stored baseline should be cleared, got %d", remote.clears)
	}
	if len(sampler.accumulator) != 1 {
		t.Errorf("sample should start a fresh accumulation, got %d", len(sampler.accumulator))
	}
}

func TestResetClearsCalibration(t *testing.T) {
	remote := &fakeRemote{sensitivity: 1.5, found: true}
	sampler, _ := newTestSampler(t, &fakeGrabber{}, remote)
	sampler.calibrated = true
	sampler.accumulator = []float64{0.1, 0.2}
	sampler.baseline = model.Calibration{BaselineFaceSize: 0.4, Timestamp: time.Now()}

	sampler.handleReset()

	if sampler.calibrated || len(sampler.accumulator) != 0 {
		t.Errorf("reset should clear in-memory calibration state")
	}
	if remote.clears != 1 {
		t.Errorf("reset should clear the persisted baseline, got %d", remote.clears)
	}
}

func TestCameraFailureSurfacesAsStatus(t *testing.T) {
	grabber := &fakeGrabber{err: errors.New("device busy")}
	sampler, warnings := newTestSampler(t, grabber, &fakeRemote{sensitivity: 1.5})

	sampler.handleSample(time.Now())

	if *warnings != 0 {
		t.Errorf("camera failure must not warn")
	}
	status := sampler.Status()
	if status == "" || status == "idle" {
		t.Errorf("camera failure should surface in status, got %q", status)
	}
}

func TestSensitivityFallsBackOnHandlerError(t *testing.T) {
	bridge := link.New(1)
	stop := make(chan struct{})
	go bridge.Serve(stop, func(link.Request) link.Response {
		return link.Response{Err: errors.New("settings unavailable")}
	})
	t.Cleanup(func() { close(stop) })

	sampler := New(&fakeGrabber{}, bridge, nil, nil)
	if got := sampler.sensitivity(); got != DefaultSensitivity {
		t.Errorf("expected default sensitivity %g, got %g", DefaultSensitivity, got)
	}
}

func TestReleaseFreesCamera(t *testing.T) {
	grabber := &fakeGrabber{}
	sampler, _ := newTestSampler(t, grabber, &fakeRemote{sensitivity: 1.5})

	sampler.releaseCamera()

	if grabber.releases != 1 {
		t.Errorf("expected camera release, got %d", grabber.releases)
	}
}
