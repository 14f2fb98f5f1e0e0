package storage

import (
	"path/filepath"
	"testing"
	"time"

	"gazeguard/internal/core/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return OpenPath(filepath.Join(t.TempDir(), "state.yaml"))
}

func TestSettingsAbsentOnFreshStore(t *testing.T) {
	store := tempStore(t)

	settings, found, err := store.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if found {
		t.Errorf("fresh store should have no settings")
	}
	if settings.BreakIntervalMinutes != model.DefaultSettings().BreakIntervalMinutes {
		t.Errorf("fresh store should fall back to defaults")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := tempStore(t)

	saved := model.DefaultSettings()
	saved.BreakIntervalMinutes = 45
	saved.ProximityEnabled = true
	saved.Sensitivity = 1.7
	if err := store.SaveSettings(saved); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	loaded, found, err := store.Settings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if !found {
		t.Fatalf("settings should be present after save")
	}
	if loaded != saved {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", saved, loaded)
	}
}

func TestActiveMinutesRoundTrip(t *testing.T) {
	store := tempStore(t)

	if _, found, _ := store.ActiveMinutes(); found {
		t.Errorf("fresh store should have no active minutes")
	}
	if err := store.SaveActiveMinutes(17); err != nil {
		t.Fatalf("save active minutes: %v", err)
	}

	minutes, found, err := store.ActiveMinutes()
	if err != nil {
		t.Fatalf("load active minutes: %v", err)
	}
	if !found || minutes != 17 {
		t.Errorf("expected 17, got %d (found=%v)", minutes, found)
	}

	// Zero is a meaningful persisted value, not absence.
	if err := store.SaveActiveMinutes(0); err != nil {
		t.Fatalf("save zero: %v", err)
	}
	minutes, found, _ = store.ActiveMinutes()
	if !found || minutes != 0 {
		t.Errorf("expected persisted 0, got %d (found=%v)", minutes, found)
	}
}

func TestCalibrationRoundTripAndClear(t *testing.T) {
	store := tempStore(t)

	calibration := model.Calibration{
		BaselineFaceSize: 0.42,
		Timestamp:        time.Now().Truncate(time.Second),
	}
	if err := store.SaveCalibration(calibration); err != nil {
		t.Fatalf("save calibration: %v", err)
	}

	loaded, found, err := store.Calibration()
	if err != nil {
		t.Fatalf("load calibration: %v", err)
	}
	if !found {
		t.Fatalf("calibration should be present")
	}
	if loaded.BaselineFaceSize != calibration.BaselineFaceSize {
		t.Errorf("baseline mismatch: %g", loaded.BaselineFaceSize)
	}
	if !loaded.Timestamp.Equal(calibration.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", loaded.Timestamp, calibration.Timestamp)
	}

	if err := store.ClearCalibration(); err != nil {
		t.Fatalf("clear calibration: %v", err)
	}
	if _, found, _ := store.Calibration(); found {
		t.Errorf("calibration should be gone after clear")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	store := tempStore(t)

	if err := store.SaveActiveMinutes(9); err != nil {
		t.Fatalf("save active minutes: %v", err)
	}
	settings := model.DefaultSettings()
	settings.SnoozeMinutes = 10
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	minutes, found, _ := store.ActiveMinutes()
	if !found || minutes != 9 {
		t.Errorf("settings write clobbered active minutes: %d (found=%v)", minutes, found)
	}
	loaded, found, _ := store.Settings()
	if !found || loaded.SnoozeMinutes != 10 {
		t.Errorf("active-minutes write clobbered settings: %+v", loaded)
	}
}
