package model

import (
	"testing"
	"time"
)

func TestCalibrationExpiry(t *testing.T) {
	now := time.Now()

	fresh := Calibration{BaselineFaceSize: 0.4, Timestamp: now.Add(-time.Hour)}
	if fresh.Expired(now) {
		t.Errorf("one hour old calibration should be valid")
	}

	stale := Calibration{BaselineFaceSize: 0.4, Timestamp: now.Add(-25 * time.Hour)}
	if !stale.Expired(now) {
		t.Errorf("25 hour old calibration should be expired")
	}
}
