package model

import "time"

// CalibrationTTL is how long a stored baseline stays usable. Anything older
// is treated as absent and recomputed.
const CalibrationTTL = 24 * time.Hour

// Calibration is the proximity baseline established during the calibration
// phase.
type Calibration struct {
	BaselineFaceSize float64
	Timestamp        time.Time
}

// Expired reports whether the baseline is older than the validity window.
func (calibration Calibration) Expired(now time.Time) bool {
	return now.Sub(calibration.Timestamp) > CalibrationTTL
}
