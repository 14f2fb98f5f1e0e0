package model

import "fmt"

// Settings defines user-editable tunables.
type Settings struct {
	Enabled       bool
	BreaksEnabled bool

	BreakIntervalMinutes int
	BreakDurationSeconds int
	SnoozeMinutes        int

	ProximityEnabled       bool
	ProximityPeriodSeconds int
	Sensitivity            float64

	OverlayOpacity    float64
	FullscreenOverlay bool
	LaunchAtLogin     bool
}

// Numeric validation ranges. Values outside these bounds are rejected,
// never clamped.
const (
	MinBreakIntervalMinutes = 5
	MaxBreakIntervalMinutes = 120

	MinBreakDurationSeconds = 10
	MaxBreakDurationSeconds = 300

	MinSnoozeMinutes = 1
	MaxSnoozeMinutes = 60

	MinProximityPeriodSeconds = 10
	MaxProximityPeriodSeconds = 300

	MinSensitivity = 1.1
	MaxSensitivity = 2.0
)

// DefaultSettings returns default settings for GazeGuard.
func DefaultSettings() Settings {
	return Settings{
		Enabled:       true,
		BreaksEnabled: true,

		BreakIntervalMinutes: 20,
		BreakDurationSeconds: 20,
		SnoozeMinutes:        5,

		ProximityEnabled:       false,
		ProximityPeriodSeconds: 30,
		Sensitivity:            1.5,

		OverlayOpacity:    0.85,
		FullscreenOverlay: true,
		LaunchAtLogin:     false,
	}
}

// FieldError describes a single violated settings constraint.
type FieldError struct {
	Field   string
	Message string
}

func (violation FieldError) Error() string {
	return fmt.Sprintf("%s: %s", violation.Field, violation.Message)
}

// Validate checks every numeric field against its documented range and
// returns the full list of violations. An empty list means the record may
// be persisted as-is; a non-empty list means the whole update is rejected.
func (settings Settings) Validate() []FieldError {
	var violations []FieldError

	checkInt := func(field string, value, min, max int) {
		if value < min || value > max {
			violations = append(violations, FieldError{
				Field:   field,
				Message: fmt.Sprintf("must be between %d and %d, got %d", min, max, value),
			})
		}
	}

	checkInt("breakIntervalMinutes", settings.BreakIntervalMinutes, MinBreakIntervalMinutes, MaxBreakIntervalMinutes)
	checkInt("breakDurationSeconds", settings.BreakDurationSeconds, MinBreakDurationSeconds, MaxBreakDurationSeconds)
	checkInt("snoozeMinutes", settings.SnoozeMinutes, MinSnoozeMinutes, MaxSnoozeMinutes)
	checkInt("proximityPeriodSeconds", settings.ProximityPeriodSeconds, MinProximityPeriodSeconds, MaxProximityPeriodSeconds)

	if settings.Sensitivity < MinSensitivity || settings.Sensitivity > MaxSensitivity {
		violations = append(violations, FieldError{
			Field:   "sensitivity",
			Message: fmt.Sprintf("must be between %.1f and %.1f, got %g", MinSensitivity, MaxSensitivity, settings.Sensitivity),
		})
	}

	return violations
}
