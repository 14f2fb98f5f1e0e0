// Package storage persists GazeGuard state as a single YAML document under
// the user config directory. Each top-level key is independent; writes are
// read-modify-write of the document and last-write-wins per key.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"gazeguard/internal/core/model"
)

const stateFileName = "state.yaml"

type settingsDoc struct {
	Enabled                bool    `yaml:"enabled"`
	BreaksEnabled          bool    `yaml:"breaks_enabled"`
	BreakIntervalMinutes   int     `yaml:"break_interval_minutes"`
	BreakDurationSeconds   int     `yaml:"break_duration_seconds"`
	SnoozeMinutes          int     `yaml:"snooze_minutes"`
	ProximityEnabled       bool    `yaml:"proximity_enabled"`
	ProximityPeriodSeconds int     `yaml:"proximity_period_seconds"`
	Sensitivity            float64 `yaml:"sensitivity"`
	OverlayOpacity         float64 `yaml:"overlay_opacity"`
	FullscreenOverlay      bool    `yaml:"fullscreen_overlay"`
	LaunchAtLogin          bool    `yaml:"launch_at_login"`
}

type calibrationDoc struct {
	BaselineFaceSize float64   `yaml:"baseline_face_size"`
	Timestamp        time.Time `yaml:"timestamp"`
}

type document struct {
	ActiveMinutes *int            `yaml:"active_minutes,omitempty"`
	Settings      *settingsDoc    `yaml:"settings,omitempty"`
	Calibration   *calibrationDoc `yaml:"calibration,omitempty"`
}

// Store is a small key-value file holding settings, the persisted
// active-minute counter, and the proximity calibration.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open resolves the state file path for the application.
func Open(appName string) (*Store, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user config dir: %w", err)
	}
	return OpenPath(filepath.Join(configDir, appName, stateFileName)), nil
}

// OpenPath creates a store backed by an explicit file path.
func OpenPath(path string) *Store {
	return &Store{path: path}
}

// Settings loads the persisted settings record. The second return is false
// when no record has been written yet.
func (store *Store) Settings() (model.Settings, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	doc, err := store.readLocked()
	if err != nil {
		return model.DefaultSettings(), false, err
	}
	if doc.Settings == nil {
		return model.DefaultSettings(), false, nil
	}
	return settingsFromDoc(*doc.Settings), true, nil
}

// SaveSettings replaces the persisted settings record wholesale.
func (store *Store) SaveSettings(settings model.Settings) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.updateLocked(func(doc *document) {
		converted := settingsToDoc(settings)
		doc.Settings = &converted
	})
}

// ActiveMinutes loads the persisted active-minute counter.
func (store *Store) ActiveMinutes() (int, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	doc, err := store.readLocked()
	if err != nil {
		return 0, false, err
	}
	if doc.ActiveMinutes == nil {
		return 0, false, nil
	}
	return *doc.ActiveMinutes, true, nil
}

// SaveActiveMinutes persists the active-minute counter.
func (store *Store) SaveActiveMinutes(minutes int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.updateLocked(func(doc *document) {
		doc.ActiveMinutes = &minutes
	})
}

// Calibration loads the persisted proximity baseline.
func (store *Store) Calibration() (model.Calibration, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	doc, err := store.readLocked()
	if err != nil {
		return model.Calibration{}, false, err
	}
	if doc.Calibration == nil {
		return model.Calibration{}, false, nil
	}
	return model.Calibration{
		BaselineFaceSize: doc.Calibration.BaselineFaceSize,
		Timestamp:        doc.Calibration.Timestamp,
	}, true, nil
}

// SaveCalibration persists the proximity baseline.
func (store *Store) SaveCalibration(calibration model.Calibration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.updateLocked(func(doc *document) {
		doc.Calibration = &calibrationDoc{
			BaselineFaceSize: calibration.BaselineFaceSize,
			Timestamp:        calibration.Timestamp,
		}
	})
}

// ClearCalibration removes the persisted baseline.
func (store *Store) ClearCalibration() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	return store.updateLocked(func(doc *document) {
		doc.Calibration = nil
	})
}

func (store *Store) readLocked() (document, error) {
	var doc document
	rawData, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(rawData, &doc); err != nil {
		return document{}, fmt.Errorf("parse state yaml: %w", err)
	}
	return doc, nil
}

func (store *Store) updateLocked(mutate func(*document)) error {
	doc, err := store.readLocked()
	if err != nil {
		return err
	}
	mutate(&doc)

	serialized, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal state yaml: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(store.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func settingsFromDoc(doc settingsDoc) model.Settings {
	settings := model.Settings{
		Enabled:                doc.Enabled,
		BreaksEnabled:          doc.BreaksEnabled,
		BreakIntervalMinutes:   doc.BreakIntervalMinutes,
		BreakDurationSeconds:   doc.BreakDurationSeconds,
		SnoozeMinutes:          doc.SnoozeMinutes,
		ProximityEnabled:       doc.ProximityEnabled,
		ProximityPeriodSeconds: doc.ProximityPeriodSeconds,
		Sensitivity:            doc.Sensitivity,
		OverlayOpacity:         doc.OverlayOpacity,
		FullscreenOverlay:      doc.FullscreenOverlay,
		LaunchAtLogin:          doc.LaunchAtLogin,
	}
	// A record written by an older build may miss newer numeric fields;
	// fall back to defaults rather than persisting zeros.
	defaults := model.DefaultSettings()
	if settings.BreakIntervalMinutes == 0 {
		settings.BreakIntervalMinutes = defaults.BreakIntervalMinutes
	}
	if settings.BreakDurationSeconds == 0 {
		settings.BreakDurationSeconds = defaults.BreakDurationSeconds
	}
	if settings.SnoozeMinutes == 0 {
		settings.SnoozeMinutes = defaults.SnoozeMinutes
	}
	if settings.ProximityPeriodSeconds == 0 {
		settings.ProximityPeriodSeconds = defaults.ProximityPeriodSeconds
	}
	if settings.Sensitivity == 0 {
		settings.Sensitivity = defaults.Sensitivity
	}
	if settings.OverlayOpacity == 0 {
		settings.OverlayOpacity = defaults.OverlayOpacity
	}
	return settings
}

func settingsToDoc(settings model.Settings) settingsDoc {
	return settingsDoc{
		Enabled:                settings.Enabled,
		BreaksEnabled:          settings.BreaksEnabled,
		BreakIntervalMinutes:   settings.BreakIntervalMinutes,
		BreakDurationSeconds:   settings.BreakDurationSeconds,
		SnoozeMinutes:          settings.SnoozeMinutes,
		ProximityEnabled:       settings.ProximityEnabled,
		ProximityPeriodSeconds: settings.ProximityPeriodSeconds,
		Sensitivity:            settings.Sensitivity,
		OverlayOpacity:         settings.OverlayOpacity,
		FullscreenOverlay:      settings.FullscreenOverlay,
		LaunchAtLogin:          settings.LaunchAtLogin,
	}
}
