// Package preferences renders the options form. Numeric fields are checked
// against their documented ranges on save; a rejected record is never
// partially applied.
package preferences

import (
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"gazeguard/internal/core/model"
)

// Window handles the preferences UI.
type Window struct {
	window   fyne.Window
	settings model.Settings
	onSave   func(model.Settings)

	enabled       *widget.Check
	breaksEnabled *widget.Check
	interval      *widget.Entry
	duration      *widget.Entry
	snooze        *widget.Entry
	proximity     *widget.Check
	period        *widget.Entry
	sensitivity   *widget.Entry
	opacity       *widget.Slider
	fullscreen    *widget.Check
	launch        *widget.Check
	errorLabel    *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings model.Settings, onSave func(model.Settings)) *Window {
	window := app.NewWindow("GazeGuard Settings")

	prefs := &Window{
		window:   window,
		settings: settings,
		onSave:   onSave,

		enabled:       widget.NewCheck("Enable GazeGuard", nil),
		breaksEnabled: widget.NewCheck("Break reminders", nil),
		interval:      widget.NewEntry(),
		duration:      widget.NewEntry(),
		snooze:        widget.NewEntry(),
		proximity:     widget.NewCheck("Camera proximity warnings", nil),
		period:        widget.NewEntry(),
		sensitivity:   widget.NewEntry(),
		opacity:       widget.NewSlider(0.7, 0.95),
		fullscreen:    widget.NewCheck("Fullscreen overlay", nil),
		launch:        widget.NewCheck("Launch at login", nil),
		errorLabel:    widget.NewLabel(""),
	}
	prefs.opacity.Step = 0.01
	prefs.errorLabel.Wrapping = fyne.TextWrapWord
	prefs.errorLabel.Importance = widget.DangerImportance
	prefs.applySettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("General", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.enabled,
		prefs.breaksEnabled,
		container.NewHBox(widget.NewLabel("Break every"), prefs.interval, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Break length"), prefs.duration, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Snooze for"), prefs.snooze, widget.NewLabel("min")),
		widget.NewLabelWithStyle("Proximity", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		prefs.proximity,
		container.NewHBox(widget.NewLabel("Check every"), prefs.period, widget.NewLabel("sec")),
		container.NewHBox(widget.NewLabel("Sensitivity"), prefs.sensitivity, widget.NewLabel("(1.1-2.0)")),
		widget.NewLabelWithStyle("Appearance", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Overlay opacity"),
		prefs.opacity,
		prefs.fullscreen,
		prefs.launch,
		prefs.errorLabel,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		prefs.applySettings(prefs.settings)
		prefs.errorLabel.SetText("")
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(440, 560))
	window.SetCloseIntercept(func() {
		window.Hide()
	})

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings model.Settings) {
	prefs.settings = settings
	prefs.applySettings(settings)
}

func (prefs *Window) applySettings(settings model.Settings) {
	prefs.enabled.SetChecked(settings.Enabled)
	prefs.breaksEnabled.SetChecked(settings.BreaksEnabled)
	prefs.interval.SetText(strconv.Itoa(settings.BreakIntervalMinutes))
	prefs.duration.SetText(strconv.Itoa(settings.BreakDurationSeconds))
	prefs.snooze.SetText(strconv.Itoa(settings.SnoozeMinutes))
	prefs.proximity.SetChecked(settings.ProximityEnabled)
	prefs.period.SetText(strconv.Itoa(settings.ProximityPeriodSeconds))
	prefs.sensitivity.SetText(strconv.FormatFloat(settings.Sensitivity, 'f', -1, 64))
	prefs.opacity.Value = settings.OverlayOpacity
	prefs.opacity.Refresh()
	prefs.fullscreen.SetChecked(settings.FullscreenOverlay)
	prefs.launch.SetChecked(settings.LaunchAtLogin)
}

func (prefs *Window) handleSave() {
	candidate := prefs.settings
	var parseErrors []model.FieldError

	readInt := func(field string, entry *widget.Entry, target *int) {
		value, err := strconv.Atoi(strings.TrimSpace(entry.Text))
		if err != nil {
			parseErrors = append(parseErrors, model.FieldError{Field: field, Message: "must be a whole number"})
			return
		}
		*target = value
	}

	readInt("breakIntervalMinutes", prefs.interval, &candidate.BreakIntervalMinutes)
	readInt("breakDurationSeconds", prefs.duration, &candidate.BreakDurationSeconds)
	readInt("snoozeMinutes", prefs.snooze, &candidate.SnoozeMinutes)
	readInt("proximityPeriodSeconds", prefs.period, &candidate.ProximityPeriodSeconds)

	if value, err := strconv.ParseFloat(strings.TrimSpace(prefs.sensitivity.Text), 64); err != nil {
		parseErrors = append(parseErrors, model.FieldError{Field: "sensitivity", Message: "must be a number"})
	} else {
		candidate.Sensitivity = value
	}

	candidate.Enabled = prefs.enabled.Checked
	candidate.BreaksEnabled = prefs.breaksEnabled.Checked
	candidate.ProximityEnabled = prefs.proximity.Checked
	candidate.OverlayOpacity = prefs.opacity.Value
	candidate.FullscreenOverlay = prefs.fullscreen.Checked
	candidate.LaunchAtLogin = prefs.launch.Checked

	violations := append(parseErrors, candidate.Validate()...)
	if len(violations) > 0 {
		prefs.errorLabel.SetText(violationSummary(violations))
		return
	}

	prefs.errorLabel.SetText("")
	prefs.settings = candidate
	if prefs.onSave != nil {
		prefs.onSave(candidate)
	}
	prefs.window.Hide()
}

func violationSummary(violations []model.FieldError) string {
	lines := make([]string, 0, len(violations))
	for _, violation := range violations {
		lines = append(lines, fmt.Sprintf("%s %s", violation.Field, violation.Message))
	}
	return strings.Join(lines, "\n")
}
