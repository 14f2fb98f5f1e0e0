// Package overlay renders the break countdown on top of the user's work.
package overlay

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// Config defines overlay visuals.
type Config struct {
	Opacity    uint8
	Fullscreen bool
	Message    string
}

// Window manages the overlay UI.
type Window struct {
	app          fyne.App
	window       fyne.Window
	config       Config
	background   *canvas.Rectangle
	titleLabel   *canvas.Text
	messageLabel *canvas.Text
	timerLabel   *canvas.Text
	doneButton   *widget.Button
	snoozeButton *widget.Button
	cancelCtx    context.CancelFunc
	onDone       func()
	onSnooze     func()
}

const (
	overlayWidthFraction  = float32(0.3)
	overlayHeightFraction = float32(0.25)
	defaultScreenWidth    = float32(1920)
	defaultScreenHeight   = float32(1080)
)

type splashWindowDriver interface {
	CreateSplashWindow() fyne.Window
}

// New creates a new overlay window.
func New(app fyne.App, config Config) *Window {
	window := app.NewWindow("GazeGuard")
	if driver, ok := app.Driver().(splashWindowDriver); ok {
		// Splash window is undecorated (no native frame/buttons).
		window = driver.CreateSplashWindow()
	}
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	background := canvas.NewRectangle(color.NRGBA{R: 0, G: 0, B: 0, A: config.Opacity})

	titleLabel := canvas.NewText("GazeGuard", color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	titleLabel.TextSize = 24

	messageLabel := canvas.NewText(config.Message, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	messageLabel.Alignment = fyne.TextAlignCenter
	messageLabel.TextSize = 16

	timerLabel := canvas.NewText("--:--", color.NRGBA{R: 232, G: 190, B: 66, A: 255})
	timerLabel.Alignment = fyne.TextAlignCenter
	timerLabel.TextStyle = fyne.TextStyle{Bold: true}
	timerLabel.TextSize = 36

	doneButton := widget.NewButton("Done", nil)
	snoozeButton := widget.NewButton("Snooze", nil)
	buttons := container.NewHBox(layout.NewSpacer(), doneButton, snoozeButton, layout.NewSpacer())

	content := container.NewVBox(
		layout.NewSpacer(),
		titleLabel,
		messageLabel,
		timerLabel,
		buttons,
		layout.NewSpacer(),
	)
	window.SetContent(container.NewStack(background, content))

	overlay := &Window{
		app:          app,
		window:       window,
		config:       config,
		background:   background,
		titleLabel:   titleLabel,
		messageLabel: messageLabel,
		timerLabel:   timerLabel,
		doneButton:   doneButton,
		snoozeButton: snoozeButton,
	}

	doneButton.OnTapped = func() {
		overlay.stopCountdown()
		if overlay.onDone != nil {
			overlay.onDone()
		}
	}
	snoozeButton.OnTapped = func() {
		overlay.stopCountdown()
		if overlay.onSnooze != nil {
			overlay.onSnooze()
		}
	}

	overlay.applyWindowMode()
	return overlay
}

// SetOnDone sets the break-completion handler. It fires both for the Done
// button and for the countdown running out.
func (overlay *Window) SetOnDone(handler func()) {
	overlay.onDone = handler
}

// SetOnSnooze sets the snooze handler.
func (overlay *Window) SetOnSnooze(handler func()) {
	overlay.onSnooze = handler
}

// Show starts a new break countdown.
func (overlay *Window) Show(duration time.Duration) {
	overlay.stopCountdown()
	ctx, cancel := context.WithCancel(context.Background())
	overlay.cancelCtx = cancel

	overlay.setRemainingUnsafe(duration)
	overlay.applyWindowMode()
	overlay.window.Show()
	overlay.window.RequestFocus()

	go overlay.countdown(ctx, duration)
}

// Hide closes the overlay and stops the countdown.
func (overlay *Window) Hide() {
	overlay.stopCountdown()
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(false)
	}
	overlay.window.Hide()
}

// UpdateConfig updates overlay visuals.
func (overlay *Window) UpdateConfig(config Config) {
	overlay.config = config
	overlay.background.FillColor = color.NRGBA{R: 0, G: 0, B: 0, A: config.Opacity}
	overlay.messageLabel.Text = config.Message
	overlay.applyWindowMode()
	canvas.Refresh(overlay.background)
	overlay.messageLabel.Refresh()
}

func (overlay *Window) countdown(ctx context.Context, duration time.Duration) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := duration
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining -= time.Second
			if remaining <= 0 {
				fyne.Do(func() {
					overlay.setRemainingUnsafe(0)
				})
				if overlay.onDone != nil {
					overlay.onDone()
				}
				return
			}
			fyne.Do(func() {
				overlay.setRemainingUnsafe(remaining)
			})
		}
	}
}

func (overlay *Window) setRemainingUnsafe(remaining time.Duration) {
	overlay.timerLabel.Text = formatDuration(remaining)
	overlay.timerLabel.Refresh()
}

func (overlay *Window) stopCountdown() {
	if overlay.cancelCtx != nil {
		overlay.cancelCtx()
		overlay.cancelCtx = nil
	}
}

func (overlay *Window) applyWindowMode() {
	if overlay.config.Fullscreen {
		overlay.window.SetFullScreen(true)
		return
	}
	overlay.window.SetFullScreen(false)
	overlay.resizeToScreenFraction()
}

func (overlay *Window) resizeToScreenFraction() {
	screenSize := fyne.NewSize(defaultScreenWidth, defaultScreenHeight)
	canvasSize := overlay.window.Canvas().Size()
	// Canvas size can be reused as a proxy for monitor size when it is clearly screen-like.
	if canvasSize.Width >= 1024 && canvasSize.Height >= 720 {
		screenSize = canvasSize
	}

	width := screenSize.Width * overlayWidthFraction
	height := screenSize.Height * overlayHeightFraction
	minSize := overlay.window.Content().MinSize()
	if width < minSize.Width {
		width = minSize.Width
	}
	if height < minSize.Height {
		height = minSize.Height
	}

	overlay.window.Resize(fyne.NewSize(width, height))
	overlay.window.CenterOnScreen()
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
