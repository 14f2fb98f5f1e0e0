package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"gazeguard/internal/core/coordinator"
	"gazeguard/internal/core/link"
	"gazeguard/internal/core/model"
	"gazeguard/internal/core/proximity"
	"gazeguard/internal/platform"
	"gazeguard/internal/storage"
	"gazeguard/internal/ui/overlay"
	"gazeguard/internal/ui/preferences"
	"gazeguard/internal/ui/tray"
)

const appName = "GazeGuard"

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() {
		_ = logger.Sync()
	}()

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		logger.Error("single instance", zap.Error(err))
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	settings := model.DefaultSettings()
	var stateStore coordinator.Store
	store, err := storage.Open(appName)
	if err != nil {
		logger.Warn("open state store", zap.Error(err))
	} else {
		stateStore = store
		loaded, found, loadErr := store.Settings()
		if loadErr != nil {
			logger.Warn("load settings", zap.Error(loadErr))
		} else if found {
			settings = loaded
		}
	}

	fyneApp := app.NewWithID("com.gazeguard.app")
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		logger.Error("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("GazeGuard is running in the system tray."))
	trayWindow.SetCloseIntercept(func() {
		trayWindow.Hide()
	})
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	keeper := coordinator.New(settings, stateStore, coordinator.Config{}, logger)
	keeper.SetIdleChecker(platform.NewIdleProvider())

	bridge := link.New(4)
	keeper.SetLink(bridge)

	sampler := proximity.New(platform.NewFrameGrabber(), bridge, logger, keeper.NotifyProximityWarning)
	keeper.SetProximityAgent(sampler)

	overlayWindow := overlay.New(fyneApp, overlayConfig(settings))
	overlayWindow.SetOnDone(func() {
		keeper.CompleteBreak()
	})
	overlayWindow.SetOnSnooze(func() {
		keeper.Snooze()
	})

	platformService := platform.NewService()
	applyAutostart := func(updated model.Settings) {
		execPath, execErr := os.Executable()
		if execErr != nil {
			logger.Warn("resolve executable path", zap.Error(execErr))
			return
		}
		if updated.LaunchAtLogin {
			if autostartErr := platformService.EnableAutostart(appName, execPath); autostartErr != nil {
				logger.Warn("enable autostart", zap.Error(autostartErr))
			}
			return
		}
		if autostartErr := platformService.DisableAutostart(appName); autostartErr != nil {
			logger.Warn("disable autostart", zap.Error(autostartErr))
		}
	}

	var trayManager *tray.Manager
	prefsWindow := preferences.New(fyneApp, settings, func(updated model.Settings) {
		keeper.UpdateSettings(updated)
		overlayWindow.UpdateConfig(overlayConfig(updated))
		applyAutostart(updated)
		if !updated.Enabled {
			trayManager.SetStatus("disabled")
		}
	})

	trayManager = tray.New(desktopApp, tray.Callbacks{
		OnPreferences: func() {
			prefsWindow.Show()
		},
		OnTakeBreak: func() {
			keeper.StartBreak(0)
		},
		OnSnooze: func() {
			keeper.Snooze()
		},
		OnRecalibrate: func() {
			keeper.ResetProximity()
		},
		OnQuit: func() {
			keeper.Stop()
			sampler.Stop()
			fyneApp.Quit()
		},
	})

	events := keeper.Subscribe(8)
	go func() {
		for event := range events {
			handleEvent(event, keeper, overlayWindow, trayManager, fyneApp, logger)
		}
	}()

	sampler.Start()
	keeper.Start()

	prefsWindow.Show()
	fyneApp.Run()
}

func handleEvent(event coordinator.Event, keeper *coordinator.Coordinator, overlayWindow *overlay.Window, trayManager *tray.Manager, fyneApp fyne.App, logger *zap.Logger) {
	switch event.Type {
	case coordinator.EventBreakReminder:
		keeper.StartBreak(0)
	case coordinator.EventBreakStarted:
		duration := event.Duration
		fyne.Do(func() {
			overlayWindow.Show(duration)
			trayManager.SetInBreak(true)
			trayManager.SetStatus("on a break")
		})
	case coordinator.EventBreakEnded:
		fyne.Do(func() {
			overlayWindow.Hide()
			trayManager.SetInBreak(false)
			trayManager.SetStatus("break over")
		})
	case coordinator.EventProgress:
		remaining := event.MinutesRemaining
		fyne.Do(func() {
			trayManager.SetStatus(fmt.Sprintf("next break in %d min", remaining))
		})
	case coordinator.EventSnoozed:
		until := event.Until
		fyne.Do(func() {
			overlayWindow.Hide()
			trayManager.SetInBreak(false)
			trayManager.SetStatus("snoozed until " + until.Format("15:04"))
		})
	case coordinator.EventProximityWarning:
		fyneApp.SendNotification(fyne.NewNotification(appName, "You're sitting too close to the screen."))
	case coordinator.EventIdleError:
		logger.Warn("idle detection", zap.String("error", event.Message))
	}
}

func overlayConfig(settings model.Settings) overlay.Config {
	return overlay.Config{
		Opacity:    opacityToAlpha(settings.OverlayOpacity),
		Fullscreen: settings.FullscreenOverlay,
		Message:    "Time to rest your eyes",
	}
}

func opacityToAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(opacity * 255)
}
