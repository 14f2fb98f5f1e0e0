package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnPreferences func()
	OnTakeBreak   func()
	OnSnooze      func()
	OnRecalibrate func()
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	breakItem   *fyne.MenuItem
	snoozeItem  *fyne.MenuItem
	calibItem   *fyne.MenuItem
	callbacks   Callbacks
	inBreak     bool
	statusLabel string
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.statusItem = fyne.NewMenuItem("Status: starting...", nil)
	manager.statusItem.Disabled = true

	manager.breakItem = fyne.NewMenuItem("Take a break now", func() {
		if manager.callbacks.OnTakeBreak != nil {
			manager.callbacks.OnTakeBreak()
		}
	})

	manager.snoozeItem = fyne.NewMenuItem("Snooze reminders", func() {
		if manager.callbacks.OnSnooze != nil {
			manager.callbacks.OnSnooze()
		}
	})

	manager.calibItem = fyne.NewMenuItem("Recalibrate camera", func() {
		if manager.callbacks.OnRecalibrate != nil {
			manager.callbacks.OnRecalibrate()
		}
	})

	app.SetSystemTrayMenu(manager.buildMenu())
	return manager
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

// SetInBreak toggles break-related menu items.
func (manager *Manager) SetInBreak(inBreak bool) {
	manager.inBreak = inBreak
	manager.breakItem.Disabled = inBreak
	manager.refreshMenu()
}

func (manager *Manager) buildMenu() *fyne.Menu {
	return fyne.NewMenu("GazeGuard",
		manager.statusItem,
		fyne.NewMenuItem("Preferences", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		manager.breakItem,
		manager.snoozeItem,
		manager.calibItem,
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.buildMenu())
	}
}
