package tray

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"glucobar/internal/core/model"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnRefresh         func()
	OnAccount         func()
	OnStyle           func()
	OnPreferences     func()
	OnToggleAutostart func(enable bool)
	OnQuit            func()
}

// Manager renders display payloads into the system tray menu. It is the
// display sink: single-threaded, driven only from the UI context.
type Manager struct {
	app           desktop.App
	readingItem   *fyne.MenuItem
	lastGoodItem  *fyne.MenuItem
	autostartItem *fyne.MenuItem
	callbacks     Callbacks
	showLastGood  bool
}

// New creates a tray manager with the provided callbacks.
func New(app desktop.App, autostartEnabled bool, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:       app,
		callbacks: callbacks,
	}

	manager.readingItem = fyne.NewMenuItem("--", nil)
	manager.readingItem.Disabled = true

	manager.lastGoodItem = fyne.NewMenuItem("", nil)
	manager.lastGoodItem.Disabled = true

	manager.autostartItem = fyne.NewMenuItem("Start at login", func() {
		if manager.callbacks.OnToggleAutostart != nil {
			manager.callbacks.OnToggleAutostart(!manager.autostartItem.Checked)
		}
	})
	manager.autostartItem.Checked = autostartEnabled

	manager.refreshMenu()
	return manager
}

// Render shows the payload text in the tray menu.
func (manager *Manager) Render(payload model.DisplayPayload) {
	manager.readingItem.Label = payload.Text
	manager.refreshMenu()
}

// SetLastGood shows or hides the most recent valid reading next to an
// error marker, so a failure is distinguishable from a stale value.
func (manager *Manager) SetLastGood(payload model.DisplayPayload, show bool) {
	manager.showLastGood = show
	manager.lastGoodItem.Label = "Last: " + payload.Text
	manager.refreshMenu()
}

// SetAutostart updates the start-at-login checkmark.
func (manager *Manager) SetAutostart(enabled bool) {
	manager.autostartItem.Checked = enabled
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app == nil {
		return
	}

	items := []*fyne.MenuItem{manager.readingItem}
	if manager.showLastGood {
		items = append(items, manager.lastGoodItem)
	}
	items = append(items,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Update Now", func() {
			if manager.callbacks.OnRefresh != nil {
				manager.callbacks.OnRefresh()
			}
		}),
		fyne.NewMenuItem("Account...", func() {
			if manager.callbacks.OnAccount != nil {
				manager.callbacks.OnAccount()
			}
		}),
		fyne.NewMenuItem("Display...", func() {
			if manager.callbacks.OnStyle != nil {
				manager.callbacks.OnStyle()
			}
		}),
		fyne.NewMenuItem("Preferences...", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		manager.autostartItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)

	manager.app.SetSystemTrayMenu(fyne.NewMenu("GlucoBar", items...))
}
