package dialogs

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"glucobar/internal/core/model"
)

// PreferencesWindow edits thresholds and notification behavior.
type PreferencesWindow struct {
	window        fyne.Window
	low           *widget.Entry
	high          *widget.Entry
	notifications *widget.Check
	status        *widget.Label
	onSave        func(model.Preferences)
}

// NewPreferences creates the preferences window.
func NewPreferences(app fyne.App, preferences model.Preferences, onSave func(model.Preferences)) *PreferencesWindow {
	window := app.NewWindow("GlucoBar Preferences")

	low := widget.NewEntry()
	low.SetText(strconv.Itoa(preferences.Thresholds.Low))
	high := widget.NewEntry()
	high.SetText(strconv.Itoa(preferences.Thresholds.High))

	notifications := widget.NewCheck("Notify when outside the normal range", nil)
	notifications.SetChecked(preferences.NotificationsEnabled)

	status := widget.NewLabel("")

	prefs := &PreferencesWindow{
		window:        window,
		low:           low,
		high:          high,
		notifications: notifications,
		status:        status,
		onSave:        onSave,
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Thresholds (mg/dL)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Low"), low),
		container.NewHBox(widget.NewLabel("High"), high),
		notifications,
		status,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(360, 240))
	window.SetCloseIntercept(window.Hide)

	return prefs
}

// Show displays the preferences window.
func (prefs *PreferencesWindow) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

func (prefs *PreferencesWindow) handleSave() {
	low, err := strconv.Atoi(prefs.low.Text)
	if err != nil {
		prefs.status.SetText("Low threshold must be a number.")
		return
	}
	high, err := strconv.Atoi(prefs.high.Text)
	if err != nil {
		prefs.status.SetText("High threshold must be a number.")
		return
	}

	preferences := model.Preferences{
		Thresholds:           model.Thresholds{Low: low, High: high},
		NotificationsEnabled: prefs.notifications.Checked,
	}
	if err := preferences.Thresholds.Validate(); err != nil {
		prefs.status.SetText(err.Error())
		return
	}

	prefs.status.SetText("")
	if prefs.onSave != nil {
		prefs.onSave(preferences)
	}
	prefs.window.Hide()
}
