// Package dialogs contains the settings windows. They are presentation
// glue: each Save hands a validated value to its callback and the core
// applies it.
package dialogs

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"glucobar/internal/core/model"
)

// AccountWindow edits the provider credentials.
type AccountWindow struct {
	window   fyne.Window
	username *widget.Entry
	password *widget.Entry
	region   *widget.Select
	status   *widget.Label
	onSave   func(model.Credentials)
}

// NewAccount creates the account window seeded with stored credentials.
func NewAccount(app fyne.App, credentials model.Credentials, onSave func(model.Credentials)) *AccountWindow {
	window := app.NewWindow("GlucoBar Account")

	username := widget.NewEntry()
	username.SetText(credentials.Username)

	password := widget.NewPasswordEntry()
	password.SetText(credentials.Password)

	regionNames := make([]string, 0, len(model.Regions()))
	for _, region := range model.Regions() {
		regionNames = append(regionNames, string(region))
	}
	region := widget.NewSelect(regionNames, nil)
	region.SetSelected(string(credentials.Region))

	status := widget.NewLabel("")

	account := &AccountWindow{
		window:   window,
		username: username,
		password: password,
		region:   region,
		status:   status,
		onSave:   onSave,
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Dexcom Share Account", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Username"), username),
		container.NewHBox(widget.NewLabel("Password"), password),
		container.NewHBox(widget.NewLabel("Region"), region),
		status,
	)

	saveButton := widget.NewButton("Save", account.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(380, 240))
	window.SetCloseIntercept(window.Hide)

	return account
}

// Show displays the account window.
func (account *AccountWindow) Show() {
	account.window.Show()
	account.window.RequestFocus()
}

// ShowError surfaces an authentication failure in the open window.
func (account *AccountWindow) ShowError(message string) {
	account.status.SetText(message)
	account.Show()
}

func (account *AccountWindow) handleSave() {
	region, err := model.ParseRegion(account.region.Selected)
	if err != nil {
		account.status.SetText(err.Error())
		return
	}

	credentials := model.Credentials{
		Username: account.username.Text,
		Password: account.password.Text,
		Region:   region,
	}
	if credentials.Empty() {
		account.status.SetText("Username and password are required.")
		return
	}

	account.status.SetText("")
	if account.onSave != nil {
		account.onSave(credentials)
	}
	account.window.Hide()
}
