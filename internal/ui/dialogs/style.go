package dialogs

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"glucobar/internal/core/model"
)

// StyleWindow edits the display templates and arrows.
type StyleWindow struct {
	window       fyne.Window
	lowTemplate  *widget.Entry
	normTemplate *widget.Entry
	highTemplate *widget.Entry
	steadyArrow  *widget.Entry
	risingArrow  *widget.Entry
	fallingArrow *widget.Entry
	brackets     *widget.Check
	status       *widget.Label
	onSave       func(model.StyleConfig)
}

// NewStyle creates the display style window.
func NewStyle(app fyne.App, style model.StyleConfig, onSave func(model.StyleConfig)) *StyleWindow {
	window := app.NewWindow("GlucoBar Display")

	lowTemplate := widget.NewEntry()
	lowTemplate.SetText(style.LowTemplate)
	normTemplate := widget.NewEntry()
	normTemplate.SetText(style.NormalTemplate)
	highTemplate := widget.NewEntry()
	highTemplate.SetText(style.HighTemplate)

	steadyArrow := widget.NewEntry()
	steadyArrow.SetText(style.SteadyArrow)
	risingArrow := widget.NewEntry()
	risingArrow.SetText(style.RisingArrow)
	fallingArrow := widget.NewEntry()
	fallingArrow.SetText(style.FallingArrow)

	brackets := widget.NewCheck("Bracketed display", nil)
	brackets.SetChecked(style.ShowBrackets)

	status := widget.NewLabel("")

	styleWindow := &StyleWindow{
		window:       window,
		lowTemplate:  lowTemplate,
		normTemplate: normTemplate,
		highTemplate: highTemplate,
		steadyArrow:  steadyArrow,
		risingArrow:  risingArrow,
		fallingArrow: fallingArrow,
		brackets:     brackets,
		status:       status,
		onSave:       onSave,
	}

	form := container.NewVBox(
		widget.NewLabelWithStyle("Templates (use "+model.ValuePlaceholder+" once)", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Low"), lowTemplate),
		container.NewHBox(widget.NewLabel("Normal"), normTemplate),
		container.NewHBox(widget.NewLabel("High"), highTemplate),
		widget.NewLabelWithStyle("Arrows", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Steady"), steadyArrow),
		container.NewHBox(widget.NewLabel("Rising"), risingArrow),
		container.NewHBox(widget.NewLabel("Falling"), fallingArrow),
		brackets,
		status,
	)

	saveButton := widget.NewButton("Save", styleWindow.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 420))
	window.SetCloseIntercept(window.Hide)

	return styleWindow
}

// Show displays the style window.
func (styleWindow *StyleWindow) Show() {
	styleWindow.window.Show()
	styleWindow.window.RequestFocus()
}

func (styleWindow *StyleWindow) handleSave() {
	style := model.StyleConfig{
		LowTemplate:    styleWindow.lowTemplate.Text,
		NormalTemplate: styleWindow.normTemplate.Text,
		HighTemplate:   styleWindow.highTemplate.Text,
		SteadyArrow:    styleWindow.steadyArrow.Text,
		RisingArrow:    styleWindow.risingArrow.Text,
		FallingArrow:   styleWindow.fallingArrow.Text,
		ShowBrackets:   styleWindow.brackets.Checked,
	}
	if err := style.Validate(); err != nil {
		styleWindow.status.SetText(err.Error())
		return
	}

	styleWindow.status.SetText("")
	if styleWindow.onSave != nil {
		styleWindow.onSave(style)
	}
	styleWindow.window.Hide()
}
