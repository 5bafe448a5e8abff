// Package format turns fetch outcomes into display payloads. It is pure:
// identical inputs always produce identical payloads.
package format

import (
	"strconv"
	"strings"

	"glucobar/internal/core/model"
	"glucobar/internal/fetch"
)

// Fixed markers for non-numeric outcomes.
const (
	noReadingText = "N/A"
	errorText     = "Err"
	unknownArrow  = "?"
)

// Format computes the payload for one fetch outcome. The arrow is
// derived from the threshold band, never from the reading's own trend,
// so the arrow stays semantically tied to range.
func Format(result fetch.Result, thresholds model.Thresholds, style model.StyleConfig) model.DisplayPayload {
	if result.Err != nil {
		return model.DisplayPayload{Text: compose(errorText, unknownArrow, style.ShowBrackets)}
	}
	if result.Reading == nil {
		return model.DisplayPayload{Text: compose(noReadingText, unknownArrow, style.ShowBrackets)}
	}

	value := result.Reading.Value
	valueText := strconv.Itoa(value)

	var template, arrow string
	switch {
	case value < thresholds.Low:
		template = style.LowTemplate
		arrow = style.FallingArrow
	case value > thresholds.High:
		template = style.HighTemplate
		arrow = style.RisingArrow
	default:
		// Boundary values belong to the normal band.
		template = style.NormalTemplate
		arrow = style.SteadyArrow
	}

	text := strings.Replace(template, model.ValuePlaceholder, valueText, 1)
	return model.DisplayPayload{
		Text:       compose(text, arrow, style.ShowBrackets),
		Emphasized: value < thresholds.Low || value > thresholds.High,
	}
}

func compose(valueText, arrow string, brackets bool) string {
	if brackets {
		return "[" + valueText + "][" + arrow + "]"
	}
	return valueText + " " + arrow
}
