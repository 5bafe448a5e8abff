package model

import (
	"fmt"
	"strings"
)

// ValuePlaceholder is the substitution marker each display template
// must contain exactly once.
const ValuePlaceholder = "{value}"

// Thresholds bound the normal glucose band.
type Thresholds struct {
	Low  int
	High int
}

// Validate enforces low < high. Invalid thresholds are rejected at the
// mutation boundary, never swapped.
func (thresholds Thresholds) Validate() error {
	if thresholds.Low >= thresholds.High {
		return fmt.Errorf("thresholds: low %d must be below high %d", thresholds.Low, thresholds.High)
	}
	return nil
}

// StyleConfig controls how a reading is rendered.
type StyleConfig struct {
	LowTemplate    string
	NormalTemplate string
	HighTemplate   string
	SteadyArrow    string
	RisingArrow    string
	FallingArrow   string
	ShowBrackets   bool
}

// Validate checks that every template carries exactly one value
// placeholder and no arrow is blank.
func (style StyleConfig) Validate() error {
	templates := map[string]string{
		"low":    style.LowTemplate,
		"normal": style.NormalTemplate,
		"high":   style.HighTemplate,
	}
	for name, template := range templates {
		if count := strings.Count(template, ValuePlaceholder); count != 1 {
			return fmt.Errorf("style: %s template must contain %s exactly once, found %d", name, ValuePlaceholder, count)
		}
	}
	arrows := map[string]string{
		"steady":  style.SteadyArrow,
		"rising":  style.RisingArrow,
		"falling": style.FallingArrow,
	}
	for name, arrow := range arrows {
		if arrow == "" {
			return fmt.Errorf("style: %s arrow is empty", name)
		}
	}
	return nil
}

// Preferences groups the user-tunable behavior toggles.
type Preferences struct {
	Thresholds           Thresholds
	NotificationsEnabled bool
}

// PersistedSettings is the sole unit of persistence: read once at
// startup, rewritten in full on every accepted mutation.
type PersistedSettings struct {
	Credentials Credentials
	Style       StyleConfig
	Preferences Preferences
}

// DisplayPayload is the only artifact handed to the display sink.
type DisplayPayload struct {
	Text       string
	Emphasized bool
}

// DefaultSettings returns the hard-coded settings used when nothing
// valid has been persisted yet.
func DefaultSettings() PersistedSettings {
	return PersistedSettings{
		Credentials: Credentials{Region: RegionUS},
		Style: StyleConfig{
			LowTemplate:    "Low: " + ValuePlaceholder,
			NormalTemplate: "Normal: " + ValuePlaceholder,
			HighTemplate:   "High: " + ValuePlaceholder,
			SteadyArrow:    "→",
			RisingArrow:    "↑",
			FallingArrow:   "↓",
			ShowBrackets:   true,
		},
		Preferences: Preferences{
			Thresholds:           Thresholds{Low: 70, High: 180},
			NotificationsEnabled: true,
		},
	}
}
