package format

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucobar/internal/core/model"
	"glucobar/internal/fetch"
)

func defaultStyle() model.StyleConfig {
	return model.DefaultSettings().Style
}

func readingResult(value int, trend model.Trend) fetch.Result {
	return fetch.Result{Reading: &model.Reading{
		Value:      value,
		Trend:      trend,
		ObservedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestFormatBands(t *testing.T) {
	thresholds := model.Thresholds{Low: 70, High: 180}

	tests := []struct {
		name           string
		value          int
		wantText       string
		wantEmphasized bool
	}{
		{name: "below low", value: 65, wantText: "[Low: 65][↓]", wantEmphasized: true},
		{name: "normal", value: 120, wantText: "[Normal: 120][→]", wantEmphasized: false},
		{name: "low boundary is normal", value: 70, wantText: "[Normal: 70][→]", wantEmphasized: false},
		{name: "high boundary is normal", value: 180, wantText: "[Normal: 180][→]", wantEmphasized: false},
		{name: "above high", value: 200, wantText: "[High: 200][↑]", wantEmphasized: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := Format(readingResult(tt.value, model.TrendSteady), thresholds, defaultStyle())
			assert.Equal(t, tt.wantText, payload.Text)
			assert.Equal(t, tt.wantEmphasized, payload.Emphasized)
		})
	}
}

func TestFormatWithoutBrackets(t *testing.T) {
	style := defaultStyle()
	style.ShowBrackets = false

	payload := Format(readingResult(200, model.TrendSteady), model.Thresholds{Low: 70, High: 180}, style)
	assert.Equal(t, "High: 200 ↑", payload.Text)
	assert.True(t, payload.Emphasized)
}

func TestFormatArrowComesFromBandNotTrend(t *testing.T) {
	// A normal-band value with a rising sensor trend still renders the
	// steady arrow: the arrow is tied to range, not raw trend.
	payload := Format(readingResult(120, model.TrendRising), model.Thresholds{Low: 70, High: 180}, defaultStyle())
	assert.Equal(t, "[Normal: 120][→]", payload.Text)
}

func TestFormatNoReading(t *testing.T) {
	payload := Format(fetch.Result{}, model.Thresholds{Low: 70, High: 180}, defaultStyle())
	assert.Equal(t, "[N/A][?]", payload.Text)
	assert.False(t, payload.Emphasized)
}

func TestFormatNoReadingWithoutBrackets(t *testing.T) {
	style := defaultStyle()
	style.ShowBrackets = false

	payload := Format(fetch.Result{}, model.Thresholds{Low: 70, High: 180}, style)
	assert.Equal(t, "N/A ?", payload.Text)
}

func TestFormatError(t *testing.T) {
	result := fetch.Result{Err: &fetch.Error{Kind: fetch.KindTransient, Err: errors.New("connection reset")}}

	payload := Format(result, model.Thresholds{Low: 70, High: 180}, defaultStyle())
	assert.Equal(t, "[Err][?]", payload.Text)
	assert.False(t, payload.Emphasized)
}

func TestFormatIsPure(t *testing.T) {
	thresholds := model.Thresholds{Low: 70, High: 180}
	result := readingResult(65, model.TrendFalling)

	first := Format(result, thresholds, defaultStyle())
	second := Format(result, thresholds, defaultStyle())
	require.Equal(t, first, second)
}

func TestFormatCustomTemplate(t *testing.T) {
	style := defaultStyle()
	style.NormalTemplate = "BG {value} mg/dL"

	payload := Format(readingResult(110, model.TrendSteady), model.Thresholds{Low: 70, High: 180}, style)
	assert.Equal(t, "[BG 110 mg/dL][→]", payload.Text)
}
