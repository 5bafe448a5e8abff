package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"glucobar/internal/core/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return &Store{appName: "GlucoBar", dir: t.TempDir(), log: zap.NewNop()}
}

func writeSettingsFile(t *testing.T, store *Store, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, settingsFileName), []byte(content), 0o600))
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	settings := store.Load()

	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	settings := model.DefaultSettings()
	settings.Credentials = model.Credentials{Username: "user", Password: "secret", Region: model.RegionOUS}
	settings.Preferences.Thresholds = model.Thresholds{Low: 80, High: 200}
	settings.Preferences.NotificationsEnabled = false
	settings.Style.NormalTemplate = "BG {value}"
	settings.Style.SteadyArrow = "="
	settings.Style.ShowBrackets = false

	store.Save(settings)
	loaded := store.Load()

	assert.Equal(t, settings, loaded)
}

func TestLoadCorruptDocumentReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	writeSettingsFile(t, store, "{{{ not yaml")

	settings := store.Load()

	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestLoadInvalidFieldFallsBackAlone(t *testing.T) {
	store := newTestStore(t)
	// Thresholds violate low < high; the rest of the document is valid
	// and must survive.
	writeSettingsFile(t, store, `
account:
  username: user
  password: secret
  region: jp
thresholds:
  low: 200
  high: 100
style:
  rising_arrow: "^"
notifications_enabled: false
`)

	settings := store.Load()
	defaults := model.DefaultSettings()

	assert.Equal(t, "user", settings.Credentials.Username)
	assert.Equal(t, model.RegionJP, settings.Credentials.Region)
	assert.Equal(t, defaults.Preferences.Thresholds, settings.Preferences.Thresholds)
	assert.Equal(t, "^", settings.Style.RisingArrow)
	assert.Equal(t, defaults.Style.SteadyArrow, settings.Style.SteadyArrow)
	assert.False(t, settings.Preferences.NotificationsEnabled)
}

func TestLoadInvalidRegionFallsBack(t *testing.T) {
	store := newTestStore(t)
	writeSettingsFile(t, store, `
account:
  username: user
  password: secret
  region: mars
`)

	settings := store.Load()

	assert.Equal(t, model.RegionUS, settings.Credentials.Region)
	assert.Equal(t, "user", settings.Credentials.Username)
}

func TestLoadInvalidTemplateFallsBack(t *testing.T) {
	store := newTestStore(t)
	writeSettingsFile(t, store, `
style:
  normal_template: "no placeholder here"
  high_template: "Hi {value}"
`)

	settings := store.Load()
	defaults := model.DefaultSettings()

	assert.Equal(t, defaults.Style.NormalTemplate, settings.Style.NormalTemplate)
	assert.Equal(t, "Hi {value}", settings.Style.HighTemplate)
}

func TestLoadIgnoresUnknownFields(t *testing.T) {
	store := newTestStore(t)
	writeSettingsFile(t, store, `
future_feature: true
thresholds:
  low: 65
  high: 190
`)

	settings := store.Load()

	assert.Equal(t, model.Thresholds{Low: 65, High: 190}, settings.Preferences.Thresholds)
}

func TestSaveWritesUserOnlyFile(t *testing.T) {
	store := newTestStore(t)

	store.Save(model.DefaultSettings())

	info, err := os.Stat(filepath.Join(store.dir, settingsFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
