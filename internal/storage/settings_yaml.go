// Package storage persists user settings as a YAML document under the
// OS config directory. Load never fails its caller: missing or corrupt
// storage falls back to defaults, field by field where possible.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"glucobar/internal/core/model"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlAccount struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Region   string `yaml:"region"`
}

type yamlThresholds struct {
	Low  *int `yaml:"low"`
	High *int `yaml:"high"`
}

type yamlStyle struct {
	LowTemplate    *string `yaml:"low_template"`
	NormalTemplate *string `yaml:"normal_template"`
	HighTemplate   *string `yaml:"high_template"`
	SteadyArrow    *string `yaml:"steady_arrow"`
	RisingArrow    *string `yaml:"rising_arrow"`
	FallingArrow   *string `yaml:"falling_arrow"`
	ShowBrackets   *bool   `yaml:"show_brackets"`
}

type yamlSettings struct {
	Account              yamlAccount    `yaml:"account"`
	Thresholds           yamlThresholds `yaml:"thresholds"`
	Style                yamlStyle      `yaml:"style"`
	NotificationsEnabled *bool          `yaml:"notifications_enabled"`
}

// Store reads and writes the persisted settings aggregate. It is the
// sole writer of persisted state.
type Store struct {
	appName string
	dir     string
	log     *zap.Logger
}

// NewStore creates a store rooted at the OS config directory for appName.
func NewStore(appName string, log *zap.Logger) *Store {
	return &Store{appName: appName, log: log}
}

// Load reads persisted settings. Missing or unreadable storage yields
// defaults; a corrupt field falls back alone while valid fields survive.
func (store *Store) Load() model.PersistedSettings {
	settings := model.DefaultSettings()

	configPath, err := store.path()
	if err != nil {
		store.log.Warn("resolve settings path, using defaults", zap.Error(err))
		return settings
	}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			store.log.Warn("read settings file, using defaults", zap.Error(err))
		}
		return settings
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		store.log.Warn("parse settings yaml, using defaults", zap.Error(err))
		return settings
	}

	applyYamlSettings(&settings, fileData, store.log)
	return settings
}

// Save writes the full aggregate. A failed write is logged, not fatal;
// in-memory settings remain authoritative until the next successful save.
func (store *Store) Save(settings model.PersistedSettings) {
	configPath, err := store.path()
	if err != nil {
		store.log.Warn("resolve settings path, save skipped", zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		store.log.Warn("create config directory, save skipped", zap.Error(err))
		return
	}

	fileData := yamlSettings{
		Account: yamlAccount{
			Username: settings.Credentials.Username,
			Password: settings.Credentials.Password,
			Region:   string(settings.Credentials.Region),
		},
		Thresholds: yamlThresholds{
			Low:  &settings.Preferences.Thresholds.Low,
			High: &settings.Preferences.Thresholds.High,
		},
		Style: yamlStyle{
			LowTemplate:    &settings.Style.LowTemplate,
			NormalTemplate: &settings.Style.NormalTemplate,
			HighTemplate:   &settings.Style.HighTemplate,
			SteadyArrow:    &settings.Style.SteadyArrow,
			RisingArrow:    &settings.Style.RisingArrow,
			FallingArrow:   &settings.Style.FallingArrow,
			ShowBrackets:   &settings.Style.ShowBrackets,
		},
		NotificationsEnabled: &settings.Preferences.NotificationsEnabled,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		store.log.Warn("marshal settings yaml, save skipped", zap.Error(err))
		return
	}

	// The document carries account credentials; keep it user-only.
	if err := os.WriteFile(configPath, serialized, 0o600); err != nil {
		store.log.Warn("write settings file, save failed", zap.Error(err))
	}
}

func (store *Store) path() (string, error) {
	if store.dir != "" {
		return filepath.Join(store.dir, settingsFileName), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, store.appName, settingsFileName), nil
}

// applyYamlSettings merges persisted fields onto defaults, keeping a
// default wherever the persisted field is absent or invalid.
func applyYamlSettings(settings *model.PersistedSettings, fileData yamlSettings, log *zap.Logger) {
	settings.Credentials.Username = fileData.Account.Username
	settings.Credentials.Password = fileData.Account.Password
	if fileData.Account.Region != "" {
		region, err := model.ParseRegion(fileData.Account.Region)
		if err != nil {
			log.Warn("persisted region invalid, using default", zap.String("region", fileData.Account.Region))
		} else {
			settings.Credentials.Region = region
		}
	}

	if fileData.Thresholds.Low != nil && fileData.Thresholds.High != nil {
		thresholds := model.Thresholds{Low: *fileData.Thresholds.Low, High: *fileData.Thresholds.High}
		if err := thresholds.Validate(); err != nil {
			log.Warn("persisted thresholds invalid, using defaults", zap.Error(err))
		} else {
			settings.Preferences.Thresholds = thresholds
		}
	}

	applyTemplate(&settings.Style.LowTemplate, fileData.Style.LowTemplate, "low", log)
	applyTemplate(&settings.Style.NormalTemplate, fileData.Style.NormalTemplate, "normal", log)
	applyTemplate(&settings.Style.HighTemplate, fileData.Style.HighTemplate, "high", log)
	applyArrow(&settings.Style.SteadyArrow, fileData.Style.SteadyArrow)
	applyArrow(&settings.Style.RisingArrow, fileData.Style.RisingArrow)
	applyArrow(&settings.Style.FallingArrow, fileData.Style.FallingArrow)
	if fileData.Style.ShowBrackets != nil {
		settings.Style.ShowBrackets = *fileData.Style.ShowBrackets
	}

	if fileData.NotificationsEnabled != nil {
		settings.Preferences.NotificationsEnabled = *fileData.NotificationsEnabled
	}
}

func applyTemplate(target *string, value *string, name string, log *zap.Logger) {
	if value == nil {
		return
	}
	if strings.Count(*value, model.ValuePlaceholder) != 1 {
		log.Warn("persisted template invalid, using default", zap.String("template", name))
		return
	}
	*target = *value
}

func applyArrow(target *string, value *string) {
	if value != nil && *value != "" {
		*target = *value
	}
}
