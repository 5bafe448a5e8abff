package main

import (
	"os"
	"time"

	"glucobar/internal/auth"
	"glucobar/internal/core/model"
	"glucobar/internal/core/scheduler"
	"glucobar/internal/dexcom"
	"glucobar/internal/fetch"
	"glucobar/internal/logger"
	"glucobar/internal/platform"
	"glucobar/internal/storage"
	"glucobar/internal/ui/dialogs"
	"glucobar/internal/ui/tray"
	"glucobar/resources"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"go.uber.org/zap"
)

const appName = "GlucoBar"

func main() {
	log := logger.Named("main")

	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		log.Warn("single instance", zap.Error(err))
		return
	}
	defer func() {
		_ = guard.Release()
	}()

	fyneApp := app.NewWithID("com.glucobar.app")
	fyneApp.SetIcon(resources.MustIcon("glucobar.png"))
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		log.Warn("system tray unsupported on this platform")
		return
	}

	trayWindow := fyneApp.NewWindow(appName)
	trayWindow.SetContent(widget.NewLabel("GlucoBar is running in the system tray."))
	trayWindow.SetCloseIntercept(trayWindow.Hide)
	trayWindow.Hide()
	desktopApp.SetSystemTrayWindow(trayWindow)

	store := storage.NewStore(appName, logger.Named("storage"))
	settings := store.Load()

	client := dexcom.NewClient(15*time.Second, logger.Named("dexcom"))
	authManager := auth.NewManager(client, settings.Credentials, logger.Named("auth"))
	fetcher := fetch.NewFetcher(authManager, client, logger.Named("fetch"))
	refresher := scheduler.New(fetcher, settings.Preferences.Thresholds, settings.Style,
		scheduler.Config{Interval: scheduler.DefaultInterval}, logger.Named("scheduler"))

	accountWindow := dialogs.NewAccount(fyneApp, settings.Credentials, func(credentials model.Credentials) {
		settings.Credentials = credentials
		store.Save(settings)
		authManager.SetCredentials(credentials)
		refresher.Resume()
	})
	styleWindow := dialogs.NewStyle(fyneApp, settings.Style, func(style model.StyleConfig) {
		settings.Style = style
		store.Save(settings)
		refresher.UpdateConfig(settings.Preferences.Thresholds, settings.Style)
	})
	prefsWindow := dialogs.NewPreferences(fyneApp, settings.Preferences, func(preferences model.Preferences) {
		settings.Preferences = preferences
		store.Save(settings)
		refresher.UpdateConfig(settings.Preferences.Thresholds, settings.Style)
	})

	platformService := platform.NewService()
	autostartEnabled, err := platformService.AutostartEnabled(appName)
	if err != nil {
		log.Warn("autostart state", zap.Error(err))
	}

	normalIcon := resources.MustIcon("glucobar.png")
	alertIcon := resources.MustIcon("glucobar_alert.png")

	var trayManager *tray.Manager
	trayManager = tray.New(desktopApp, autostartEnabled, tray.Callbacks{
		OnRefresh:     refresher.TriggerRefresh,
		OnAccount:     accountWindow.Show,
		OnStyle:       styleWindow.Show,
		OnPreferences: prefsWindow.Show,
		OnToggleAutostart: func(enable bool) {
			if enable {
				execPath, execErr := os.Executable()
				if execErr != nil {
					log.Warn("resolve executable path", zap.Error(execErr))
					return
				}
				if autoErr := platformService.EnableAutostart(appName, execPath); autoErr != nil {
					log.Warn("enable autostart", zap.Error(autoErr))
					return
				}
			} else {
				if autoErr := platformService.DisableAutostart(appName); autoErr != nil {
					log.Warn("disable autostart", zap.Error(autoErr))
					return
				}
			}
			trayManager.SetAutostart(enable)
		},
		OnQuit: func() {
			refresher.Stop()
			fyneApp.Quit()
		},
	})

	desktopApp.SetSystemTrayIcon(normalIcon)

	events := refresher.Subscribe(8)
	wasOutside := false
	go func() {
		for event := range events {
			event := event
			fyne.Do(func() {
				trayManager.Render(event.Payload)
				trayManager.SetLastGood(event.LastGood, event.ErrKind != "" && event.HasLastGood)

				if event.Payload.Emphasized {
					desktopApp.SetSystemTrayIcon(alertIcon)
				} else {
					desktopApp.SetSystemTrayIcon(normalIcon)
				}

				if event.Type == scheduler.EventAuthRequired {
					accountWindow.ShowError("Sign-in failed. Check your credentials.")
				}

				if settings.Preferences.NotificationsEnabled && event.Payload.Emphasized && !wasOutside {
					fyneApp.SendNotification(fyne.NewNotification(appName, event.Payload.Text))
				}
				wasOutside = event.Payload.Emphasized
			})
		}
	}()

	refresher.Start()
	if settings.Credentials.Empty() {
		accountWindow.Show()
	}
	fyneApp.Run()
}
