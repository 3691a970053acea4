package main

import (
	"log/slog"
	"os"

	"github.com/lumipack/lumipack-app/internal/blobstore"

	packStore "github.com/lumipack/lumipack-app/internal/pack/store"
	settingStore "github.com/lumipack/lumipack-app/internal/setting/store"
)

type BackendApp struct {
	settingStoreAPI *settingStore.SettingStore
	packCacheAPI    *packStore.PackCache

	settingsDirPath string
	fileStoreURL    string
	authToken       string
}

func NewBackendApp(settingsDirPath, fileStoreURL, authToken string) *BackendApp {
	if settingsDirPath == "" || fileStoreURL == "" {
		slog.Error(
			"invalid app configuration",
			"settingsDirPath", settingsDirPath,
			"fileStoreURL", fileStoreURL,
		)
		panic("failed to initialize BackendApp: invalid configuration")
	}

	app := &BackendApp{
		settingsDirPath: settingsDirPath,
		fileStoreURL:    fileStoreURL,
		authToken:       authToken,
	}

	app.initPackCache()
	app.initSettingsStore()
	return app
}

func (a *BackendApp) initPackCache() {
	opts := []blobstore.Option{blobstore.WithLogger(slog.Default())}
	if a.authToken != "" {
		opts = append(opts, blobstore.WithHeader("Authorization", "Bearer "+a.authToken))
	}
	client, err := blobstore.NewClient(a.fileStoreURL, opts...)
	if err != nil {
		slog.Error(
			"couldn't initialize blobstore client",
			"fileStoreURL", a.fileStoreURL,
			"error", err,
		)
		panic("failed to initialize BackendApp: blobstore client initialization failed")
	}

	cache, err := packStore.NewPackCache(client, packStore.WithLogger(slog.Default()))
	if err != nil {
		slog.Error("couldn't initialize pack cache", "error", err)
		panic("failed to initialize BackendApp: pack cache initialization failed")
	}
	a.packCacheAPI = cache
	slog.Info("pack cache initialized", "fileStoreURL", a.fileStoreURL)
}

func (a *BackendApp) initSettingsStore() {
	if err := os.MkdirAll(a.settingsDirPath, os.FileMode(0o770)); err != nil {
		slog.Error(
			"failed to create settings directory",
			"settingsDirPath", a.settingsDirPath,
			"error", err,
		)
		panic("failed to initialize BackendApp: could not create settings directory")
	}

	ss, err := settingStore.NewSettingStore(
		a.settingsDirPath,
		a.packCacheAPI,
		settingStore.WithLogger(slog.Default()),
	)
	if err != nil {
		slog.Error(
			"couldn't initialize settings store",
			"settingsDirPath", a.settingsDirPath,
			"error", err,
		)
		panic("failed to initialize BackendApp: settings store initialization failed")
	}
	a.settingStoreAPI = ss
	slog.Info("settings store initialized", "dir", a.settingsDirPath)
}

func (a *BackendApp) Close() {
	a.settingStoreAPI.Close()
}
