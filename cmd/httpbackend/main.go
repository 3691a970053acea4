package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	settingStore "github.com/lumipack/lumipack-app/internal/setting/store"
)

const (
	appName         = "lumipack"
	shutdownTimeout = 10 * time.Second
)

func main() {
	var (
		addr         = flag.String("addr", "127.0.0.1:8777", "listen address")
		dataDir      = flag.String("datadir", "", "settings directory (default: XDG data dir)")
		fileStoreURL = flag.String("filestore", "http://127.0.0.1:8000", "base URL of the remote file store")
		authToken    = flag.String("token", "", "bearer token for the remote file store")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	dir := *dataDir
	if dir == "" {
		dir = filepath.Join(xdg.DataHome, appName, "settings")
	}

	app := NewBackendApp(dir, *fileStoreURL, *authToken)
	defer app.Close()

	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("Lumipack Backend", "1.0.0"))
	settingStore.InitSettingStoreHandlers(api, app.settingStoreAPI)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http backend listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
