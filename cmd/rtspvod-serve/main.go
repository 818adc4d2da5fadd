// Command rtspvod-serve scans a media directory into a catalog and exposes
// it through the VOD streaming engine: a debug HTTP surface
// (/healthz, /metrics, /catalog.json), an optional SQLite session audit
// log, and an optional read-only FUSE browse mount. It does not speak
// RTSP itself (out of scope per spec); wiring engine.StartSession to a
// real RTSP server's session callbacks is the integration point a
// production deployment provides.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/snapetech/rtspvod/internal/browsefs"
	"github.com/snapetech/rtspvod/internal/config"
	"github.com/snapetech/rtspvod/internal/engine"
	"github.com/snapetech/rtspvod/internal/metrics"
	"github.com/snapetech/rtspvod/internal/sessionlog"
	"github.com/snapetech/rtspvod/internal/vodhttp"
)

func main() {
	_ = config.LoadEnvFile(".env")
	cfg := config.Load()

	var logger engine.EventLogger
	slog, err := sessionlog.Open(cfg.SessionDBPath)
	if err != nil {
		log.Printf("sessionlog: disabled, open failed: %v", err)
	} else {
		defer slog.Close()
		logger = slog
	}

	e, err := engine.New(cfg.MediaDir, logger)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}
	log.Printf("catalog: %d entries scanned from %s", len(e.Catalog.All()), cfg.MediaDir)

	promReg := prometheus.NewRegistry()
	_ = metrics.New(promReg)

	srv := vodhttp.New(e.Registry, e.Catalog, promReg)
	go func() {
		log.Printf("debug http listening on %s", cfg.DebugAddr)
		if err := srv.Serve(cfg.DebugAddr, cfg.MaxDebugConns); err != nil {
			log.Printf("debug http: %v", err)
		}
	}()

	if cfg.MountPoint != "" {
		fuseServer, err := browsefs.Mount(cfg.MountPoint, e.Catalog, e.Cache)
		if err != nil {
			log.Printf("browsefs: mount failed: %v", err)
		} else {
			log.Printf("catalog browse mounted at %s", cfg.MountPoint)
			defer fuseServer.Unmount()
		}
	}

	log.Printf("rtspvod-serve ready; RTSP transport is the integration point, see package docs")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("shutting down")
	e.Registry.StopAll()
}
