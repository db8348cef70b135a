// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// ReelProbe - FFmpeg 媒体探测工具

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ZSC714725/reelprobe/internal/api"
	"github.com/ZSC714725/reelprobe/internal/config"
	"github.com/ZSC714725/reelprobe/internal/ffmpeg"
	"github.com/ZSC714725/reelprobe/internal/logger"
	"github.com/ZSC714725/reelprobe/internal/probe"
	"github.com/ZSC714725/reelprobe/internal/queue"
	"github.com/ZSC714725/reelprobe/internal/thumbnail"
	"github.com/ZSC714725/reelprobe/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	bind := flag.String("bind", "", "Bind address (overrides config)")
	ffmpegBin := flag.String("ffmpeg", "", "FFmpeg binary path (overrides config)")
	debug := flag.Bool("debug", false, "Log FFmpeg output")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Load config: %v", err)
		}
	}

	bindAddr := cfg.Server.Bind
	if *bind != "" {
		bindAddr = *bind
	}
	ffmpegPath := cfg.FFmpeg.Path
	if *ffmpegBin != "" {
		ffmpegPath = *ffmpegBin
	}

	lg := logger.New("reelprobe: ")
	logger.SetDebug(lg, cfg.Log.Debug || *debug)

	validator, err := ffmpeg.NewValidator(cfg.FFmpeg.Allow, cfg.FFmpeg.Block)
	if err != nil {
		log.Fatalf("Path expressions: %v", err)
	}

	// 找不到可用的 ffmpeg 时直接退出, 不启动任何探测
	ff, err := ffmpeg.New(ffmpeg.Config{
		Binary:         ffmpegPath,
		MaxLogLines:    cfg.FFmpeg.LogLines,
		StaleTimeout:   cfg.Probe.StaleTimeoutDuration(),
		ValidatorInput: validator,
		Monitor:        true,
	})
	if err != nil {
		log.Fatalf("FFmpeg init: %v", err)
	}
	lg.Info("using ffmpeg %s", ff.Skills().FFmpeg.Version)

	thumbs := thumbnail.NewDir(cfg.Probe.ThumbnailDir)
	prober := probe.NewProber(probe.Config{
		FFmpeg:     ff,
		Thumbnails: thumbnail.NewExtractor(ff, thumbs, lg),
		Planner:    thumbnail.Planner{Width: cfg.Probe.ThumbnailWidth, Height: cfg.Probe.ThumbnailHeight},
		Logger:     lg,
	})

	var watcher *watch.Watcher
	if cfg.Probe.Watch() {
		watcher, err = watch.New(lg)
		if err != nil {
			log.Fatalf("File watcher: %v", err)
		}
	}
	coordinator := probe.NewCoordinator(prober, watcherOrNil(watcher), lg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := queue.NewStore(ctx, queue.Config{FFmpeg: ff, Coordinator: coordinator, Logger: lg})
	handler := api.NewHandler(store, ff, thumbs)

	if paths := absPaths(flag.Args()); len(paths) > 0 {
		store.Add(paths)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default())
	handler.Register(r)

	srv := &http.Server{Addr: bindAddr, Handler: r}
	go func() {
		log.Printf("ReelProbe listening on %s", bindAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	lg.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown: %v", err)
	}

	cancel()
	coordinator.CancelAll()
	coordinator.Wait()

	if watcher != nil {
		watcher.Close()
	}
	if cfg.Probe.PurgeThumbnails {
		if err := thumbs.Purge(); err != nil {
			lg.Error("purge thumbnails: %v", err)
		}
	}

	stats := ff.Stats()
	lg.Info("ran ffmpeg %d times (%d killed), peak memory %d bytes", stats.Started, stats.Killed, stats.PeakMemory)
}

// a nil *watch.Watcher must not end up as a non-nil probe.Watcher
func watcherOrNil(w *watch.Watcher) probe.Watcher {
	if w == nil {
		return nil
	}
	return w
}

func absPaths(args []string) []string {
	var out []string
	for _, arg := range args {
		p, err := filepath.Abs(arg)
		if err != nil {
			log.Printf("Skip %s: %v", arg, err)
			continue
		}
		out = append(out, p)
	}
	return out
}
