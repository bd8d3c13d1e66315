// Command preview shows the measured garment and lets the user switch between front, side
// and back views from the window (keys 1, 2, 3) or the console on stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"uniform-preview/internal/config"
	"uniform-preview/internal/graphics"
	"uniform-preview/internal/logger"
	"uniform-preview/internal/measure"
	"uniform-preview/internal/metrics"
	"uniform-preview/internal/preview"
	"uniform-preview/internal/raster"
	"uniform-preview/internal/render"
	"uniform-preview/internal/view"
)

// raylib must be driven from the thread that created the window.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "preview:", err)
		os.Exit(1)
	}
}

func run() error {
	var flags config.Flags
	cfgPath := flag.String("config", config.DefaultPath, "YAML settings file")
	flag.StringVar(&flags.Backend, "backend", "", "raster or raylib")
	flag.IntVar(&flags.Width, "width", 0, "surface width (0 uses the fallback)")
	flag.IntVar(&flags.Height, "height", 0, "surface height (0 uses the fallback)")
	flag.IntVar(&flags.FPS, "fps", 0, "frames per second")
	flag.StringVar(&flags.Measurements, "measurements", "", "JSON measurement file to watch")
	flag.StringVar(&flags.MetricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	flag.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	flag.StringVar(&flags.SnapshotDir, "snapshot-dir", "", "directory for periodic snapshots")
	flag.IntVar(&flags.SnapshotEvery, "snapshot-every", 0, "write a snapshot every N frames (raster only)")
	envPath := flag.String("env", config.DefaultEnvFile, "KEY=VALUE file applied before the settings file")
	flag.Parse()

	if err := config.LoadEnvFile(*envPath); err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, FilePath: cfg.Log.File})
	if err != nil {
		return err
	}
	defer log.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	initial := measure.Mock()
	if cfg.Measurements != "" {
		if rec, err := measure.Load(cfg.Measurements); err == nil {
			initial = rec
		} else {
			log.Warn("measurements not loaded, using mock record", zap.String("path", cfg.Measurements), zap.Error(err))
		}
	}

	var viewer *preview.Viewer
	onView := func(p view.Preset) {
		if err := viewer.RequestView(p); err != nil {
			log.Warn("view request ignored", zap.Stringer("preset", p), zap.Error(err))
		}
	}
	factory, err := newFactory(cfg, log.Logger, onView)
	if err != nil {
		return err
	}
	viewer, err = preview.New(preview.Options{
		Factory:        factory,
		HostSize:       func() (int, int) { return cfg.Width, cfg.Height },
		FallbackWidth:  cfg.FallbackWidth,
		FallbackHeight: cfg.FallbackHeight,
		FPS:            cfg.FPS,
		Metrics:        m,
		Log:            log.Logger,
		Initial:        initial,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Measurements != "" {
		g.Go(func() error {
			return measure.Watch(gctx, cfg.Measurements, log.Logger, viewer.OnMeasurementsChanged)
		})
	}
	if cfg.MetricsAddr != "" {
		serveMetrics(gctx, g, cfg.MetricsAddr, reg, log.Logger)
	}

	retry := make(chan struct{}, 1)
	console := newConsole(viewer, log, os.Stdout, func() {
		select {
		case retry <- struct{}{}:
		default:
		}
	}, stop)
	go func() {
		if err := console.Serve(gctx, os.Stdin, os.Stdout); err != nil {
			log.Warn("console stopped", zap.Error(err))
		}
	}()

	drive(gctx, viewer, retry, log.Logger)

	stop()
	if err := viewer.Unmount(); err != nil {
		log.Error("unmount", zap.Error(err))
	}
	return g.Wait()
}

// drive mounts the viewer and runs its loop on the calling (main) thread until ctx ends or
// the window is closed. A failed mount or render waits for a retry request.
func drive(ctx context.Context, v *preview.Viewer, retry <-chan struct{}, log *zap.Logger) {
	if err := v.Mount(ctx); err != nil {
		log.Error("preview unavailable, type retry to try again", zap.Error(err))
	}
	for {
		if v.Status().Phase == preview.Ready {
			if err := v.Run(ctx); err != nil {
				log.Error("render loop stopped", zap.Error(err))
			}
		}
		if ctx.Err() != nil || v.Status().Phase == preview.Disposed {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-retry:
			if err := v.Retry(ctx); err != nil {
				log.Error("retry failed", zap.Error(err))
			}
		}
	}
}

func newFactory(cfg config.Config, log *zap.Logger, onView func(view.Preset)) (render.Factory, error) {
	switch cfg.Backend {
	case config.BackendRaylib:
		return graphics.NewFactory(graphics.Options{
			FPS:     cfg.FPS,
			ShowFPS: cfg.ShowFPS,
			OnView:  onView,
			Log:     log,
		}), nil
	case config.BackendRaster:
		format, err := raster.ParseFormat(cfg.Snapshot.Format)
		if err != nil {
			return nil, err
		}
		return raster.NewFactory(raster.Options{
			Supersample:   cfg.Supersample,
			MaxPixels:     cfg.MaxPixels,
			SnapshotDir:   cfg.Snapshot.Dir,
			SnapshotEvery: cfg.Snapshot.Every,
			Format:        format,
			Log:           log,
		}), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	g.Go(func() error {
		log.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
