package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/logrouter/internal/config"
	"github.com/fyrsmithlabs/logrouter/internal/logging"
	"github.com/fyrsmithlabs/logrouter/internal/logwatch"
	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

const envPrefix = "LOGROUTER_"

// watchSettings controls the log file watcher.
type watchSettings struct {
	Watch struct {
		Enabled  bool            `koanf:"enabled"`
		Debounce config.Duration `koanf:"debounce"`
	} `koanf:"watch"`
}

// app is a router composed from configuration, with its watcher and meter.
type app struct {
	cfg     *logging.Config
	router  *logging.Router
	runID   string
	reader  *sdkmetric.ManualReader
	meter   *sdkmetric.MeterProvider
	watcher *logwatch.Watcher
	cancel  context.CancelFunc
	prev    *logging.Router
}

// loadConfig builds the router config: defaults, then environment, then flags.
func loadConfig(flags *rootFlags) (*logging.Config, watchSettings, error) {
	cfg := logging.NewDefaultConfig()
	if err := config.LoadEnv(envPrefix, cfg); err != nil {
		return nil, watchSettings{}, err
	}

	var ws watchSettings
	ws.Watch.Debounce = config.Duration(logwatch.DefaultDebounce)
	if err := config.LoadEnv(envPrefix, &ws); err != nil {
		return nil, watchSettings{}, err
	}

	if flags.level != "" {
		if err := cfg.Level.UnmarshalText([]byte(flags.level)); err != nil {
			return nil, watchSettings{}, fmt.Errorf("--level: %w", err)
		}
	}
	if len(flags.categories) > 0 {
		var overrides logging.CategoryLevels
		if err := overrides.UnmarshalText([]byte(strings.Join(flags.categories, ","))); err != nil {
			return nil, watchSettings{}, fmt.Errorf("--category-level: %w", err)
		}
		if cfg.Categories == nil {
			cfg.Categories = make(logging.CategoryLevels)
		}
		for name, level := range overrides {
			cfg.Categories[name] = level
		}
	}
	if flags.filePath != "" {
		cfg.File.Enabled = true
		cfg.File.Path = flags.filePath
	}
	if flags.noConsole {
		cfg.Console.Enabled = false
	}
	if flags.color != "" {
		cfg.Console.Color = flags.color
	}
	if flags.watch {
		ws.Watch.Enabled = true
	}
	return cfg, ws, nil
}

// setupApp composes the router, installs it as the process default and
// starts the file watcher when enabled. Call close when done.
func setupApp(ctx context.Context, flags *rootFlags) (*app, error) {
	cfg, ws, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	diag := logging.NewDiagnosticLogger()
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics := logging.NewMetricsWithMeter(meter.Meter("github.com/fyrsmithlabs/logrouter/cmd/logrouter"), diag)

	router, err := logging.NewRouterFromConfig(cfg, diag, metrics)
	if err != nil {
		_ = meter.Shutdown(ctx)
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		router: router,
		runID:  uuid.NewString(),
		reader: reader,
		meter:  meter,
	}
	a.prev = logging.SetDefault(router)

	if ws.Watch.Enabled {
		if err := a.startWatcher(ctx, diag, ws.Watch.Debounce.Duration()); err != nil {
			_ = a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) startWatcher(ctx context.Context, diag *zap.Logger, debounce time.Duration) error {
	var targets []logwatch.Reopener
	for _, s := range a.router.Sinks() {
		if r, ok := s.(logwatch.Reopener); ok {
			targets = append(targets, r)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	w, err := logwatch.New(targets,
		logwatch.WithLogger(diag.Named("watch")),
		logwatch.WithDebounce(debounce),
	)
	if err != nil {
		return fmt.Errorf("starting log watcher: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	if err := w.Start(watchCtx); err != nil {
		cancel()
		w.Stop()
		return fmt.Errorf("starting log watcher: %w", err)
	}
	a.watcher = w
	a.cancel = cancel
	return nil
}

// fileSinks returns the router's file sinks.
func (a *app) fileSinks() []*logging.RotatingFileSink {
	var out []*logging.RotatingFileSink
	for _, s := range a.router.Sinks() {
		if f, ok := s.(*logging.RotatingFileSink); ok {
			out = append(out, f)
		}
	}
	return out
}

// close stops the watcher, closes every sink and restores the previous
// default router.
func (a *app) close() error {
	if a.watcher != nil {
		a.cancel()
		a.watcher.Stop()
	}
	err := a.router.Close()
	logging.SetDefault(a.prev)
	return errors.Join(err, a.meter.Shutdown(context.Background()))
}
