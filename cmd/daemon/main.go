package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/wallcycle/internal/config"
	"github.com/genricoloni/wallcycle/internal/domain"
	"github.com/genricoloni/wallcycle/internal/engine"
	"github.com/genricoloni/wallcycle/internal/executor"
	"github.com/genricoloni/wallcycle/internal/monitor"
	"github.com/genricoloni/wallcycle/internal/notify"
	"github.com/genricoloni/wallcycle/internal/processor"
	"github.com/genricoloni/wallcycle/internal/source"
	"github.com/genricoloni/wallcycle/internal/timer"
	"github.com/genricoloni/wallcycle/internal/watcher"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const debugEnv = "WALLCYCLE_DEBUG"

// CoreOptions wires everything that does not talk to the desktop
var CoreOptions = fx.Options(
	fx.Provide(
		newLogger,
		fx.Annotate(config.NewAppConfig, fx.As(new(domain.Config))),
		fx.Annotate(source.NewDirectoryType, fx.ResultTags(`group:"sources"`)),
		fx.Annotate(config.NewStore, fx.ParamTags(``, ``, `group:"sources"`)),
		fx.Annotate(processor.NewLabelCompositor, fx.As(new(domain.Compositor))),
		notify.NewHub,
		newEngine,
		newDriver,
		newWatcher,
	),
	fx.Invoke(registerHooks),
)

// PlatformOptions provides the desktop facing capabilities
var PlatformOptions = fx.Options(
	fx.Provide(
		monitor.NewScreenResolution,
		fx.Annotate(executor.NewExecutor, fx.As(new(domain.Executor))),
	),
)

// AppOptions is the complete application graph
var AppOptions = fx.Options(
	CoreOptions,
	PlatformOptions,
)

func main() {
	app := fx.New(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions,
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the application
	if err := app.Start(ctx); err != nil {
		os.Exit(1)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	// Stop the application gracefully
	if err := app.Stop(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newLogger creates a new zap logger instance.
// A development logger is used when WALLCYCLE_DEBUG is set.
func newLogger() (*zap.Logger, error) {
	if os.Getenv(debugEnv) != "" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newEngine(
	logger *zap.Logger,
	store *config.Store,
	exec domain.Executor,
	comp domain.Compositor,
	hub *notify.Hub,
	cfg domain.Config,
) *engine.Engine {
	return engine.NewEngine(logger, store, exec, comp, hub, cfg)
}

func newDriver(logger *zap.Logger, e *engine.Engine) *timer.Driver {
	return timer.NewDriver(logger, e)
}

func newWatcher(logger *zap.Logger, e *engine.Engine, cfg domain.Config) *watcher.Watcher {
	return watcher.NewWatcher(logger, e, cfg)
}

// registerHooks starts the engine, the periodic driver and the config watcher
// in that order and stops them in reverse
func registerHooks(
	lc fx.Lifecycle,
	logger *zap.Logger,
	e *engine.Engine,
	d *timer.Driver,
	w *watcher.Watcher,
	exec domain.Executor,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Wallcycle daemon starting")
			return e.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			if c, ok := exec.(io.Closer); ok {
				return c.Close()
			}
			return nil
		},
	})
	lc.Append(fx.StartStopHook(d.Start, d.Stop))
	lc.Append(fx.StartStopHook(w.Start, w.Stop))
}
