package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/pantry/internal/config"
	"github.com/roach88/pantry/internal/effects"
	"github.com/roach88/pantry/internal/nav"
	"github.com/roach88/pantry/internal/remote"
	"github.com/roach88/pantry/internal/session"
	"github.com/roach88/pantry/internal/state"
)

// opTimeout bounds how long a command waits for its follow-up transition.
const opTimeout = 30 * time.Second

// App is one fully wired engine instance: store, effect pipeline, session
// storage and the navigation guard, sharing one configuration.
type App struct {
	Config   config.Config
	Store    *state.Store
	Pipeline *effects.Pipeline
	Storage  *session.Storage
	Guard    *nav.Guard

	runDone chan struct{}
}

// openApp loads configuration and brings up the engine. The caller owns the
// returned App and must Close it.
func openApp(opts *RootOptions) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading configuration", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	storage, err := session.OpenStorage(cfg.SessionDBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening session database", err)
	}

	client := remote.New(cfg.RemoteBaseURL, cfg.AuthBaseURL, cfg.APIKey)
	store := state.NewStore()
	pipeline := effects.New(store, client, storage, nav.LogRouter{})

	app := &App{
		Config:   cfg,
		Store:    store,
		Pipeline: pipeline,
		Storage:  storage,
		Guard:    nav.NewGuard(store, pipeline),
		runDone:  make(chan struct{}),
	}
	go func() {
		defer close(app.runDone)
		pipeline.Run(context.Background())
	}()
	return app, nil
}

// Close drains the pipeline, waits out in-flight remote calls and releases
// the session database.
func (a *App) Close() {
	a.Store.Close()
	<-a.runDone
	a.Pipeline.Wait()
	if err := a.Storage.Close(); err != nil {
		slog.Error("closing session database", "error", err)
	}
}

// awaitChange blocks until the pipeline dispatches a change matching pred.
func awaitChange(ctx context.Context, sub *state.Subscription, pred func(state.Change) bool) (state.Change, error) {
	for {
		c, ok := sub.Next(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return state.Change{}, WrapExitError(ExitCommandError, "timed out waiting for the backend", err)
			}
			return state.Change{}, NewExitError(ExitCommandError, "engine stopped before the operation finished")
		}
		if pred(c) {
			return c, nil
		}
	}
}
