// Package effects is the asynchronous side of the engine: handlers bound
// to transition types that call the remote store, drive the session timer,
// and dispatch follow-up transitions. Effects never mutate state directly.
//
// Each triggering stream has switch-to-latest semantics: when a fetch is
// retriggered before the previous one completes, the older result is
// discarded in favor of the newest trigger. This is the asynchronous
// last-write-wins that keeps overlapping fetches from landing out of order.
package effects

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/nav"
	"github.com/roach88/pantry/internal/remote"
	"github.com/roach88/pantry/internal/session"
	"github.com/roach88/pantry/internal/state"
)

// Pipeline subscribes to the store's change stream and runs the effects.
//
// The pipeline owns the session timer: its expiry dispatches Logout. Local
// work (restore, timer, navigation) runs inline in the processing loop;
// remote calls run in their own goroutines so multiple effects can have
// outstanding requests concurrently.
type Pipeline struct {
	store   *state.Store
	client  *remote.Client
	storage *session.Storage
	router  nav.Router
	timer   *session.Timer
	now     func() time.Time

	// Per-stream trigger generations for switch-to-latest. Login and
	// signup are distinct streams: a login trigger supersedes only an
	// earlier login, never an in-flight signup, and vice versa.
	recipesFetchGen atomic.Int64
	listFetchGen    atomic.Int64
	loginGen        atomic.Int64
	signupGen       atomic.Int64

	inflight sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithNow overrides the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New wires a pipeline over the given collaborators.
func New(store *state.Store, client *remote.Client, storage *session.Storage, router nav.Router, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		client:  client,
		storage: storage,
		router:  router,
		now:     time.Now,
	}
	p.timer = session.NewTimer(func() {
		slog.Info("session expired, logging out")
		store.Dispatch(state.Logout{})
	})
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes dispatched transitions until the context is cancelled or
// the store closes. Call from exactly one goroutine.
func (p *Pipeline) Run(ctx context.Context) {
	sub := p.store.Subscribe()
	defer sub.Close()

	slog.Info("effect pipeline starting")
	for {
		change, ok := sub.Next(ctx)
		if !ok {
			slog.Info("effect pipeline stopping")
			return
		}
		p.handle(ctx, change)
	}
}

// Wait blocks until all in-flight remote calls have finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

func (p *Pipeline) handle(ctx context.Context, c state.Change) {
	switch t := c.Transition.(type) {
	case state.LoginStart:
		p.authenticate(ctx, t.Email, t.Password, false)

	case state.SignupStart:
		p.authenticate(ctx, t.Email, t.Password, true)

	case state.AutoLogin:
		p.RestoreSession()

	case state.Login:
		if t.Redirect {
			p.router.Navigate(nav.RouteRecipes)
		}

	case state.Logout:
		p.timer.Cancel()
		if err := p.storage.Clear(); err != nil {
			slog.Error("clearing persisted session failed", "error", err)
		}
		p.router.Navigate(nav.RouteLogin)

	case state.FetchRecipes:
		p.fetchRecipes(ctx)

	case state.StoreRecipes:
		p.storeRecipes(ctx, c.State.Recipes.Recipes)

	case state.FetchShoppingList:
		p.fetchShoppingList(ctx, c.State)

	case state.AddIngredient, state.AddIngredients, state.UpdateIngredient, state.DeleteIngredients:
		p.storeShoppingList(ctx, c.State)
	}
}

// go1 runs fn as one tracked in-flight effect.
func (p *Pipeline) go1(fn func()) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		fn()
	}()
}

func (p *Pipeline) fetchRecipes(ctx context.Context) {
	gen := p.recipesFetchGen.Add(1)
	p.go1(func() {
		recipes, err := p.client.FetchRecipes(ctx)
		if gen != p.recipesFetchGen.Load() {
			slog.Debug("recipes fetch superseded", "gen", gen)
			return
		}
		if err != nil {
			slog.Error("recipes fetch failed", "error", err)
			p.store.Dispatch(state.RecipesFetchFailed{Message: err.Error()})
			return
		}
		p.store.Dispatch(state.SetRecipes{Recipes: recipes})
	})
}

// storeRecipes persists the collection captured at trigger time.
// Fire-and-forget: failures are logged, the prior remote value stays.
func (p *Pipeline) storeRecipes(ctx context.Context, recipes []model.Recipe) {
	p.go1(func() {
		if err := p.client.StoreRecipes(ctx, recipes); err != nil {
			slog.Error("recipes store failed", "error", err)
		}
	})
}

func (p *Pipeline) fetchShoppingList(ctx context.Context, s state.AppState) {
	if !s.Session.Authenticated() {
		slog.Warn("shopping list fetch without session")
		p.store.Dispatch(state.ShoppingListFetchFailed{Message: "not authenticated"})
		return
	}
	userID := s.Session.Session.UserID

	gen := p.listFetchGen.Add(1)
	p.go1(func() {
		ingredients, err := p.client.FetchShoppingList(ctx, userID)
		if gen != p.listFetchGen.Load() {
			slog.Debug("shopping list fetch superseded", "gen", gen)
			return
		}
		if err != nil {
			slog.Error("shopping list fetch failed", "error", err)
			p.store.Dispatch(state.ShoppingListFetchFailed{Message: err.Error()})
			return
		}
		p.store.Dispatch(state.SetIngredients{Ingredients: ingredients})
	})
}

// storeShoppingList persists the list captured at trigger time, keyed by
// the authenticated user. Fire-and-forget.
func (p *Pipeline) storeShoppingList(ctx context.Context, s state.AppState) {
	if !s.Session.Authenticated() {
		slog.Warn("shopping list store without session")
		return
	}
	userID := s.Session.Session.UserID
	ingredients := s.ShoppingList.Ingredients

	p.go1(func() {
		if err := p.client.StoreShoppingList(ctx, userID, ingredients); err != nil {
			slog.Error("shopping list store failed", "error", err)
		}
	})
}
