package effects_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/effects"
	"github.com/roach88/pantry/internal/model"
	"github.com/roach88/pantry/internal/nav"
	"github.com/roach88/pantry/internal/remote"
	"github.com/roach88/pantry/internal/session"
	"github.com/roach88/pantry/internal/state"
	"github.com/roach88/pantry/internal/testutil"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store    *state.Store
	backend  *testutil.RemoteBackend
	router   *testutil.RecordingRouter
	storage  *session.Storage
	clock    *testutil.ManualClock
	pipeline *effects.Pipeline
	sub      *state.Subscription
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := testutil.NewRemoteBackend()
	t.Cleanup(backend.Close)

	storage, err := session.OpenStorage(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	f := &fixture{
		store:   state.NewStore(),
		backend: backend,
		router:  &testutil.RecordingRouter{},
		storage: storage,
		clock:   testutil.NewManualClock(baseTime),
	}
	client := remote.New(backend.URL(), backend.URL(), "test-key")
	f.pipeline = effects.New(f.store, client, storage, f.router, effects.WithNow(f.clock.Now))

	// Observe everything the pipeline dispatches. Subscribed before Run so
	// no follow-up can slip past.
	f.sub = f.store.Subscribe()
	t.Cleanup(f.sub.Close)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.pipeline.Run(context.Background())
	}()
	t.Cleanup(func() {
		f.store.Close()
		<-done
		f.pipeline.Wait()
	})

	return f
}

// await returns the first change matching pred, failing the test after a
// generous timeout.
func (f *fixture) await(t *testing.T, pred func(state.Change) bool) state.Change {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		c, ok := f.sub.Next(ctx)
		require.True(t, ok, "change stream ended before the awaited transition")
		if pred(c) {
			return c
		}
	}
}

func isTransition[T state.Transition](c state.Change) bool {
	_, ok := c.Transition.(T)
	return ok
}

func scriptAuthSuccess(b *testutil.RemoteBackend) {
	b.ScriptAuth(testutil.AuthScript{Response: map[string]string{
		"idToken":   "T",
		"email":     "a@b.com",
		"expiresIn": "3600",
		"localId":   "U1",
	}})
}

func TestLogin_SuccessInstallsSessionPersistsAndRedirects(t *testing.T) {
	f := newFixture(t)
	scriptAuthSuccess(f.backend)

	f.store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "secret"})

	c := f.await(t, isTransition[state.Login])
	login := c.Transition.(state.Login)
	assert.True(t, login.Redirect)
	assert.Equal(t, "U1", login.Session.UserID)
	assert.Equal(t, "T", login.Session.Token)
	assert.Equal(t, "a@b.com", login.Session.Email)
	// expiresIn 3600 seconds: logout due 3,600,000 ms after now.
	assert.Equal(t, baseTime.Add(time.Hour), login.Session.ExpiresAt)

	require.NotNil(t, c.State.Session.Session)
	assert.True(t, c.State.Session.Authenticated())

	persisted, ok, err := f.storage.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T", persisted.Token)

	require.Eventually(t, func() bool {
		return f.router.Last() == nav.RouteRecipes
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLogin_FailureMapsServerCode(t *testing.T) {
	f := newFixture(t)
	f.backend.ScriptAuth(testutil.AuthScript{Status: http.StatusBadRequest, Code: "INVALID_PASSWORD"})

	f.store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "wrong"})

	c := f.await(t, isTransition[state.LoginFail])
	assert.Equal(t, "The password is invalid", c.Transition.(state.LoginFail).Message)
	assert.Nil(t, c.State.Session.Session)
	assert.False(t, c.State.Session.Loading)
	assert.Empty(t, f.router.Routes(), "failed login must not navigate")
}

func TestLogin_UnknownServerCodeFallsBack(t *testing.T) {
	f := newFixture(t)
	f.backend.ScriptAuth(testutil.AuthScript{Status: http.StatusBadRequest, Code: "WEIRD_NEW_CODE"})

	f.store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "pw"})

	c := f.await(t, isTransition[state.LoginFail])
	assert.Equal(t, "An unknown error occurred!", c.Transition.(state.LoginFail).Message)
}

func TestSignup_SuccessBehavesLikeLogin(t *testing.T) {
	f := newFixture(t)
	scriptAuthSuccess(f.backend)

	f.store.Dispatch(state.SignupStart{Email: "a@b.com", Password: "secret"})

	c := f.await(t, isTransition[state.Login])
	assert.True(t, c.Transition.(state.Login).Redirect)
	assert.Equal(t, 1, f.backend.AuthCalls())
}

func TestSignup_EmailExists(t *testing.T) {
	f := newFixture(t)
	f.backend.ScriptAuth(testutil.AuthScript{Status: http.StatusBadRequest, Code: "EMAIL_EXISTS"})

	f.store.Dispatch(state.SignupStart{Email: "a@b.com", Password: "secret"})

	c := f.await(t, isTransition[state.LoginFail])
	assert.Equal(t, "This Email already exists.", c.Transition.(state.LoginFail).Message)
}

func TestAutoLogin_RestoresValidSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.storage.Save(model.Session{
		UserID:    "U1",
		Email:     "a@b.com",
		Token:     "T",
		ExpiresAt: baseTime.Add(30 * time.Minute),
	}))

	f.store.Dispatch(state.AutoLogin{})

	c := f.await(t, isTransition[state.Login])
	login := c.Transition.(state.Login)
	assert.False(t, login.Redirect, "restored sessions do not redirect")
	assert.Equal(t, "U1", login.Session.UserID)
	assert.Empty(t, f.router.Routes())
}

func TestAutoLogin_ExpiredSessionLogsOutImmediately(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.storage.Save(model.Session{
		UserID:    "U1",
		Token:     "T",
		ExpiresAt: baseTime.Add(-time.Minute),
	}))

	f.store.Dispatch(state.AutoLogin{})

	c := f.await(t, isTransition[state.Logout])
	assert.Nil(t, c.State.Session.Session)

	// The logout effect clears the stale blob and redirects to login.
	require.Eventually(t, func() bool {
		_, ok, err := f.storage.Load()
		return err == nil && !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return f.router.Last() == nav.RouteLogin
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAutoLogin_NoPersistedSessionIsNoop(t *testing.T) {
	f := newFixture(t)

	f.store.Dispatch(state.AutoLogin{})
	// Marker transition: the only thing following auto-login must be the
	// marker itself, i.e. auto-login dispatched nothing.
	f.store.Dispatch(state.FetchRecipes{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, ok := f.sub.Next(ctx)
	require.True(t, ok)
	assert.IsType(t, state.AutoLogin{}, c.Transition)

	c, ok = f.sub.Next(ctx)
	require.True(t, ok)
	assert.IsType(t, state.FetchRecipes{}, c.Transition)
}

func TestLogout_CancelsTimerClearsStorageNavigates(t *testing.T) {
	f := newFixture(t)
	scriptAuthSuccess(f.backend)

	f.store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "secret"})
	f.await(t, isTransition[state.Login])

	f.store.Dispatch(state.Logout{})

	require.Eventually(t, func() bool {
		_, ok, err := f.storage.Load()
		return err == nil && !ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return f.router.Last() == nav.RouteLogin
	}, 2*time.Second, 10*time.Millisecond)
	assert.Nil(t, f.store.State().Session.Session)
}

// A zero-second token expiry arms a timer that fires immediately: the
// outcome is a clean logout dispatch, not a hang or a crash.
func TestLogin_ImmediatelyExpiringTokenLogsOut(t *testing.T) {
	f := newFixture(t)
	f.backend.ScriptAuth(testutil.AuthScript{Response: map[string]string{
		"idToken":   "T",
		"email":     "a@b.com",
		"expiresIn": "0",
		"localId":   "U1",
	}})

	f.store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "secret"})

	f.await(t, isTransition[state.Login])
	c := f.await(t, isTransition[state.Logout])
	assert.Nil(t, c.State.Session.Session)
}

func TestFetchRecipes_SuccessSetsCollection(t *testing.T) {
	f := newFixture(t)
	f.backend.SetRecipes([]model.Recipe{
		{ID: "r1", Name: "Goulash"}, // nil ingredients on the wire
		{ID: "r2", Name: "Ramen", Ingredients: []model.Ingredient{{Name: "Noodles", Amount: 1, Unit: "pack"}}},
	})

	f.store.Dispatch(state.FetchRecipes{})

	c := f.await(t, isTransition[state.SetRecipes])
	recipes := c.State.Recipes.Recipes
	require.Len(t, recipes, 2)
	assert.NotNil(t, recipes[0].Ingredients, "null ingredient lists are normalized to empty")
	assert.Empty(t, c.State.Recipes.Error)
}

func TestFetchRecipes_FailureDispatchesTypedTransition(t *testing.T) {
	f := newFixture(t)
	f.backend.FailRecipesWith(http.StatusInternalServerError)

	f.store.Dispatch(state.FetchRecipes{})

	c := f.await(t, isTransition[state.RecipesFetchFailed])
	assert.NotEmpty(t, c.State.Recipes.Error)
	assert.Empty(t, c.State.Recipes.Recipes, "prior slice value stays in place")
}

func TestStoreRecipes_PutsCurrentCollection(t *testing.T) {
	f := newFixture(t)

	f.store.Dispatch(state.SetRecipes{Recipes: []model.Recipe{{ID: "r1", Name: "Goulash"}}})
	f.store.Dispatch(state.StoreRecipes{})

	require.Eventually(t, func() bool {
		return f.backend.RecipePuts() == 1
	}, 2*time.Second, 10*time.Millisecond)
	got := f.backend.Recipes()
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

func loginAs(t *testing.T, f *fixture, userID string) {
	t.Helper()
	f.store.Dispatch(state.Login{Session: model.Session{
		UserID:    userID,
		Email:     "a@b.com",
		Token:     "T",
		ExpiresAt: baseTime.Add(time.Hour),
	}})
	f.await(t, isTransition[state.Login])
}

func TestFetchShoppingList_KeyedByAuthenticatedUser(t *testing.T) {
	f := newFixture(t)
	loginAs(t, f, "U1")
	f.backend.SetList("U1", []model.Ingredient{{Name: "Salt", Amount: 1, Unit: "tsp"}})

	f.store.Dispatch(state.FetchShoppingList{})

	c := f.await(t, isTransition[state.SetIngredients])
	require.Len(t, c.State.ShoppingList.Ingredients, 1)
	assert.Equal(t, "Salt", c.State.ShoppingList.Ingredients[0].Name)
}

func TestFetchShoppingList_WithoutSessionFails(t *testing.T) {
	f := newFixture(t)

	f.store.Dispatch(state.FetchShoppingList{})

	c := f.await(t, isTransition[state.ShoppingListFetchFailed])
	assert.Equal(t, "not authenticated", c.Transition.(state.ShoppingListFetchFailed).Message)
}

func TestShoppingListMutations_PersistMergedList(t *testing.T) {
	f := newFixture(t)
	loginAs(t, f, "U1")

	f.store.Dispatch(state.AddIngredients{Ingredients: []model.Ingredient{
		{Name: "Flour", Amount: 2, Unit: "cup"},
		{Name: "flour", Amount: 1, Unit: "cup"},
	}})

	require.Eventually(t, func() bool {
		return f.backend.ListPuts("U1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := f.backend.List("U1")
	require.Len(t, got, 1)
	assert.Equal(t, "Flour", got[0].Name)
	assert.Equal(t, float64(3), got[0].Amount)
}

// Login and signup supersede within their own stream only: a login trigger
// must not discard the result of an in-flight signup.
func TestAuth_LoginDoesNotSupersedeInflightSignup(t *testing.T) {
	signupArrived := make(chan struct{}, 1)
	releaseSignup := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "signUp") {
			signupArrived <- struct{}{}
			<-releaseSignup
			json.NewEncoder(w).Encode(map[string]string{
				"idToken": "S", "email": "a@b.com", "expiresIn": "3600", "localId": "US",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"idToken": "L", "email": "a@b.com", "expiresIn": "3600", "localId": "UL",
		})
	}))
	defer srv.Close()

	storage, err := session.OpenStorage(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer storage.Close()

	store := state.NewStore()
	pipeline := effects.New(store, remote.New(srv.URL, srv.URL, "k"), storage, &testutil.RecordingRouter{})

	sub := store.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		pipeline.Run(context.Background())
	}()
	defer func() {
		store.Close()
		<-done
		pipeline.Wait()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store.Dispatch(state.SignupStart{Email: "a@b.com", Password: "pw"})
	select {
	case <-signupArrived:
	case <-ctx.Done():
		t.Fatal("signup never reached the server")
	}

	// A login triggered while the signup is still in flight.
	store.Dispatch(state.LoginStart{Email: "a@b.com", Password: "pw"})

	awaitLogin := func() state.Login {
		for {
			c, ok := sub.Next(ctx)
			require.True(t, ok)
			if login, isLogin := c.Transition.(state.Login); isLogin {
				return login
			}
		}
	}

	assert.Equal(t, "L", awaitLogin().Session.Token)

	close(releaseSignup)
	assert.Equal(t, "S", awaitLogin().Session.Token, "signup result must still land")
	assert.Equal(t, "US", store.State().Session.Session.UserID)
}

// Two overlapping fetches: the result of the older in-flight call is
// discarded, the newest trigger wins no matter the arrival order.
func TestFetchRecipes_SwitchToLatestDiscardsStaleResult(t *testing.T) {
	first := []model.Recipe{{ID: "stale", Name: "Old"}}
	second := []model.Recipe{{ID: "fresh", Name: "New"}}

	arrivals := make(chan struct{}, 2)
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})

	var served atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := served.Add(1)
		arrivals <- struct{}{}
		if n == 1 {
			<-releaseFirst
			json.NewEncoder(w).Encode(first)
			return
		}
		<-releaseSecond
		json.NewEncoder(w).Encode(second)
	}))
	defer srv.Close()

	storage, err := session.OpenStorage(filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer storage.Close()

	store := state.NewStore()
	router := &testutil.RecordingRouter{}
	pipeline := effects.New(store, remote.New(srv.URL, srv.URL, "k"), storage, router)

	sub := store.Subscribe()
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		pipeline.Run(context.Background())
	}()
	defer func() {
		store.Close()
		<-done
		pipeline.Wait()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// First trigger; wait until its request is in flight before the second
	// trigger so request order matches trigger order.
	store.Dispatch(state.FetchRecipes{})
	select {
	case <-arrivals:
	case <-ctx.Done():
		t.Fatal("first fetch never reached the server")
	}

	store.Dispatch(state.FetchRecipes{})
	select {
	case <-arrivals:
	case <-ctx.Done():
		t.Fatal("second fetch never reached the server")
	}

	// Let the newest finish first, then the stale one.
	close(releaseSecond)

	var set state.Change
	for {
		c, ok := sub.Next(ctx)
		require.True(t, ok)
		if _, isSet := c.Transition.(state.SetRecipes); isSet {
			set = c
			break
		}
	}
	require.Len(t, set.State.Recipes.Recipes, 1)
	assert.Equal(t, "fresh", set.State.Recipes.Recipes[0].ID)

	close(releaseFirst)
	pipeline.Wait()

	// The stale result never landed: still exactly the fresh collection.
	got := store.State().Recipes.Recipes
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}
