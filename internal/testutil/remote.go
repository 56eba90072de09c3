package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/roach88/pantry/internal/model"
)

// AuthScript controls what the backend's identity endpoint answers.
type AuthScript struct {
	// Status and Code describe a structured failure when Status is not 2xx.
	Status int
	Code   string
	// Response is the success payload when Status is 0 or 2xx.
	Response map[string]string
}

// RemoteBackend is a scripted in-process stand-in for the remote document
// store and the identity endpoint, wired through httptest.
//
// Thread-safe: handlers run on the server's goroutines while tests script
// and inspect from their own.
type RemoteBackend struct {
	Server *httptest.Server

	mu         sync.Mutex
	recipes    []model.Recipe
	lists      map[string][]model.Ingredient
	recipePuts int
	listPuts   map[string]int
	recipesErr int // non-zero: GET /Recipes fails with this status
	auth       AuthScript
	authCalls  int
}

// NewRemoteBackend starts the backend. Callers must Close it.
func NewRemoteBackend() *RemoteBackend {
	b := &RemoteBackend{
		lists:    make(map[string][]model.Ingredient),
		listPuts: make(map[string]int),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.handle))
	return b
}

// URL is the base URL for both the document store and the auth endpoint.
func (b *RemoteBackend) URL() string { return b.Server.URL }

// Close shuts the backend down.
func (b *RemoteBackend) Close() { b.Server.Close() }

// SetRecipes scripts the recipe collection served on fetch.
func (b *RemoteBackend) SetRecipes(recipes []model.Recipe) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recipes = recipes
}

// Recipes returns the collection last stored by a PUT (or scripted).
func (b *RemoteBackend) Recipes() []model.Recipe {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Recipe(nil), b.recipes...)
}

// RecipePuts returns how many recipe-collection PUTs arrived.
func (b *RemoteBackend) RecipePuts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recipePuts
}

// FailRecipesWith makes recipe fetches fail with the given status.
// Zero restores normal service.
func (b *RemoteBackend) FailRecipesWith(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recipesErr = status
}

// SetList scripts a user's shopping list.
func (b *RemoteBackend) SetList(userID string, list []model.Ingredient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists[userID] = list
}

// List returns a user's current shopping list as last PUT (or scripted).
func (b *RemoteBackend) List(userID string) []model.Ingredient {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Ingredient(nil), b.lists[userID]...)
}

// ListPuts returns how many shopping-list PUTs arrived for a user.
func (b *RemoteBackend) ListPuts(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listPuts[userID]
}

// ScriptAuth controls the next identity endpoint responses.
func (b *RemoteBackend) ScriptAuth(script AuthScript) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = script
}

// AuthCalls returns how many identity requests arrived.
func (b *RemoteBackend) AuthCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authCalls
}

func (b *RemoteBackend) handle(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/accounts:"):
		b.handleAuth(w)
	case r.URL.Path == "/Recipes/db.json":
		b.handleRecipes(w, r)
	case strings.HasSuffix(r.URL.Path, "/ShoppingList/db.json"):
		userID := strings.Trim(strings.TrimSuffix(r.URL.Path, "/ShoppingList/db.json"), "/")
		b.handleList(w, r, userID)
	default:
		http.NotFound(w, r)
	}
}

func (b *RemoteBackend) handleAuth(w http.ResponseWriter) {
	b.mu.Lock()
	script := b.auth
	b.authCalls++
	b.mu.Unlock()

	if script.Status != 0 && (script.Status < 200 || script.Status > 299) {
		w.WriteHeader(script.Status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": script.Code},
		})
		return
	}
	json.NewEncoder(w).Encode(script.Response)
}

func (b *RemoteBackend) handleRecipes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if b.recipesErr != 0 {
			w.WriteHeader(b.recipesErr)
			return
		}
		json.NewEncoder(w).Encode(b.recipes)
	case http.MethodPut:
		var recipes []model.Recipe
		if err := json.NewDecoder(r.Body).Decode(&recipes); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.recipes = recipes
		b.recipePuts++
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *RemoteBackend) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(b.lists[userID])
	case http.MethodPut:
		var list []model.Ingredient
		if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b.lists[userID] = list
		b.listPuts[userID]++
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
