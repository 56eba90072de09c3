// Package remote is the HTTP client for the two external collaborators:
// the document store holding recipe and shopping-list collections, and the
// identity endpoint that issues bearer tokens.
//
// Every write is a full-collection PUT; documents are never patched over
// the wire.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/pantry/internal/model"
)

// Client talks to the remote document store and the auth endpoint.
// Safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	authURL string
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client. baseURL is the document store root, authURL the
// identity endpoint root, apiKey the identity endpoint key.
func New(baseURL, authURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		authURL: strings.TrimRight(authURL, "/"),
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError reports a non-2xx response from the document store.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
}

// FetchRecipes loads the whole recipe collection. A null document or a
// recipe with a null ingredient list is normalized to empty.
func (c *Client) FetchRecipes(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := c.getJSON(ctx, c.baseURL+"/Recipes/db.json", &recipes); err != nil {
		return nil, fmt.Errorf("fetch recipes: %w", err)
	}
	if recipes == nil {
		return []model.Recipe{}, nil
	}
	for i := range recipes {
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []model.Ingredient{}
		}
	}
	return recipes, nil
}

// StoreRecipes replaces the remote recipe collection.
func (c *Client) StoreRecipes(ctx context.Context, recipes []model.Recipe) error {
	if err := c.putJSON(ctx, c.baseURL+"/Recipes/db.json", recipes); err != nil {
		return fmt.Errorf("store recipes: %w", err)
	}
	return nil
}

// FetchShoppingList loads the per-user ingredient collection. A null
// document is normalized to empty.
func (c *Client) FetchShoppingList(ctx context.Context, userID string) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := c.getJSON(ctx, c.shoppingListURL(userID), &ingredients); err != nil {
		return nil, fmt.Errorf("fetch shopping list: %w", err)
	}
	if ingredients == nil {
		ingredients = []model.Ingredient{}
	}
	return ingredients, nil
}

// StoreShoppingList replaces the per-user ingredient collection.
func (c *Client) StoreShoppingList(ctx context.Context, userID string, ingredients []model.Ingredient) error {
	if err := c.putJSON(ctx, c.shoppingListURL(userID), ingredients); err != nil {
		return fmt.Errorf("store shopping list: %w", err)
	}
	return nil
}

func (c *Client) shoppingListURL(userID string) string {
	return c.baseURL + "/" + url.PathEscape(userID) + "/ShoppingList/db.json"
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodGet, URL: rawURL, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) putJSON(ctx context.Context, rawURL string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, rawURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodPut, URL: rawURL, Status: resp.StatusCode}
	}
	return nil
}
