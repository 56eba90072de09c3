package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pantry/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, srv.URL, "test-key"), srv
}

func TestFetchRecipes_NormalizesNullIngredients(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/Recipes/db.json", r.URL.Path)
		io.WriteString(w, `[{"id":"r1","name":"Goulash","ingredients":null},{"id":"r2","name":"Ramen","ingredients":[{"name":"Noodles","amount":1,"unit":"pack"}]}]`)
	}))
	defer srv.Close()

	recipes, err := c.FetchRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.NotNil(t, recipes[0].Ingredients)
	assert.Empty(t, recipes[0].Ingredients)
	assert.Len(t, recipes[1].Ingredients, 1)
}

func TestFetchRecipes_NullDocumentIsEmpty(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `null`)
	}))
	defer srv.Close()

	recipes, err := c.FetchRecipes(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, recipes)
	assert.Empty(t, recipes)
}

func TestFetchRecipes_StatusError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := c.FetchRecipes(context.Background())
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
}

func TestStoreRecipes_PutsWholeCollection(t *testing.T) {
	var got []model.Recipe
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/Recipes/db.json", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	recipes := []model.Recipe{{ID: "r1", Name: "Goulash"}}
	require.NoError(t, c.StoreRecipes(context.Background(), recipes))
	assert.Equal(t, "r1", got[0].ID)
}

func TestShoppingList_KeyedByUser(t *testing.T) {
	var paths []string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodGet {
			io.WriteString(w, `null`)
			return
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	list, err := c.FetchShoppingList(ctx, "U1")
	require.NoError(t, err)
	assert.Empty(t, list)

	err = c.StoreShoppingList(ctx, "U1", []model.Ingredient{{Name: "Salt", Amount: 1, Unit: "tsp"}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /U1/ShoppingList/db.json",
		"PUT /U1/ShoppingList/db.json",
	}, paths)
}

func TestSignIn_SendsCredentialsAndKey(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "secret", req.Password)
		assert.True(t, req.ReturnSecureToken)

		io.WriteString(w, `{"idToken":"T","email":"a@b.com","expiresIn":"3600","localId":"U1"}`)
	}))
	defer srv.Close()

	res, err := c.SignIn(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "T", res.IDToken)
	assert.Equal(t, "U1", res.LocalID)

	d, err := res.ExpiresInDuration()
	require.NoError(t, err)
	assert.Equal(t, int64(3600000), d.Milliseconds())
}

func TestSignUp_StructuredError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts:signUp", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"EMAIL_EXISTS"}}`)
	}))
	defer srv.Close()

	_, err := c.SignUp(context.Background(), "a@b.com", "secret")
	require.Error(t, err)

	ae, ok := AsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, "EMAIL_EXISTS", ae.Code)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
}

func TestSignIn_UnstructuredErrorHasEmptyCode(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "upstream exploded")
	}))
	defer srv.Close()

	_, err := c.SignIn(context.Background(), "a@b.com", "secret")
	ae, ok := AsAuthError(err)
	require.True(t, ok)
	assert.Empty(t, ae.Code)
}
