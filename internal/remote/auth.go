package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// AuthResponse is the success payload from the identity endpoint.
type AuthResponse struct {
	IDToken   string `json:"idToken"`
	Email     string `json:"email"`
	ExpiresIn string `json:"expiresIn"`
	LocalID   string `json:"localId"`
}

// ExpiresInDuration parses the endpoint's expiry, given in whole seconds.
func (r AuthResponse) ExpiresInDuration() (time.Duration, error) {
	secs, err := strconv.ParseInt(r.ExpiresIn, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse expiresIn %q: %w", r.ExpiresIn, err)
	}
	return time.Duration(secs) * time.Second, nil
}

// AuthError is a structured failure from the identity endpoint. Code is
// the server's message code, e.g. "EMAIL_EXISTS"; empty when the response
// carried no structured error.
type AuthError struct {
	Code   string
	Status int
}

func (e *AuthError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("auth request failed with status %d", e.Status)
	}
	return fmt.Sprintf("auth request failed: %s (status %d)", e.Code, e.Status)
}

// AsAuthError unwraps err into an *AuthError if there is one.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	ok := errors.As(err, &ae)
	return ae, ok
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type authErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp creates an account and returns a fresh token.
func (c *Client) SignUp(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "accounts:signUp", email, password)
}

// SignIn exchanges credentials for a fresh token.
func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResponse, error) {
	return c.authenticate(ctx, "accounts:signInWithPassword", email, password)
}

func (c *Client) authenticate(ctx context.Context, op, email, password string) (AuthResponse, error) {
	endpoint := c.authURL + "/" + op + "?key=" + url.QueryEscape(c.apiKey)

	payload, err := json.Marshal(credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return AuthResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body authErrorResponse
		// A decode failure leaves the code empty, which maps to the
		// unknown-default message downstream.
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return AuthResponse{}, &AuthError{Code: body.Error.Message, Status: resp.StatusCode}
	}

	var res AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return AuthResponse{}, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return res, nil
}
