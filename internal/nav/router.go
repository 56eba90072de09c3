// Package nav holds the navigation gates: resolvers that guarantee a slice
// is populated before a dependent navigation proceeds, and the auth guard
// that allows or redirects based on the session slice.
package nav

import "log/slog"

// Router is the navigation collaborator. The effect pipeline navigates on
// redirecting logins and on logout; the guard returns the route to redirect
// to instead of navigating itself.
type Router interface {
	Navigate(route string)
}

const (
	// RouteRecipes is the default authenticated landing route.
	RouteRecipes = "/recipes"
	// RouteLogin is where unauthenticated navigation is redirected.
	RouteLogin = "/auth"
)

// LogRouter records navigation in the log. The CLI has no page router, so
// navigation side effects become log lines.
type LogRouter struct{}

func (LogRouter) Navigate(route string) {
	slog.Info("navigate", "route", route)
}
