package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// routePattern returns the mux route template for the request, falling back
// to the raw path for unrouted requests (static files).
func routePattern(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
