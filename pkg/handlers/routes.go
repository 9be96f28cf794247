package handlers

import "net/http"

// RouteMiddleware wraps a handler, e.g. with a database scope or PIN gating.
type RouteMiddleware func(http.HandlerFunc) http.HandlerFunc

// chain applies middleware so that the first one listed runs outermost.
func chain(h http.HandlerFunc, mws ...RouteMiddleware) http.HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			h = mws[i](h)
		}
	}
	return h
}
