// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeRouteNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		// Signup creates the identity, so it cannot require one.
		r.Post("/signup", s.handleSignup)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/me", s.handleMe)
			r.Patch("/password", s.handleChangePassword)
		})
	})

	r.Route("/api-admin/v1/users", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Get("/{loginId}", s.handleAdminGetUser)
	})

	return r
}
