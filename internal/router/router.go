// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// legacyprints API. Everything under /api requires a bearer token and is
// scoped to the token's subject.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rhpbdev/legacyprints/internal/handlers"
	"github.com/rhpbdev/legacyprints/internal/middleware"
)

// Handlers are the handler groups mounted by New.
type Handlers struct {
	Memorials *handlers.Memorials
	Products  *handlers.Products
	Themes    *handlers.Themes
	Catalog   http.Handler
	Editor    *handlers.Editor
	Assets    *handlers.Assets
	Health    http.Handler
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. limiter may be nil.
func New(h Handlers, auth middleware.AuthOptions, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(chimw.CleanPath)
	r.Use(middleware.SecureHeaders)

	// Health check, no auth.
	r.Method(http.MethodGet, "/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(auth))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/memorials", func(r chi.Router) {
			r.Get("/", h.Memorials.List)
			r.Post("/", h.Memorials.Create)
			r.Get("/years", h.Memorials.Years)
			r.Get("/annual", h.Memorials.Annual)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Memorials.Get)
				r.Put("/", h.Memorials.Update)
				r.Delete("/", h.Memorials.Delete)
				r.Put("/photo", h.Memorials.Photo)

				r.Get("/products", h.Products.List)
				r.Get("/products/{productID}", h.Products.Data)
				r.Put("/products/{productID}/order", h.Products.ToggleOrder)
			})
		})

		r.Method(http.MethodGet, "/products", h.Catalog)

		r.Route("/themes", func(r chi.Router) {
			r.Get("/", h.Themes.List)
			r.Get("/{id}", h.Themes.Get)
		})

		// Editor sessions
		r.Route("/editor", func(r chi.Router) {
			r.Post("/", h.Editor.Open)
			r.Get("/fonts", h.Editor.Fonts)

			r.Route("/{sid}", func(r chi.Router) {
				r.Get("/", h.Editor.State)
				r.Delete("/", h.Editor.Close)
				r.Post("/next", h.Editor.Next)
				r.Post("/previous", h.Editor.Previous)
				r.Post("/goto/{index}", h.Editor.GoTo)
				r.Post("/select/{objectID}", h.Editor.Select)
				r.Post("/select-at", h.Editor.SelectAt)
				r.Delete("/select", h.Editor.Deselect)
				r.Put("/text-style", h.Editor.TextStyle)
				r.Put("/active", h.Editor.EditActive)
				r.Delete("/active", h.Editor.DeleteActive)
				r.Post("/save", h.Editor.Save)
			})
		})

		// Assets
		r.Post("/upload-auth", h.Assets.UploadAuth)
		r.Delete("/cover-photo", h.Assets.DeleteCoverPhoto)
		r.Get("/collage-photos", h.Assets.ListCollage)
		r.Delete("/collage-photos", h.Assets.DeleteCollage)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":true,"message":"Not found"}`))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"error":true,"message":"Method not allowed"}`))
	})

	return r
}
