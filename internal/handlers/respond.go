// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON API handlers for memorials, their
// printed products, themes, editor sessions and uploaded assets. Handlers
// are grouped by concern and receive their dependencies through the
// handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rhpbdev/legacyprints/internal/apperr"
	"github.com/rhpbdev/legacyprints/internal/middleware"
)

// maxBodyBytes caps JSON request bodies. A design page with inline images
// is the largest payload the API accepts.
const maxBodyBytes = 4 << 20

// errorBody is the error envelope of every failed request.
type errorBody struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// writeJSON writes data as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeMessage writes an error envelope with a fixed status and message.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: true, Message: message})
}

// writeError maps err to its status and user-facing message. Internal
// failures are logged with the request id; their details never reach the
// client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		middleware.Log(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", apperr.Kind(err),
			"error", err,
		)
	}
	writeJSON(w, status, errorBody{
		Error:   true,
		Kind:    string(apperr.Kind(err)),
		Message: apperr.Message(err),
	})
}

// decodeJSON reads the request body into v. Unknown fields are rejected
// so typos in client payloads surface as validation errors.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var timeErr *time.ParseError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("body", "Request body is required")
		case errors.As(err, &syntaxErr):
			return apperr.Validation("body", "Request body is not valid JSON")
		case errors.As(err, &typeErr):
			return apperr.Validation(typeErr.Field, fmt.Sprintf("Field %s has the wrong type", typeErr.Field))
		case errors.As(err, &timeErr):
			return apperr.Validation("body", "Dates must use the YYYY-MM-DD format")
		default:
			return apperr.Validation("body", "Request body could not be read")
		}
	}
	return nil
}

// owner returns the authenticated owner id or ErrUnauthorized.
func owner(r *http.Request) (string, error) {
	id := middleware.OwnerFromCtx(r.Context())
	if id == "" {
		return "", apperr.ErrUnauthorized
	}
	return id, nil
}

// int64Param parses a positive integer URL parameter. A malformed id is
// reported as not found, the same as an id owned by someone else.
func int64Param(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", apperr.ErrNotFound, name, chi.URLParam(r, name))
	}
	return id, nil
}

// uuidParam parses a UUID URL parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q", apperr.ErrNotFound, name, chi.URLParam(r, name))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. fallback is used
// when the parameter is absent.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name, fmt.Sprintf("%s must be a whole number", name))
	}
	return n, nil
}
