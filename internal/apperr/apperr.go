// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

// Package apperr defines the error categories shared by the canvas engine,
// the stores, and the HTTP boundary. Every category works with errors.Is
// and errors.As so callers can branch without string matching.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for categories that carry no extra payload.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Category names an error class for logging and API responses.
type Category string

const (
	CategoryUnauthorized Category = "unauthorized"
	CategoryNotFound     Category = "not_found"
	CategoryValidation   Category = "validation_failed"
	CategoryStorage      Category = "storage_failure"
	CategoryRender       Category = "render_failure"
	CategoryNetwork      Category = "network_failure"
	CategoryUnknown      Category = "unknown"
)

// ValidationError reports a violated input constraint. Message is meant
// for end users.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError.
func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a failed read or write against the relational store
// or the object store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. A nil err yields nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// RenderError reports page content that could not be hydrated onto a
// surface, or a surface that went away during a load.
type RenderError struct {
	Page int
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("page %d failed to load: %v", e.Page+1, e.Err)
}
func (e *RenderError) Unwrap() error { return e.Err }

// NetworkError wraps a failed asset upload or upload-authorization call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// Network wraps err as a NetworkError. A nil err yields nil.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

// Kind classifies err into one of the categories above.
func Kind(err error) Category {
	var (
		ve *ValidationError
		se *StorageError
		re *RenderError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return CategoryUnauthorized
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.As(err, &ve):
		return CategoryValidation
	case errors.As(err, &re):
		return CategoryRender
	case errors.As(err, &ne):
		return CategoryNetwork
	case errors.As(err, &se):
		return CategoryStorage
	default:
		return CategoryUnknown
	}
}

// Status maps err to the HTTP status used at the API boundary.
func Status(err error) int {
	switch Kind(err) {
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryValidation:
		return http.StatusUnprocessableEntity
	case CategoryRender:
		return http.StatusConflict
	case CategoryNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text shown to end users. Internal failures are
// reduced to a generic sentence so driver details never leak.
func Message(err error) string {
	var ve *ValidationError
	switch Kind(err) {
	case CategoryUnauthorized:
		return "Unauthorized"
	case CategoryNotFound:
		return "Not found"
	case CategoryValidation:
		errors.As(err, &ve)
		return ve.Message
	case CategoryRender:
		return "The page failed to load. Try another page or reload the editor."
	case CategoryNetwork:
		return "The upload service is unavailable. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
