// Package http holds the JSON response helpers used by bakery handlers.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-bakery/framework/container"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// Unavailable sends 503, used when a request cannot visit its container.
func (res *Response) Unavailable(message ...string) {
	res.Error(http.StatusServiceUnavailable, first(message, "Service Unavailable."))
}

// ContainerError sends err with a status derived from its container error
// code, and the code itself in the body:
//
//	{"message": "...", "code": "MISSING_REQUIRED"}
//
// Errors that did not come from a container are a plain 500.
func (res *Response) ContainerError(err error) {
	var cerr *container.Error
	if !errors.As(err, &cerr) {
		res.ServerError(err.Error())
		return
	}
	res.JSON(StatusFor(cerr.Code), envelope{"message": cerr.Error(), "code": string(cerr.Code)})
}

// StatusFor maps a container error code to an HTTP status.
func StatusFor(code container.ErrorCode) int {
	switch code {
	case container.ErrCodeNotFound:
		return http.StatusNotFound
	case container.ErrCodeMissingRequired, container.ErrCodeUnrealized, container.ErrCodeNotOpen:
		return http.StatusServiceUnavailable
	case container.ErrCodeUnknownOverride, container.ErrCodeDuplicateOverride:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
