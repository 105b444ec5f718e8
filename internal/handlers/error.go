// Package handlers provides the HTTP API handlers for the dashboard backend.
package handlers

// ErrorResponse is the standard API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
