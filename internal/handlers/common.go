// Package handlers provides the HTTP handlers and routing for the
// interview backend's JSON API.
package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ciit-backend/pkg/api"
	appErrors "ciit-backend/pkg/errors"
)

// handleServiceError converts service errors to appropriate HTTP responses.
// Internal failures get a generic client message; the detail stays in the
// server log.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case appErrors.IsValidation(err):
		logger.Warn("Validation error", zap.Error(err))
		api.Error(w, http.StatusBadRequest, err.Error())
	case appErrors.IsNotFound(err):
		logger.Warn("Not found", zap.Error(err))
		api.Error(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("Internal error", zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}
