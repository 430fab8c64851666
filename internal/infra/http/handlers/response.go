package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeUsecaseError maps the usecase error taxonomy onto HTTP statuses.
// Store failures are logged here and answered without internal detail.
func writeUsecaseError(w http.ResponseWriter, err error, fields ...zap.Field) {
	var (
		validationErr   *usecase.ValidationError
		verificationErr *usecase.VerificationError
		notFoundErr     *usecase.NotFoundError
	)
	switch {
	case errors.As(err, &validationErr):
		writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Error())
	case errors.As(err, &verificationErr):
		writeErrorResponse(w, http.StatusForbidden, "VERIFICATION_FAILED", verificationErr.Error())
	case errors.As(err, &notFoundErr):
		writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error())
	default:
		zap.L().Error("request failed", append(fields, zap.Error(err))...)
		writeErrorResponse(w, http.StatusInternalServerError, "STORE_ERROR", "internal error")
	}
}
