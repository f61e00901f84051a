// internal/handler/common.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omnierp/omnicore/internal/domain"
	"github.com/omnierp/omnicore/internal/tenant"
)

type ErrorResponse struct {
	BaseResponse
	Error string `json:"error"`
}

type BaseResponse struct {
	Ok bool `json:"ok"`
}

// respondWithError sends an error response with a message
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// respondWithDomainError maps service-layer errors onto HTTP statuses.
// Tenant/storage failures deliberately surface as a generic
// service-unavailable message: nothing about another tenant ever leaks.
func respondWithDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondWithError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, "Permission denied")
	case errors.Is(err, domain.ErrSlugTaken), errors.Is(err, domain.ErrEmailAlreadyExists):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrOrganizationNotFound), errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrTenantSuspended), errors.Is(err, domain.ErrTrialExpired):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrSetupIncomplete):
		respondWithError(w, http.StatusServiceUnavailable, "Account setup incomplete, retry")
	case errors.Is(err, tenant.ErrInvalidTenant):
		respondWithError(w, http.StatusBadRequest, "Unknown account")
	case errors.Is(err, tenant.ErrStorageUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "Service unavailable for this account")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal error")
	}
}
