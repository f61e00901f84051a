// internal/handler/auth.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/service"
)

type AuthHandler struct {
	orgService *service.OrganizationService
}

func NewAuthHandler(orgService *service.OrganizationService) *AuthHandler {
	return &AuthHandler{orgService: orgService}
}

type SignupResponse struct {
	BaseResponse
	Organization *model.Organization `json:"organization"`
	User         *model.User         `json:"user"`
	Token        string              `json:"token"`
}

// SignupHandler registers a new organization with its owner account and
// provisions the tenant database.
func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var input service.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	output, err := h.orgService.Signup(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "signup failed", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, SignupResponse{
		BaseResponse: BaseResponse{Ok: true},
		Organization: output.Organization,
		User:         output.User,
		Token:        output.Token,
	})
}

type LoginResponse struct {
	BaseResponse
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// LoginHandler authenticates a user and returns a token carrying the
// user's organization id.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	output, err := h.orgService.Login(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "login failed", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, LoginResponse{
		BaseResponse: BaseResponse{Ok: true},
		User:         output.User,
		Token:        output.Token,
	})
}
