// internal/handler/organization.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	chmw "github.com/go-chi/chi/v5/middleware"
	"github.com/omnierp/omnicore/internal/middleware"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/service"
)

type OrganizationHandler struct {
	orgService  *service.OrganizationService
	permService *service.PermissionService
}

func NewOrganizationHandler(orgService *service.OrganizationService, permService *service.PermissionService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService, permService: permService}
}

type OrganizationResponse struct {
	BaseResponse
	Organization *model.Organization `json:"organization"`
}

// GetHandler returns the caller's own organization. The org id comes
// from the token, never from the URL.
func (h *OrganizationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	org, err := h.orgService.Get(r.Context(), orgID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationResponse{
		BaseResponse: BaseResponse{Ok: true},
		Organization: org,
	})
}

// ChangePlanHandler moves the caller's organization to another plan.
func (h *OrganizationHandler) ChangePlanHandler(w http.ResponseWriter, r *http.Request) {
	orgID, userID, roleOK := h.authorize(w, r, "org.manage")
	if !roleOK {
		return
	}

	var input service.ChangePlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	org, err := h.orgService.ChangePlan(r.Context(), orgID, userID, input)
	if err != nil {
		slog.ErrorContext(r.Context(), "plan change failed", "error", err, "requestID", chmw.GetReqID(r.Context()))
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, OrganizationResponse{
		BaseResponse: BaseResponse{Ok: true},
		Organization: org,
	})
}

// SuspendHandler soft-deactivates the caller's organization.
func (h *OrganizationHandler) SuspendHandler(w http.ResponseWriter, r *http.Request) {
	orgID, userID, roleOK := h.authorize(w, r, "org.manage")
	if !roleOK {
		return
	}

	if err := h.orgService.Suspend(r.Context(), orgID, userID); err != nil {
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, BaseResponse{Ok: true})
}

// PermissionsHandler lists the tenant's permission catalog.
func (h *OrganizationHandler) PermissionsHandler(w http.ResponseWriter, r *http.Request) {
	orgID, ok := middleware.OrgIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	perms, err := h.permService.ListCatalog(r.Context(), orgID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "permissions": perms})
}

// authorize resolves the caller's identity from context and checks the
// named permission against the tenant's catalog.
func (h *OrganizationHandler) authorize(w http.ResponseWriter, r *http.Request, permCode string) (orgID uint, userID string, ok bool) {
	orgID, okOrg := middleware.OrgIDFromContext(r.Context())
	userID, okUser := middleware.UserIDFromContext(r.Context())
	if !okOrg || !okUser {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return 0, "", false
	}

	role, okRole := middleware.RoleFromContext(r.Context())
	if !okRole {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return 0, "", false
	}

	if err := h.permService.Require(r.Context(), orgID, role, permCode); err != nil {
		respondWithDomainError(w, err)
		return 0, "", false
	}
	return orgID, userID, true
}
