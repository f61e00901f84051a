// internal/handler/product.go
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/omnierp/omnicore/internal/middleware"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/service"
	"github.com/omnierp/omnicore/internal/tenant"
	"gorm.io/gorm"
)

// ProductHandler is the representative tenant-scoped CRUD surface: every
// operation runs inside a request-scoped session bound to the caller's
// organization and nothing else.
type ProductHandler struct {
	sessions    *tenant.SessionProvider
	permService *service.PermissionService
}

func NewProductHandler(sessions *tenant.SessionProvider, permService *service.PermissionService) *ProductHandler {
	return &ProductHandler{sessions: sessions, permService: permService}
}

type ProductInput struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// ListHandler returns the tenant's products.
func (h *ProductHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	orgID, role, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.permService.Require(r.Context(), orgID, role, "inventory.view"); err != nil {
		respondWithDomainError(w, err)
		return
	}

	var products []model.Product
	err := h.sessions.With(r.Context(), orgID, func(tx *gorm.DB) error {
		return tx.Order("sku").Find(&products).Error
	})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "products": products})
}

// CreateHandler inserts a product into the caller's tenant database.
func (h *ProductHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	orgID, role, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.permService.Require(r.Context(), orgID, role, "inventory.write"); err != nil {
		respondWithDomainError(w, err)
		return
	}

	var input ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	if input.SKU == "" || input.Name == "" {
		respondWithError(w, http.StatusBadRequest, "sku and name are required")
		return
	}

	product := model.Product{
		SKU:      input.SKU,
		Name:     input.Name,
		Price:    input.Price,
		Stock:    input.Stock,
		IsActive: true,
	}
	err := h.sessions.With(r.Context(), orgID, func(tx *gorm.DB) error {
		return tx.Create(&product).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondWithError(w, http.StatusConflict, "SKU already exists")
			return
		}
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "product": product})
}

// GetHandler loads one product by id.
func (h *ProductHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	orgID, role, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.permService.Require(r.Context(), orgID, role, "inventory.view"); err != nil {
		respondWithDomainError(w, err)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var product model.Product
	err = h.sessions.With(r.Context(), orgID, func(tx *gorm.DB) error {
		return tx.First(&product, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "product": product})
}

func (h *ProductHandler) caller(w http.ResponseWriter, r *http.Request) (orgID uint, role string, ok bool) {
	orgID, okOrg := middleware.OrgIDFromContext(r.Context())
	role, okRole := middleware.RoleFromContext(r.Context())
	if !okOrg || !okRole {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated")
		return 0, "", false
	}
	return orgID, role, true
}
