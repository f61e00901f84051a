// internal/service/permission.go
package service

import (
	"context"

	"github.com/omnierp/omnicore/internal/domain"
	"github.com/omnierp/omnicore/internal/model"
	"github.com/omnierp/omnicore/internal/repository"
	"gorm.io/gorm"
)

// TenantSessions is the slice of the session provider this service needs.
type TenantSessions interface {
	With(ctx context.Context, orgID uint, fn func(tx *gorm.DB) error) error
}

// PermissionService answers role/permission membership questions against
// a tenant's own catalog. The org id always comes from the validated
// credential, never from request payloads.
type PermissionService struct {
	sessions TenantSessions
	permRepo *repository.PermissionRepository
}

func NewPermissionService(sessions TenantSessions, permRepo *repository.PermissionRepository) *PermissionService {
	return &PermissionService{sessions: sessions, permRepo: permRepo}
}

// Can reports whether roleCode carries permCode in orgID's catalog.
func (s *PermissionService) Can(ctx context.Context, orgID uint, roleCode, permCode string) (bool, error) {
	var allowed bool
	err := s.sessions.With(ctx, orgID, func(tx *gorm.DB) error {
		var err error
		allowed, err = s.permRepo.RoleHasPermission(ctx, tx, roleCode, permCode)
		return err
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// Require is Can folded into an error: domain.ErrPermissionDenied when
// the membership check fails.
func (s *PermissionService) Require(ctx context.Context, orgID uint, roleCode, permCode string) error {
	allowed, err := s.Can(ctx, orgID, roleCode, permCode)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrPermissionDenied
	}
	return nil
}

// ListCatalog returns the tenant's permission catalog.
func (s *PermissionService) ListCatalog(ctx context.Context, orgID uint) ([]model.Permission, error) {
	var perms []model.Permission
	err := s.sessions.With(ctx, orgID, func(tx *gorm.DB) error {
		var err error
		perms, err = s.permRepo.ListPermissions(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perms, nil
}
