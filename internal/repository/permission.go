// internal/repository/permission.go
package repository

import (
	"context"
	"fmt"

	"github.com/omnierp/omnicore/internal/model"
	"gorm.io/gorm"
)

// PermissionRepository reads the per-tenant permission catalog. Unlike
// the master repositories it holds no handle of its own: every call
// receives the request's scoped tenant session, so a repository instance
// can serve any tenant without ever mixing them up.
type PermissionRepository struct{}

func NewPermissionRepository() *PermissionRepository {
	return &PermissionRepository{}
}

// RoleHasPermission reports whether the role identified by roleCode
// carries the permission identified by permCode in this tenant.
func (r *PermissionRepository) RoleHasPermission(ctx context.Context, tx *gorm.DB, roleCode, permCode string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Table("role_permissions").
		Joins("JOIN roles ON roles.id = role_permissions.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("roles.code = ? AND permissions.code = ?", roleCode, permCode).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking role permission: %w", err)
	}
	return count > 0, nil
}

// FindRoleByCode loads a role with its permissions.
func (r *PermissionRepository) FindRoleByCode(ctx context.Context, tx *gorm.DB, code string) (*model.Role, error) {
	var role model.Role
	if err := tx.WithContext(ctx).Preload("Permissions").First(&role, "code = ?", code).Error; err != nil {
		return nil, fmt.Errorf("finding role %q: %w", code, err)
	}
	return &role, nil
}

// ListPermissions returns the whole catalog for this tenant.
func (r *PermissionRepository) ListPermissions(ctx context.Context, tx *gorm.DB) ([]model.Permission, error) {
	var perms []model.Permission
	if err := tx.WithContext(ctx).Order("code").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	return perms, nil
}
