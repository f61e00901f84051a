// internal/tenant/provisioner.go
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/omnierp/omnicore/internal/model"
	"gorm.io/gorm"
)

// Provisioner brings a tenant's storage up to the current schema and
// seeds the baseline reference catalog. Every step is idempotent: schema
// application is create-if-not-exists per table (sqlite has no
// transactional DDL to lean on), and seeding compares by stable code.
// A failed run is retried by calling Provision again, never rolled back.
type Provisioner struct {
	router *Router
	log    *slog.Logger
}

func NewProvisioner(router *Router, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{router: router, log: log}
}

// Provision applies the complete tenant schema and seeds baseline
// reference data. After it returns nil, every tenant entity is queryable
// (possibly empty) for this organization. Safe to call any number of
// times.
func (p *Provisioner) Provision(ctx context.Context, orgID uint) error {
	db, err := p.router.Tenant(ctx, orgID)
	if err != nil {
		return err
	}

	if err := db.WithContext(ctx).AutoMigrate(model.TenantEntities()...); err != nil {
		return fmt.Errorf("org %d: applying schema: %v: %w", orgID, err, ErrProvisioning)
	}

	if err := p.seedBaseline(ctx, db); err != nil {
		return fmt.Errorf("org %d: %w", orgID, err)
	}

	p.log.Info("tenant provisioned", "org_id", orgID)
	return nil
}

// EnsureBaseline seeds the permission catalog and default roles for an
// already-migrated tenant. Rows are keyed by stable code, so repeated or
// concurrent invocation never produces duplicates.
func (p *Provisioner) EnsureBaseline(ctx context.Context, orgID uint) error {
	db, err := p.router.Tenant(ctx, orgID)
	if err != nil {
		return err
	}
	if err := p.seedBaseline(ctx, db); err != nil {
		return fmt.Errorf("org %d: %w", orgID, err)
	}
	return nil
}

// ProvisionMaster migrates the master registry schema. Called once at
// process start and by the admin CLI.
func (p *Provisioner) ProvisionMaster(ctx context.Context) error {
	if err := p.router.Master().WithContext(ctx).AutoMigrate(model.MasterEntities()...); err != nil {
		return fmt.Errorf("applying master schema: %v: %w", err, ErrProvisioning)
	}
	return nil
}

func (p *Provisioner) seedBaseline(ctx context.Context, db *gorm.DB) error {
	for _, perm := range BaselinePermissions() {
		if err := firstOrCreateByCode(ctx, db, &model.Permission{}, perm.Code, &perm); err != nil {
			return fmt.Errorf("seeding permission %q: %v: %w", perm.Code, err, ErrProvisioning)
		}
	}

	for _, def := range BaselineRoles() {
		role := model.Role{Code: def.Code, Name: def.Name, IsSystem: true}
		if err := loadOrCreateRole(ctx, db, &role); err != nil {
			return fmt.Errorf("seeding role %q: %v: %w", def.Code, err, ErrProvisioning)
		}

		// Links are reconciled on every run, not only on first creation:
		// Append upserts the join rows, so a seed that died between role
		// creation and linking is repaired by the next invocation.
		var perms []model.Permission
		if err := db.WithContext(ctx).Where("code IN ?", def.PermissionCodes).Find(&perms).Error; err != nil {
			return fmt.Errorf("loading permissions for role %q: %v: %w", def.Code, err, ErrProvisioning)
		}
		if err := db.WithContext(ctx).Model(&role).Association("Permissions").Append(&perms); err != nil {
			return fmt.Errorf("linking permissions for role %q: %v: %w", def.Code, err, ErrProvisioning)
		}
	}

	return nil
}

// firstOrCreateByCode inserts row unless a row with the same stable code
// exists. A unique-constraint failure from a concurrent first-provision
// is treated as "already seeded".
func firstOrCreateByCode(ctx context.Context, db *gorm.DB, probe interface{}, code string, row interface{}) error {
	res := db.WithContext(ctx).Where("code = ?", code).Limit(1).Find(probe)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if err := db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent provisioner
			return nil
		}
		return err
	}
	return nil
}

// loadOrCreateRole fetches the role with role.Code into role (so its id
// is usable for association writes), creating it when absent. Losing a
// creation race falls back to loading the winner's row.
func loadOrCreateRole(ctx context.Context, db *gorm.DB, role *model.Role) error {
	res := db.WithContext(ctx).Where("code = ?", role.Code).Limit(1).Find(role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	if err := db.WithContext(ctx).Create(role).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return db.WithContext(ctx).Where("code = ?", role.Code).First(role).Error
		}
		return err
	}
	return nil
}
