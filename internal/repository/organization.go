// internal/repository/organization.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/omnierp/omnicore/internal/domain"
	"github.com/omnierp/omnicore/internal/model"
	"gorm.io/gorm"
)

type OrganizationRepositoryIface interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id uint) (*model.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*model.Organization, error)
	FindAllPaginated(ctx context.Context, offset, limit int) ([]*model.Organization, int64, error)
	Update(ctx context.Context, org *model.Organization) error
	SetStatus(ctx context.Context, id uint, status model.OrgStatus) error
}

// OrganizationRepository is the Tenant Registry's data access, always
// bound to the master handle. Organizations are never deleted here;
// lifecycle changes go through SetStatus.
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uint) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("finding organization by slug: %w", err)
	}
	return &org, nil
}

// FindAllPaginated returns a page of organizations with the total count.
func (r *OrganizationRepository) FindAllPaginated(ctx context.Context, offset, limit int) ([]*model.Organization, int64, error) {
	var orgs []*model.Organization
	var count int64

	if err := r.db.WithContext(ctx).Model(&model.Organization{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting organizations: %w", err)
	}

	if err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&orgs).Error; err != nil {
		return nil, 0, fmt.Errorf("listing organizations: %w", err)
	}

	return orgs, count, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *model.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("updating organization: %w", err)
	}
	return nil
}

// SetStatus applies a lifecycle transition. Suspension and cancellation
// also clear IsActive; reactivation restores it.
func (r *OrganizationRepository) SetStatus(ctx context.Context, id uint, status model.OrgStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    status,
			"is_active": status == model.OrgActive,
		})
	if res.Error != nil {
		return fmt.Errorf("updating organization status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrganizationNotFound
	}
	return nil
}
