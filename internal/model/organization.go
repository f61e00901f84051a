// internal/model/organization.go
package model

import (
	"time"
)

type SubscriptionPlan string

const (
	PlanTrial      SubscriptionPlan = "trial"
	PlanBasic      SubscriptionPlan = "basic"
	PlanPro        SubscriptionPlan = "pro"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

func (p SubscriptionPlan) Valid() bool {
	switch p {
	case PlanTrial, PlanBasic, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

type OrgStatus string

const (
	OrgActive    OrgStatus = "active"
	OrgSuspended OrgStatus = "suspended"
	OrgCancelled OrgStatus = "cancelled"
)

// Organization is one tenant in the master registry. ID is immutable once
// assigned and is the sole partition key for tenant storage; organizations
// are soft-deactivated via Status/IsActive, never physically deleted.
type Organization struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Slug string `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Name string `gorm:"type:text;not null" json:"name"`

	// Fiscal identity
	LegalName          string  `gorm:"type:text" json:"legal_name"`
	TaxID              string  `gorm:"type:text" json:"tax_id"`
	FiscalAddress      string  `gorm:"type:text" json:"fiscal_address"`
	FiscalCity         string  `gorm:"type:text" json:"fiscal_city"`
	FiscalCountry      string  `gorm:"type:text" json:"fiscal_country"`
	VATRegime          string  `gorm:"type:text" json:"vat_regime"`
	VATRate            float64 `json:"vat_rate"`
	WithholdingRate    float64 `json:"withholding_rate"`
	AppliesWithholding bool    `json:"applies_withholding"`

	// Contact
	ContactEmail string `gorm:"type:text" json:"contact_email"`
	ContactPhone string `gorm:"type:text" json:"contact_phone"`

	Plan   SubscriptionPlan `gorm:"type:text;not null;default:'trial'" json:"plan"`
	Status OrgStatus        `gorm:"type:text;not null;default:'active'" json:"status"`

	// Plan limits
	MaxUsers    int `gorm:"not null;default:3" json:"max_users"`
	MaxProducts int `gorm:"not null;default:100" json:"max_products"`
	MaxBranches int `gorm:"not null;default:1" json:"max_branches"`

	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	Config      OrgConfig  `gorm:"type:text" json:"config"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// PlanLimits returns the usage limits bundled with a subscription plan.
func PlanLimits(plan SubscriptionPlan) (maxUsers, maxProducts, maxBranches int) {
	switch plan {
	case PlanBasic:
		return 5, 500, 2
	case PlanPro:
		return 20, 5000, 5
	case PlanEnterprise:
		return 200, 100000, 50
	default: // trial
		return 3, 100, 1
	}
}
