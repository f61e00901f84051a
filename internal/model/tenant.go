// internal/model/tenant.go
package model

import "time"

// Entities below live inside each per-organization database, never in the
// master registry. They carry no organization id column: isolation is by
// database file, not by row filtering.

// Permission is one entry of the per-tenant permission catalog. Code is
// the stable key ("inventory.write", not the auto id); seeding compares
// by code so re-provisioning never duplicates rows.
type Permission struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"type:text;uniqueIndex;not null" json:"code"`
	Description string    `gorm:"type:text" json:"description"`
	Module      string    `gorm:"type:text;not null" json:"module"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Permission) TableName() string {
	return "permissions"
}

type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"type:text;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	IsSystem    bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Product stands in for the tenant's business tables (inventory, sales,
// production). The routing layer treats all of them alike.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SKU       string    `gorm:"type:text;uniqueIndex;not null" json:"sku"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	Price     float64   `gorm:"not null;default:0" json:"price"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// AuditEntry records a mutation made through a tenant session.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"type:text" json:"user_id"`
	Action    string    `gorm:"type:text;not null" json:"action"`
	Entity    string    `gorm:"type:text;not null" json:"entity"`
	EntityRef string    `gorm:"type:text" json:"entity_ref"`
	Detail    string    `gorm:"type:text" json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

// TenantEntities is the declarative schema list applied to every tenant
// database. The provisioner migrates exactly this set; add new tenant
// tables here and nowhere else.
func TenantEntities() []interface{} {
	return []interface{}{
		&Permission{},
		&Role{},
		&Product{},
		&AuditEntry{},
	}
}

// MasterEntities is the schema of the master registry.
func MasterEntities() []interface{} {
	return []interface{}{
		&Organization{},
		&User{},
	}
}
