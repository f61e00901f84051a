// internal/tenant/baseline.go
package tenant

import "github.com/omnierp/omnicore/internal/model"

// RoleDef declares a default role and the permission codes it carries.
type RoleDef struct {
	Code            string
	Name            string
	PermissionCodes []string
}

// BaselinePermissions is the permission catalog seeded into every new
// tenant. Codes are stable identifiers; renaming one is a migration, not
// an edit.
func BaselinePermissions() []model.Permission {
	return []model.Permission{
		{Code: "org.view", Module: "organization", Description: "View organization settings"},
		{Code: "org.manage", Module: "organization", Description: "Edit organization settings and plan"},
		{Code: "users.view", Module: "users", Description: "List users"},
		{Code: "users.manage", Module: "users", Description: "Invite, edit and deactivate users"},
		{Code: "inventory.view", Module: "inventory", Description: "View products and stock"},
		{Code: "inventory.write", Module: "inventory", Description: "Create and edit products"},
		{Code: "sales.view", Module: "sales", Description: "View sales documents"},
		{Code: "sales.write", Module: "sales", Description: "Create and edit sales documents"},
		{Code: "reports.view", Module: "reports", Description: "View reports"},
		{Code: "audit.view", Module: "audit", Description: "View the audit trail"},
	}
}

// BaselineRoles are the default roles created alongside the catalog.
func BaselineRoles() []RoleDef {
	all := make([]string, 0, len(BaselinePermissions()))
	for _, p := range BaselinePermissions() {
		all = append(all, p.Code)
	}

	return []RoleDef{
		{Code: "admin", Name: "Administrator", PermissionCodes: all},
		{Code: "manager", Name: "Manager", PermissionCodes: []string{
			"org.view", "users.view", "inventory.view", "inventory.write",
			"sales.view", "sales.write", "reports.view",
		}},
		{Code: "viewer", Name: "Viewer", PermissionCodes: []string{
			"org.view", "inventory.view", "sales.view", "reports.view",
		}},
	}
}
