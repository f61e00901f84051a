// internal/domain/errors.go
package domain

import "errors"

var (
	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// User-related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPermissionDenied   = errors.New("permission denied")

	// Organization-related errors
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrSlugTaken            = errors.New("organization slug already taken")
	ErrInvalidPlan          = errors.New("invalid subscription plan")
	ErrTenantSuspended      = errors.New("organization is suspended or cancelled")
	ErrTrialExpired         = errors.New("trial period has expired")
	ErrLimitExceeded        = errors.New("plan limit exceeded")

	// Provisioning-related errors
	ErrSetupIncomplete = errors.New("account setup incomplete, retry")
)
