// internal/tenant/errors.go
package tenant

import "errors"

var (
	// ErrInvalidTenant means the organization id is zero, negative, or
	// unknown to the registry. Never retried; surfaces as a client error.
	ErrInvalidTenant = errors.New("invalid tenant id")

	// ErrStorageUnavailable means the tenant's storage could not be
	// opened. The router retries once with backoff before returning it.
	// It is never masked by falling back to another tenant's handle.
	ErrStorageUnavailable = errors.New("tenant storage unavailable")

	// ErrProvisioning means schema application failed partway. Safe to
	// re-invoke: provisioning is idempotent per table.
	ErrProvisioning = errors.New("tenant provisioning failed")

	// ErrSessionLifecycle is a programming-contract violation: a session
	// used outside its scope, or released twice.
	ErrSessionLifecycle = errors.New("session lifecycle violation")
)
