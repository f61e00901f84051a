// internal/audit/recorder.go
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omnierp/omnicore/internal/model"
	"gorm.io/gorm"
)

// Entry describes one recorded action in a tenant's audit trail.
type Entry struct {
	ActorID   string
	Action    string
	Entity    string
	EntityRef string
}

// Recorder writes audit entries into the database of the organization
// the action happened in.
type Recorder interface {
	Record(ctx context.Context, orgID uint, entry Entry) error
}

// Sessions is the slice of the session layer the recorder needs.
type Sessions interface {
	With(ctx context.Context, orgID uint, fn func(tx *gorm.DB) error) error
}

// TenantRecorder persists entries through the tenant's scoped session,
// so the trail lives next to the data it describes.
type TenantRecorder struct {
	sessions Sessions
	log      *slog.Logger
}

func NewTenantRecorder(sessions Sessions, log *slog.Logger) *TenantRecorder {
	return &TenantRecorder{sessions: sessions, log: log}
}

func (r *TenantRecorder) Record(ctx context.Context, orgID uint, entry Entry) error {
	err := r.sessions.With(ctx, orgID, func(tx *gorm.DB) error {
		return tx.Create(&model.AuditEntry{
			UserID:    entry.ActorID,
			Action:    entry.Action,
			Entity:    entry.Entity,
			EntityRef: entry.EntityRef,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("recording audit entry: %w", err)
	}
	return nil
}

// NoOpRecorder discards entries.
type NoOpRecorder struct{}

func (NoOpRecorder) Record(ctx context.Context, orgID uint, entry Entry) error {
	return nil
}
