// internal/tenant/session.go
package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"
)

// SessionState tracks the unit-of-work lifecycle:
// open -> committed | rolled back -> released.
type SessionState int

const (
	StateOpen SessionState = iota + 1
	StateCommitted
	StateRolledBack
	StateReleased
)

func (s SessionState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Session is a transactional unit of work bound to exactly one storage
// handle for the duration of one logical request. Storage may only be
// touched while the session is open; every acquisition must end in
// exactly one Release on every exit path.
type Session struct {
	tx    *gorm.DB
	orgID uint // 0 = master registry

	mu    sync.Mutex
	state SessionState
}

// OrgID returns the organization this session is bound to; zero means
// the master registry.
func (s *Session) OrgID() uint {
	return s.orgID
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Released reports whether the session has been handed back.
func (s *Session) Released() bool {
	return s.State() == StateReleased
}

// DB exposes the transaction for query and write operations. Using it
// after commit, rollback, or release poisons the handle with
// ErrSessionLifecycle so the misuse fails loudly instead of touching
// storage.
func (s *Session) DB() *gorm.DB {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		_ = s.tx.AddError(fmt.Errorf("session is %s, not open: %w", s.state, ErrSessionLifecycle))
	}
	return s.tx
}

// Commit finalizes the unit of work.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return fmt.Errorf("commit on %s session: %w", s.state, ErrSessionLifecycle)
	}
	if err := s.tx.Commit().Error; err != nil {
		s.state = StateRolledBack
		return fmt.Errorf("committing session: %w", err)
	}
	s.state = StateCommitted
	return nil
}

// Rollback reverts the unit of work.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOpen {
		return fmt.Errorf("rollback on %s session: %w", s.state, ErrSessionLifecycle)
	}
	if err := s.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rolling back session: %w", err)
	}
	s.state = StateRolledBack
	return nil
}

// Release hands the session back. A still-open session is rolled back
// first: reaching Release without an explicit commit means the request
// did not finish normally. Releasing twice is a contract violation.
func (s *Session) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateReleased:
		return fmt.Errorf("session released twice: %w", ErrSessionLifecycle)
	case StateOpen:
		if err := s.tx.Rollback().Error; err != nil {
			s.state = StateReleased
			return fmt.Errorf("rolling back on release: %w", err)
		}
	}
	s.state = StateReleased
	return nil
}

// SessionProvider hands out request-scoped sessions bound to the correct
// tenant handle, with guaranteed cleanup.
type SessionProvider struct {
	router *Router
	log    *slog.Logger
}

func NewSessionProvider(router *Router, log *slog.Logger) *SessionProvider {
	if log == nil {
		log = slog.Default()
	}
	return &SessionProvider{router: router, log: log}
}

// Open begins a unit of work against orgID's storage. Router resolution
// errors propagate unchanged. The caller owns the session and must
// Release it on every exit path; prefer With unless the session has to
// cross function boundaries.
func (p *SessionProvider) Open(ctx context.Context, orgID uint) (*Session, error) {
	db, err := p.router.Tenant(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return p.begin(ctx, db, orgID)
}

// OpenMaster begins a unit of work against the master registry.
func (p *SessionProvider) OpenMaster(ctx context.Context) (*Session, error) {
	return p.begin(ctx, p.router.Master(), 0)
}

func (p *SessionProvider) begin(ctx context.Context, db *gorm.DB, orgID uint) (*Session, error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("beginning session for org %d: %w", orgID, tx.Error)
	}
	return &Session{tx: tx, orgID: orgID, state: StateOpen}, nil
}

// With runs fn inside a scoped session: commit when fn returns nil,
// rollback when it returns an error or panics, and exactly one release
// on every path, including cancellation and panic.
func (p *SessionProvider) With(ctx context.Context, orgID uint, fn func(tx *gorm.DB) error) error {
	sess, err := p.Open(ctx, orgID)
	if err != nil {
		return err
	}
	return p.run(sess, fn)
}

// WithMaster is With bound to the master registry handle.
func (p *SessionProvider) WithMaster(ctx context.Context, fn func(tx *gorm.DB) error) error {
	sess, err := p.OpenMaster(ctx)
	if err != nil {
		return err
	}
	return p.run(sess, fn)
}

func (p *SessionProvider) run(sess *Session, fn func(tx *gorm.DB) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			if rbErr := sess.Release(); rbErr != nil {
				p.log.Error("releasing session after panic", "org_id", sess.OrgID(), "error", rbErr)
			}
			panic(rvr)
		}
	}()

	if err := fn(sess.DB()); err != nil {
		if rbErr := sess.Rollback(); rbErr != nil {
			p.log.Error("rolling back session", "org_id", sess.OrgID(), "error", rbErr)
		}
		if relErr := sess.Release(); relErr != nil {
			p.log.Error("releasing session", "org_id", sess.OrgID(), "error", relErr)
		}
		return err
	}

	if err := sess.Commit(); err != nil {
		if relErr := sess.Release(); relErr != nil {
			p.log.Error("releasing session", "org_id", sess.OrgID(), "error", relErr)
		}
		return err
	}
	return sess.Release()
}
