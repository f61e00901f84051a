// internal/tenant/router.go
package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Router maps an organization id to a live, reusable storage handle and
// holds the separate master registry handle. It is created once at the
// composition root and passed by reference; there is no package-level
// instance. The handle cache is append-only: entries are never evicted
// before process exit.
type Router struct {
	dataDir   string
	masterURL string
	log       *slog.Logger

	mu      sync.RWMutex
	master  *gorm.DB
	tenants map[uint]*gorm.DB
}

// TenantDBPath derives the storage location for an organization. It is a
// pure function of the data directory and the org id so any process can
// compute it without a lookup table.
func TenantDBPath(dataDir string, orgID uint) string {
	return filepath.Join(dataDir, fmt.Sprintf("org_%d.db", orgID))
}

// MasterDBPath is the sqlite fallback location for the master registry,
// used when no postgres DSN is configured.
func MasterDBPath(dataDir string) string {
	return filepath.Join(dataDir, "master.db")
}

// NewRouter creates the data directory if needed and opens the master
// handle eagerly. masterURL is a postgres DSN; empty means a sqlite
// master file under dataDir.
func NewRouter(dataDir, masterURL string, log *slog.Logger) (*Router, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %q: %w", dataDir, err)
	}

	r := &Router{
		dataDir:   dataDir,
		masterURL: masterURL,
		log:       log,
		tenants:   make(map[uint]*gorm.DB),
	}

	master, err := r.openMaster()
	if err != nil {
		return nil, fmt.Errorf("opening master registry: %w", err)
	}
	r.master = master

	return r, nil
}

// Master returns the singleton master registry handle.
func (r *Router) Master() *gorm.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.master
}

// Tenant resolves the storage handle for orgID, constructing and caching
// it on first access. The same orgID always yields the same handle for
// the life of the process; distinct ids never share a handle. Resolution
// failures are returned as-is, never substituted with another tenant's
// handle. A zero id is ErrInvalidTenant; any other id is trusted, since
// ids only arrive here from a validated credential or the provisioning
// CLI. Registry existence checks belong to the repository layer.
func (r *Router) Tenant(ctx context.Context, orgID uint) (*gorm.DB, error) {
	if orgID == 0 {
		return nil, fmt.Errorf("org id must be positive: %w", ErrInvalidTenant)
	}

	r.mu.RLock()
	db, ok := r.tenants[orgID]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	// Cache miss: take the write lock and re-check so two simultaneous
	// first accesses for the same org construct exactly one handle.
	r.mu.Lock()
	defer r.mu.Unlock()
	if db, ok := r.tenants[orgID]; ok {
		return db, nil
	}

	db, err := r.openTenant(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("org %d: %w", orgID, err)
	}
	r.tenants[orgID] = db
	r.log.Info("tenant handle created", "org_id", orgID, "path", TenantDBPath(r.dataDir, orgID))

	return db, nil
}

// openTenant opens the per-org sqlite file, retrying the open exactly
// once with a short backoff before giving up.
func (r *Router) openTenant(ctx context.Context, orgID uint) (*gorm.DB, error) {
	path := TenantDBPath(r.dataDir, orgID)

	db, err := backoff.Retry(ctx, func() (*gorm.DB, error) {
		return r.openSQLite(path)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(200*time.Millisecond)),
		backoff.WithMaxTries(2),
	)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %v: %w", path, err, ErrStorageUnavailable)
	}

	return db, nil
}

func (r *Router) openSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_fk=1"), r.gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// One physical writer per tenant file; the engine's own locking is
	// the only concurrency control within a tenant.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func (r *Router) openMaster() (*gorm.DB, error) {
	if r.masterURL == "" {
		return r.openSQLite(MasterDBPath(r.dataDir))
	}

	db, err := gorm.Open(postgres.Open(r.masterURL), r.gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging master: %w", err)
	}

	return db, nil
}

func (r *Router) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// DataDir returns the directory holding the tenant database files.
func (r *Router) DataDir() string {
	return r.dataDir
}

// Close releases every cached handle. Only for orderly shutdown and
// tests; there is no per-tenant eviction.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	closeDB := func(db *gorm.DB) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, db := range r.tenants {
		closeDB(db)
	}
	if r.master != nil {
		closeDB(r.master)
	}
	r.tenants = make(map[uint]*gorm.DB)

	return firstErr
}
