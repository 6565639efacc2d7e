package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/log"
)

// Manager errors
var (
	ErrManagerClosed = errors.New("manager is closed")
	ErrNoDiscovery   = errors.New("manager has no discovery strategy")
)

// Manager is a SQLite-backed persistence manager. Its connection is opened
// on first use and owned exclusively by the manager.
type Manager struct {
	name string
	path string
	cfg  *Configuration

	mu     sync.Mutex
	db     *DB
	closed bool
}

var (
	_ persistence.Manager          = (*Manager)(nil)
	_ persistence.MetadataCompiler = (*Manager)(nil)
)

func newManager(name, path string) *Manager {
	return &Manager{name: name, path: path, cfg: &Configuration{}}
}

// Name returns the logical name the manager was built for.
func (m *Manager) Name() string {
	return m.name
}

// Path returns the database file path.
func (m *Manager) Path() string {
	return m.path
}

// Configuration returns the manager's configuration.
func (m *Manager) Configuration() persistence.Configuration {
	return m.cfg
}

// Connection opens the database on first call and returns the same handle afterwards.
func (m *Manager) Connection() (persistence.Connection, error) {
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (m *Manager) open() (*DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, fmt.Errorf("%w: %s", ErrManagerClosed, m.name)
	}
	if m.db != nil {
		return m.db, nil
	}

	db, err := NewDB(m.path)
	if err != nil {
		return nil, fmt.Errorf("open connection for %s: %w", m.name, err)
	}
	m.db = db
	log.Debug(log.CatDB, "connection opened", "manager", m.name, "path", m.path)
	return db, nil
}

// Metadata returns the manager's compiled-metadata repository, opening the
// connection if needed.
func (m *Manager) Metadata() (*MetadataRepository, error) {
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	return db.MetadataRepository(m.name), nil
}

// CompileMetadata describes every class known to the installed discovery
// strategy and replaces the compiled rows with the result.
func (m *Manager) CompileMetadata(ctx context.Context) (int, error) {
	driver := m.cfg.DiscoveryStrategy()
	if driver == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoDiscovery, m.name)
	}

	names, err := driver.ClassNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("list classes for %s: %w", m.name, err)
	}

	mds := make([]*persistence.ClassMetadata, 0, len(names))
	for _, name := range names {
		md, err := driver.Describe(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("describe %s: %w", name, err)
		}
		mds = append(mds, md)
	}

	repo, err := m.Metadata()
	if err != nil {
		return 0, err
	}
	if err := repo.SaveAll(ctx, mds); err != nil {
		return 0, err
	}

	log.Info(log.CatDB, "metadata compiled", "manager", m.name, "classes", len(mds))
	return len(mds), nil
}

// Close closes the connection if it was opened. Later calls are no-ops.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// compiledDriver reads metadata previously compiled into the manager's own
// database. The connection is opened on first use.
type compiledDriver struct {
	m *Manager
}

var _ persistence.MappingDriver = (*compiledDriver)(nil)

func (d *compiledDriver) Describe(ctx context.Context, className string) (*persistence.ClassMetadata, error) {
	repo, err := d.m.Metadata()
	if err != nil {
		return nil, err
	}
	return repo.Describe(ctx, className)
}

func (d *compiledDriver) ClassNames(ctx context.Context) ([]string, error) {
	repo, err := d.m.Metadata()
	if err != nil {
		return nil, err
	}
	return repo.ClassNames(ctx)
}

func (d *compiledDriver) IsTransient(ctx context.Context, className string) bool {
	repo, err := d.m.Metadata()
	if err != nil {
		return true
	}
	return repo.IsTransient(ctx, className)
}
