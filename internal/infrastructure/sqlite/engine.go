package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/infrastructure/yamlmapping"
	"github.com/zjrosen/entityreg/internal/log"
)

// DriverName is the descriptor driver value served by Engine.
const DriverName = "sqlite"

// Settings keys understood by Engine.
const (
	SettingPath         = "path"
	SettingMappingPaths = "mapping_paths"
	SettingDiscovery    = "discovery"
	SettingEagerConnect = "eager_connect"
)

// Discovery modes.
const (
	DiscoveryYAML     = "yaml"
	DiscoveryCompiled = "compiled"
	DiscoveryNone     = "none"
)

// Engine errors
var (
	ErrMissingPath      = errors.New("sqlite manager requires a path setting")
	ErrUnknownDiscovery = errors.New("unknown discovery mode")
)

// Engine builds SQLite managers.
type Engine struct{}

var _ persistence.Builder = Engine{}

// NewEngine creates an engine.
func NewEngine() Engine {
	return Engine{}
}

// BuildManager creates a manager from settings:
//
//	path:          database file (required)
//	discovery:     yaml (default), compiled or none
//	mapping_paths: directories searched by the yaml discovery strategy
//	eager_connect: open the connection while building
func (Engine) BuildManager(_ context.Context, name string, settings persistence.Settings) (persistence.Manager, error) {
	path := settings.String(SettingPath)
	if path == "" {
		return nil, fmt.Errorf("%w (manager %s)", ErrMissingPath, name)
	}

	m := newManager(name, path)

	mode := settings.String(SettingDiscovery)
	if mode == "" {
		mode = DiscoveryYAML
	}
	switch mode {
	case DiscoveryYAML:
		m.cfg.SetDiscoveryStrategy(yamlmapping.NewFileDriver(settings.Strings(SettingMappingPaths)...))
	case DiscoveryCompiled:
		m.cfg.SetDiscoveryStrategy(&compiledDriver{m: m})
	case DiscoveryNone:
	default:
		return nil, fmt.Errorf("%w: %q (manager %s)", ErrUnknownDiscovery, mode, name)
	}

	if settings.Bool(SettingEagerConnect, false) {
		if _, err := m.Connection(); err != nil {
			return nil, err
		}
	}

	log.Debug(log.CatDB, "manager built", "manager", name, "path", path, "discovery", mode)
	return m, nil
}
