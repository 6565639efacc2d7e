package extensions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/entityreg/internal/domain/extension"
	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/persistence"
	"github.com/zjrosen/entityreg/internal/domain/registry"
	"github.com/zjrosen/entityreg/internal/mocks"
	"github.com/zjrosen/entityreg/internal/testutil"
)

// fakeReader serves prebuilt managers and connections in a fixed order.
type fakeReader struct {
	order       []string
	managers    map[string]persistence.Manager
	connections map[string]persistence.Connection
	managerErr  error
}

func (f *fakeReader) Manager(_ context.Context, name string) (persistence.Manager, error) {
	if f.managerErr != nil {
		return nil, f.managerErr
	}
	m, ok := f.managers[name]
	if !ok {
		return nil, &registry.UnknownManagerError{Name: name}
	}
	return m, nil
}

func (f *fakeReader) Connection(_ context.Context, name string) (persistence.Connection, error) {
	c, ok := f.connections[name]
	if !ok {
		return nil, &registry.UnknownConnectionError{Name: name}
	}
	return c, nil
}

func (f *fakeReader) ManagerForClass(context.Context, string) (persistence.Manager, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeReader) ManagerNames() []string        { return f.order }
func (f *fakeReader) ConnectionNames() []string     { return f.order }
func (f *fakeReader) DefaultManagerName() string    { return f.order[0] }
func (f *fakeReader) DefaultConnectionName() string { return f.order[0] }

var _ registry.Reader = (*fakeReader)(nil)

// compilingManager is a manager that can persist metadata.
type compilingManager struct {
	*mocks.MockManager
	compiled int
}

func (c *compilingManager) CompileMetadata(context.Context) (int, error) {
	return c.compiled, nil
}

func newChains(t *testing.T, names ...string) *metadata.Chains {
	t.Helper()
	chains, err := metadata.NewChains(names[0], names)
	require.NoError(t, err)
	return chains
}

func TestNewCatalog_Builtins(t *testing.T) {
	catalog, err := NewCatalog(Options{MappingPaths: []string{t.TempDir()}})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{ConnectionCheckID, MetadataWarmupID, MappingPathsID}, catalog.IDs())

	exts, err := catalog.Resolve([]string{MetadataWarmupID, ConnectionCheckID})
	require.NoError(t, err)
	require.Len(t, exts, 2)
	require.Equal(t, MetadataWarmupID, extension.NameOf(exts[0]))
	require.Equal(t, ConnectionCheckID, extension.NameOf(exts[1]))
}

func TestNewCatalog_MappingPathsWithoutPaths(t *testing.T) {
	catalog, err := NewCatalog(Options{})
	require.NoError(t, err)

	_, err = catalog.Resolve([]string{MappingPathsID})
	require.ErrorIs(t, err, ErrNoMappingPaths)
}

func TestConnectionCheck_PingsEveryConnection(t *testing.T) {
	a := mocks.NewMockConnection(t)
	b := mocks.NewMockConnection(t)
	a.EXPECT().Ping(mock.Anything).Return(nil).Once()
	b.EXPECT().Ping(mock.Anything).Return(nil).Once()

	reader := &fakeReader{
		order:       []string{"a", "b"},
		connections: map[string]persistence.Connection{"a": a, "b": b},
	}

	check := NewConnectionCheck()
	require.NoError(t, check.Register(context.Background(), newChains(t, "a", "b"), reader))
	require.NoError(t, check.Boot(context.Background(), newChains(t, "a", "b"), reader))
}

func TestConnectionCheck_PingFailure(t *testing.T) {
	pingErr := errors.New("database is locked")
	a := mocks.NewMockConnection(t)
	a.EXPECT().Ping(mock.Anything).Return(pingErr).Once()

	reader := &fakeReader{
		order:       []string{"a", "b"},
		connections: map[string]persistence.Connection{"a": a},
	}

	err := NewConnectionCheck().Boot(context.Background(), newChains(t, "a", "b"), reader)
	require.ErrorIs(t, err, pingErr)
	require.Contains(t, err.Error(), "ping connection a")
}

func TestMetadataWarmup_DescribesAndCompiles(t *testing.T) {
	chains := newChains(t, "default", "reporting")
	chain, err := chains.For("default")
	require.NoError(t, err)
	require.NoError(t, chain.AddLink("static", metadata.NewStaticStrategy(
		&persistence.ClassMetadata{Class: `App\Invoice`, Table: "invoices"},
		&persistence.ClassMetadata{Class: `App\Customer`, Table: "customers"},
	)))
	require.NoError(t, chain.AddNamespace("", "App"))

	reader := &fakeReader{
		order: []string{"default", "reporting"},
		managers: map[string]persistence.Manager{
			"default":   &compilingManager{MockManager: mocks.NewMockManager(t), compiled: 2},
			"reporting": mocks.NewMockManager(t),
		},
	}

	warmup := NewMetadataWarmup()
	require.NoError(t, warmup.Boot(context.Background(), chains, reader))
	require.Equal(t, map[string]int{"default": 2, "reporting": 0}, warmup.Described())
	require.Equal(t, map[string]int{"default": 2}, warmup.Compiled())
}

func TestMetadataWarmup_ManagerError(t *testing.T) {
	buildErr := errors.New("engine unavailable")
	reader := &fakeReader{order: []string{"default"}, managerErr: buildErr}

	err := NewMetadataWarmup().Boot(context.Background(), newChains(t, "default"), reader)
	require.ErrorIs(t, err, buildErr)
}

func TestMappingPaths_AddsLowerPriorityLink(t *testing.T) {
	dir := t.TempDir()
	testutil.NewBuilder(t, dir).WithClass(`Vendor\Widget`).Build()

	binding, err := metadata.NewNamespaceBinding("V", "Vendor")
	require.NoError(t, err)
	ext, err := NewMappingPaths([]metadata.NamespaceBinding{binding}, []string{dir})
	require.NoError(t, err)

	chains := newChains(t, "default")
	require.NoError(t, ext.Register(context.Background(), chains, nil))

	links := chains.Default().Links()
	require.Len(t, links, 2)
	require.Equal(t, MappingPathsID, links[1].Origin)

	res, err := chains.Default().Resolve(context.Background(), "V:Widget")
	require.NoError(t, err)
	require.Equal(t, `Vendor\Widget`, res.Class)
	require.Equal(t, MappingPathsID, res.Origin)
	require.Equal(t, 1, res.Link)
}

func TestMappingPaths_RejectsInstalledChain(t *testing.T) {
	chains := newChains(t, "default")
	require.NoError(t, chains.Default().Install(&stubConfiguration{}))

	ext, err := NewMappingPaths(nil, []string{t.TempDir()})
	require.NoError(t, err)
	require.ErrorIs(t, ext.Register(context.Background(), chains, nil), metadata.ErrChainInstalled)
}

type stubConfiguration struct {
	driver persistence.MappingDriver
}

func (c *stubConfiguration) DiscoveryStrategy() persistence.MappingDriver { return c.driver }

func (c *stubConfiguration) SetDiscoveryStrategy(d persistence.MappingDriver) { c.driver = d }
