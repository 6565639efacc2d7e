package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/entityreg/internal/domain/persistence"
)

type fakeConn struct {
	closed atomic.Bool
}

func (c *fakeConn) Ping(context.Context) error { return nil }
func (c *fakeConn) Close() error               { c.closed.Store(true); return nil }

// claimDriver claims every class in its set.
type claimDriver map[string]bool

func (d claimDriver) Describe(_ context.Context, class string) (*persistence.ClassMetadata, error) {
	return &persistence.ClassMetadata{Class: class}, nil
}
func (d claimDriver) ClassNames(context.Context) ([]string, error) { return nil, nil }
func (d claimDriver) IsTransient(_ context.Context, class string) bool {
	return !d[class]
}

type fakeConfig struct {
	driver persistence.MappingDriver
}

func (c *fakeConfig) DiscoveryStrategy() persistence.MappingDriver     { return c.driver }
func (c *fakeConfig) SetDiscoveryStrategy(d persistence.MappingDriver) { c.driver = d }

type fakeManager struct {
	name     string
	conn     *fakeConn
	cfg      *fakeConfig
	connErr  error
	closeErr error
	closed   atomic.Bool
}

func (m *fakeManager) Name() string                               { return m.name }
func (m *fakeManager) Configuration() persistence.Configuration   { return m.cfg }
func (m *fakeManager) Connection() (persistence.Connection, error) {
	if m.connErr != nil {
		return nil, m.connErr
	}
	return m.conn, nil
}
func (m *fakeManager) Close() error {
	m.closed.Store(true)
	return m.closeErr
}

// countingFactory builds fakeManagers and counts calls per name.
type countingFactory struct {
	mu      sync.Mutex
	calls   map[string]int
	claims  map[string]claimDriver
	failFor map[string]error
}

func newCountingFactory() *countingFactory {
	return &countingFactory{
		calls:   make(map[string]int),
		claims:  make(map[string]claimDriver),
		failFor: make(map[string]error),
	}
}

func (f *countingFactory) build(_ context.Context, d Descriptor) (persistence.Manager, error) {
	f.mu.Lock()
	f.calls[d.Name]++
	err := f.failFor[d.Name]
	claims := f.claims[d.Name]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &fakeManager{name: d.Name, conn: &fakeConn{}, cfg: &fakeConfig{driver: claims}}, nil
}

func (f *countingFactory) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *countingFactory) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func mkSet(t *testing.T, names ...string) *DescriptorSet {
	t.Helper()
	ds := make([]Descriptor, len(names))
	for i, n := range names {
		ds[i] = Descriptor{Name: n, Driver: "fake"}
	}
	set, err := NewDescriptorSet(ds...)
	require.NoError(t, err)
	return set
}

func TestNewDescriptorSet_Validation(t *testing.T) {
	_, err := NewDescriptorSet()
	require.ErrorIs(t, err, ErrNoManagers)

	_, err = NewDescriptorSet(Descriptor{Name: "  "})
	require.ErrorIs(t, err, ErrEmptyName)

	_, err = NewDescriptorSet(Descriptor{Name: "a"}, Descriptor{Name: "a"})
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestDescriptorSet_PreservesOrder(t *testing.T) {
	set := mkSet(t, "zeta", "alpha", "mid")
	require.Equal(t, []string{"zeta", "alpha", "mid"}, set.Names())
	require.Equal(t, "zeta", set.First())
}

func TestDescriptorSet_GetClonesSettings(t *testing.T) {
	set, err := NewDescriptorSet(Descriptor{Name: "a", Settings: persistence.Settings{"path": "x.db"}})
	require.NoError(t, err)

	d, ok := set.Get("a")
	require.True(t, ok)
	d.Settings["path"] = "mutated"

	again, _ := set.Get("a")
	require.Equal(t, "x.db", again.Settings.String("path"))
}

func TestNew_DefaultIsFirstDeclared(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "reporting", "default"), f.build)
	require.NoError(t, err)

	require.Equal(t, "reporting", r.DefaultManagerName())
	require.Equal(t, "reporting", r.DefaultConnectionName())
}

func TestNew_UnknownDefaultFailsBeforeBuild(t *testing.T) {
	f := newCountingFactory()

	_, err := New(mkSet(t, "a", "b"), f.build, WithDefaultManager("missing"))
	var defErr *DefaultManagerError
	require.ErrorAs(t, err, &defErr)
	require.Equal(t, "manager", defErr.Kind)
	require.Equal(t, "missing", defErr.Name)

	_, err = New(mkSet(t, "a", "b"), f.build, WithDefaultConnection("missing"))
	require.ErrorAs(t, err, &defErr)
	require.Equal(t, "connection", defErr.Kind)

	require.Zero(t, f.total())
}

func TestNew_NilFactory(t *testing.T) {
	_, err := New(mkSet(t, "a"), nil)
	require.ErrorIs(t, err, ErrNilFactory)
}

func TestRegistry_Manager_Memoized(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a", "b"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	m1, err := r.Manager(ctx, "a")
	require.NoError(t, err)
	m2, err := r.Manager(ctx, "a")
	require.NoError(t, err)

	require.Same(t, m1, m2)
	require.Equal(t, 1, f.count("a"))
	require.Zero(t, f.count("b"))
}

func TestRegistry_Manager_EmptyNameIsDefault(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a", "b"), f.build, WithDefaultManager("b"))
	require.NoError(t, err)
	ctx := context.Background()

	byDefault, err := r.Manager(ctx, "")
	require.NoError(t, err)
	byName, err := r.Manager(ctx, "b")
	require.NoError(t, err)

	require.Same(t, byDefault, byName)
}

func TestRegistry_Manager_Unknown(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a"), f.build)
	require.NoError(t, err)

	_, err = r.Manager(context.Background(), "nope")
	var unknown *UnknownManagerError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "nope", unknown.Name)
	require.ErrorIs(t, err, ErrNotRegistered)
	require.Zero(t, f.total())
}

func TestRegistry_Manager_BuildFailureNotMemoized(t *testing.T) {
	f := newCountingFactory()
	boom := errors.New("disk full")
	f.failFor["a"] = boom
	r, err := New(mkSet(t, "a"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = r.Manager(ctx, "a")
	var buildErr *ManagerBuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "a", buildErr.Name)
	require.ErrorIs(t, err, boom)

	f.mu.Lock()
	delete(f.failFor, "a")
	f.mu.Unlock()

	m, err := r.Manager(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, 2, f.count("a"))
}

func TestRegistry_Manager_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a"), f.build)
	require.NoError(t, err)

	const workers = 32
	results := make([]persistence.Manager, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			m, err := r.Manager(context.Background(), "a")
			if err == nil {
				results[i] = m
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, f.count("a"))
	for _, m := range results {
		require.Same(t, results[0], m)
	}
}

func TestRegistry_Connection_SharesManager(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a", "b"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	conn, err := r.Connection(ctx, "b")
	require.NoError(t, err)
	again, err := r.Connection(ctx, "b")
	require.NoError(t, err)
	require.Same(t, conn, again)

	m, err := r.Manager(ctx, "b")
	require.NoError(t, err)
	owned, err := m.Connection()
	require.NoError(t, err)
	require.Same(t, owned, conn)
	require.Equal(t, 1, f.count("b"))
}

// countingManager counts Connection calls.
type countingManager struct {
	*fakeManager
	conns atomic.Int32
}

func (m *countingManager) Connection() (persistence.Connection, error) {
	m.conns.Add(1)
	return m.fakeManager.Connection()
}

func TestRegistry_Connection_ConcurrentFirstAccessBuildsOnce(t *testing.T) {
	var builds atomic.Int32
	var built *countingManager
	factory := func(_ context.Context, d Descriptor) (persistence.Manager, error) {
		builds.Add(1)
		built = &countingManager{fakeManager: &fakeManager{name: d.Name, conn: &fakeConn{}, cfg: &fakeConfig{}}}
		return built, nil
	}
	r, err := New(mkSet(t, "a"), factory)
	require.NoError(t, err)

	const workers = 32
	results := make([]persistence.Connection, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			conn, err := r.Connection(context.Background(), "a")
			if err == nil {
				results[i] = conn
			}
		}(i)
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), builds.Load())
	require.Equal(t, int32(1), built.conns.Load())
	require.NotNil(t, results[0])
	for _, conn := range results {
		require.Same(t, results[0], conn)
	}
}

func TestRegistry_Connection_Unknown(t *testing.T) {
	r, err := New(mkSet(t, "a"), newCountingFactory().build)
	require.NoError(t, err)

	_, err = r.Connection(context.Background(), "nope")
	var unknown *UnknownConnectionError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "nope", unknown.Name)
}

func TestRegistry_Connection_ErrorAttributedToName(t *testing.T) {
	boom := errors.New("refused")
	factory := func(_ context.Context, d Descriptor) (persistence.Manager, error) {
		return &fakeManager{name: d.Name, cfg: &fakeConfig{}, connErr: boom}, nil
	}
	r, err := New(mkSet(t, "a"), factory)
	require.NoError(t, err)

	_, err = r.Connection(context.Background(), "a")
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, "a", connErr.Name)
	require.ErrorIs(t, err, boom)
}

func TestRegistry_ManagerForClass_DeclarationOrder(t *testing.T) {
	f := newCountingFactory()
	f.claims["a"] = claimDriver{`App\A\Invoice`: true}
	f.claims["b"] = claimDriver{`App\B\Report`: true, `App\A\Invoice`: true}
	r, err := New(mkSet(t, "a", "b"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	m, err := r.ManagerForClass(ctx, `App\A\Invoice`)
	require.NoError(t, err)
	require.Equal(t, "a", m.Name())

	m, err = r.ManagerForClass(ctx, `App\B\Report`)
	require.NoError(t, err)
	require.Equal(t, "b", m.Name())

	_, err = r.ManagerForClass(ctx, `App\C\Nothing`)
	var noManager *NoManagerForClassError
	require.ErrorAs(t, err, &noManager)
	require.Equal(t, `App\C\Nothing`, noManager.Class)
}

func TestRegistry_ManagerForClass_SkipsManagersThatFailToBuild(t *testing.T) {
	f := newCountingFactory()
	boom := errors.New("disk full")
	f.failFor["a"] = boom
	f.claims["b"] = claimDriver{`App\B\Report`: true}
	r, err := New(mkSet(t, "a", "b"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	m, err := r.ManagerForClass(ctx, `App\B\Report`)
	require.NoError(t, err)
	require.Equal(t, "b", m.Name())

	_, err = r.ManagerForClass(ctx, `App\C\Nothing`)
	var noManager *NoManagerForClassError
	require.ErrorAs(t, err, &noManager)
	require.Len(t, noManager.BuildErrs, 1)
	require.ErrorIs(t, err, ErrNoClaimingLink)
	require.ErrorIs(t, err, boom)
	var buildErr *ManagerBuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "a", buildErr.Name)
	require.Contains(t, err.Error(), "disk full")
}

func TestRegistry_NameOfAndBuilt(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a", "b", "c"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	require.Empty(t, r.Built())

	c, err := r.Manager(ctx, "c")
	require.NoError(t, err)
	_, err = r.Manager(ctx, "a")
	require.NoError(t, err)

	require.Equal(t, []string{"a", "c"}, r.Built())

	name, ok := r.NameOf(c)
	require.True(t, ok)
	require.Equal(t, "c", name)

	_, ok = r.NameOf(&fakeManager{})
	require.False(t, ok)
}

func TestRegistry_Close(t *testing.T) {
	f := newCountingFactory()
	r, err := New(mkSet(t, "a", "b"), f.build)
	require.NoError(t, err)
	ctx := context.Background()

	m, err := r.Manager(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.True(t, m.(*fakeManager).closed.Load())
	require.Empty(t, r.Built())

	rebuilt, err := r.Manager(ctx, "a")
	require.NoError(t, err)
	require.NotSame(t, m, rebuilt)
	require.Equal(t, 2, f.count("a"))
}

func TestRegistry_Close_JoinsErrors(t *testing.T) {
	boom := errors.New("busy")
	factory := func(_ context.Context, d Descriptor) (persistence.Manager, error) {
		return &fakeManager{name: d.Name, cfg: &fakeConfig{}, closeErr: boom}, nil
	}
	r, err := New(mkSet(t, "a", "b"), factory)
	require.NoError(t, err)
	ctx := context.Background()
	_, _ = r.Manager(ctx, "a")
	_, _ = r.Manager(ctx, "b")

	err = r.Close()
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "close manager a")
	require.Contains(t, err.Error(), "close manager b")
}

type recordingObserver struct {
	mu      sync.Mutex
	started []string
	results []error
}

func (o *recordingObserver) BuildStarted(ctx context.Context, name string) (context.Context, func(error)) {
	o.mu.Lock()
	o.started = append(o.started, name)
	o.mu.Unlock()
	return ctx, func(err error) {
		o.mu.Lock()
		o.results = append(o.results, err)
		o.mu.Unlock()
	}
}

func TestRegistry_ObserverSeesEveryBuild(t *testing.T) {
	f := newCountingFactory()
	f.failFor["b"] = errors.New("nope")
	obs := &recordingObserver{}
	r, err := New(mkSet(t, "a", "b"), f.build, WithObserver(obs))
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = r.Manager(ctx, "a")
	_, _ = r.Manager(ctx, "a")
	_, _ = r.Manager(ctx, "b")

	require.Equal(t, []string{"a", "b"}, obs.started)
	require.Len(t, obs.results, 2)
	require.NoError(t, obs.results[0])
	require.Error(t, obs.results[1])
}

// Any sequence of lookups builds each referenced manager exactly once.
func TestRegistry_Manager_MemoizedProperty(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	rapid.Check(t, func(rt *rapid.T) {
		f := newCountingFactory()
		set, err := NewDescriptorSet(
			Descriptor{Name: "a"}, Descriptor{Name: "b"},
			Descriptor{Name: "c"}, Descriptor{Name: "d"},
		)
		require.NoError(rt, err)
		r, err := New(set, f.build)
		require.NoError(rt, err)

		lookups := rapid.SliceOf(rapid.SampledFrom(append(names, ""))).Draw(rt, "lookups")
		seen := make(map[string]persistence.Manager)
		for _, name := range lookups {
			m, err := r.Manager(context.Background(), name)
			require.NoError(rt, err)
			key := name
			if key == "" {
				key = "a"
			}
			if prev, ok := seen[key]; ok {
				require.Same(rt, prev, m)
			}
			seen[key] = m
		}
		for key := range seen {
			require.Equal(rt, 1, f.count(key))
		}
		require.Equal(rt, len(seen), f.total())
	})
}
