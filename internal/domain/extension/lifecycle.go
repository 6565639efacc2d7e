package extension

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/zjrosen/entityreg/internal/domain/metadata"
	"github.com/zjrosen/entityreg/internal/domain/registry"
)

// State is the lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRegistered
	StateBooted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistered:
		return "registered"
	case StateBooted:
		return "booted"
	default:
		return "unknown"
	}
}

// Observer is notified around each hook invocation.
type Observer interface {
	HookStarted(ctx context.Context, phase, runID, name string) (context.Context, func(err error))
}

type noopObserver struct{}

func (noopObserver) HookStarted(ctx context.Context, _, _, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithObserver sets the hook observer.
func WithObserver(o Observer) Option {
	return func(l *Lifecycle) {
		if o != nil {
			l.observer = o
		}
	}
}

// WithRunID sets the generator for boot run identifiers.
func WithRunID(next func() string) Option {
	return func(l *Lifecycle) {
		if next != nil {
			l.nextRunID = next
		}
	}
}

var bootSeq atomic.Uint64

// Lifecycle holds registered extensions and drives register/boot.
type Lifecycle struct {
	chains    *metadata.Chains
	reader    registry.Reader
	observer  Observer
	nextRunID func() string

	mu         sync.Mutex
	extensions []Extension
	state      State
	runID      string
}

// NewLifecycle creates an idle lifecycle over chains and reader.
func NewLifecycle(chains *metadata.Chains, reader registry.Reader, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		chains:   chains,
		reader:   reader,
		observer: noopObserver{},
		nextRunID: func() string {
			return "boot-" + strconv.FormatUint(bootSeq.Add(1), 10)
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Register appends ext and runs its Register hook. An extension whose hook
// fails is not kept. The same instance may be registered more than once.
func (l *Lifecycle) Register(ctx context.Context, ext Extension) error {
	if ext == nil {
		return ErrNilExtension
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateBooted {
		return &AlreadyBootedError{RunID: l.runID, Op: "register"}
	}

	name := NameOf(ext)
	hookCtx, done := l.observer.HookStarted(ctx, "register", "", name)
	err := ext.Register(hookCtx, l.chains, l.reader)
	done(err)
	if err != nil {
		return &HookError{Phase: "register", Extension: name, Index: len(l.extensions), Err: err}
	}

	l.extensions = append(l.extensions, ext)
	l.state = StateRegistered
	return nil
}

// Boot boots every registered Booter in registration order. It may be
// called once; the first failing hook aborts the remaining ones. Every chain
// is frozen when Boot returns, whether or not a hook failed.
func (l *Lifecycle) Boot(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateBooted {
		return &AlreadyBootedError{RunID: l.runID, Op: "boot"}
	}

	l.state = StateBooted
	l.runID = l.nextRunID()
	if l.chains != nil {
		// Boot hooks are the last place chains may change.
		defer l.chains.Freeze()
	}

	for i, ext := range l.extensions {
		b, ok := ext.(Booter)
		if !ok {
			continue
		}
		name := NameOf(ext)
		hookCtx, done := l.observer.HookStarted(ctx, "boot", l.runID, name)
		err := b.Boot(hookCtx, l.chains, l.reader)
		done(err)
		if err != nil {
			return &HookError{Phase: "boot", Extension: name, Index: i, Err: err}
		}
	}
	return nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// RunID returns the identifier of the boot run, empty before Boot.
func (l *Lifecycle) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

// Extensions returns the registered extensions in registration order.
func (l *Lifecycle) Extensions() []Extension {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Extension, len(l.extensions))
	copy(out, l.extensions)
	return out
}
