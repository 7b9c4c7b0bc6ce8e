package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/getmockd/httpseq/pkg/logging"
)

// Fixture errors.
var (
	// ErrSkipSuite is matched by errors from Skip.
	ErrSkipSuite = errors.New("skip suite")
	// ErrFixtureStarted is returned when a fixture that is already
	// started is acquired again before being released.
	ErrFixtureStarted = errors.New("fixture already started")
	// ErrUnknownFixture is returned for names with no registered factory.
	ErrUnknownFixture = errors.New("unknown fixture")
	// ErrFixturePanicked wraps a panic raised by Fixture.Start.
	ErrFixturePanicked = errors.New("fixture panicked")
)

// Fixture is suite-level setup and teardown.
type Fixture interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// FixtureFuncs adapts a pair of functions to Fixture. Either may be nil.
type FixtureFuncs struct {
	StartFunc func(ctx context.Context) error
	StopFunc  func(ctx context.Context) error
}

func (f FixtureFuncs) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

func (f FixtureFuncs) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}

// SkipError asks for every test of the suite to be skipped.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "suite skipped: " + e.Reason }

func (e *SkipError) Is(target error) bool { return target == ErrSkipSuite }

// Skip returns an error that, returned from Fixture.Start, skips the suite.
func Skip(reason string) error {
	return &SkipError{Reason: reason}
}

// Factory creates a fixture instance.
type Factory func() Fixture

type slot struct {
	fixture  Fixture
	started  bool
	acquired int
	released int
}

// Arena maps fixture names to singleton instances. Each name has at most
// one instance, created on first acquisition and started at most once at
// a time.
//
// Suites sharing an arena must not run concurrently if they share a
// fixture name.
type Arena struct {
	mu        sync.Mutex
	factories map[string]Factory
	slots     map[string]*slot
	logger    *slog.Logger
}

// NewArena creates an empty arena.
func NewArena(logger *slog.Logger) *Arena {
	return &Arena{
		factories: make(map[string]Factory),
		slots:     make(map[string]*slot),
		logger:    logging.OrNop(logger),
	}
}

// Register adds a factory under name, replacing any earlier one.
func (a *Arena) Register(name string, f Factory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.factories[name] = f
	delete(a.slots, name)
}

// Has reports whether name is registered.
func (a *Arena) Has(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.factories[name]
	return ok
}

// Names lists the registered fixtures.
func (a *Arena) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.factories))
	for k := range a.factories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Acquire starts the named fixture.
func (a *Arena) Acquire(ctx context.Context, name string) error {
	a.mu.Lock()
	s, err := a.slot(name)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	if s.started {
		a.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFixtureStarted, name)
	}
	// Marked before Start so a concurrent Acquire fails fast.
	s.started = true
	a.mu.Unlock()

	a.logger.Debug("starting fixture", "fixture", name)
	if err := start(ctx, s.fixture); err != nil {
		a.mu.Lock()
		s.started = false
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	s.acquired++
	a.mu.Unlock()
	return nil
}

// start runs f.Start, turning a panic into an error.
func start(ctx context.Context, f Fixture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFixturePanicked, r)
		}
	}()
	return f.Start(ctx)
}

// Release stops the named fixture. Releasing a fixture that is not started
// does nothing.
func (a *Arena) Release(ctx context.Context, name string) error {
	a.mu.Lock()
	s, ok := a.slots[name]
	if !ok || !s.started {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.logger.Debug("stopping fixture", "fixture", name)
	err := s.fixture.Stop(ctx)

	a.mu.Lock()
	s.started = false
	s.released++
	a.mu.Unlock()
	return err
}

// Counts returns how often the named fixture was acquired and released.
func (a *Arena) Counts(name string) (acquired, released int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.slots[name]; ok {
		return s.acquired, s.released
	}
	return 0, 0
}

// slot returns the instance slot for name, creating it. Callers hold mu.
func (a *Arena) slot(name string) (*slot, error) {
	if s, ok := a.slots[name]; ok {
		return s, nil
	}
	f, ok := a.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFixture, name)
	}
	s := &slot{fixture: f()}
	a.slots[name] = s
	return s, nil
}

// Nest acquires the named fixtures in order, runs body and releases them
// in reverse order, also when body panics. If an acquisition fails the
// fixtures already acquired are released and body does not run. The
// acquisition error is returned as an *AcquireError; release errors are
// joined to it.
func Nest(ctx context.Context, arena *Arena, names []string, body func(context.Context)) (err error) {
	var acquired []string
	var errs []error
	defer func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			if rerr := arena.Release(ctx, acquired[i]); rerr != nil {
				errs = append(errs, fmt.Errorf("stopping fixture %s: %w", acquired[i], rerr))
			}
		}
		err = errors.Join(errs...)
	}()

	for _, name := range names {
		if err := arena.Acquire(ctx, name); err != nil {
			errs = append(errs, &AcquireError{Fixture: name, Err: err})
			return
		}
		acquired = append(acquired, name)
	}
	body(ctx)
	return
}

// AcquireError is a fixture that failed to start.
type AcquireError struct {
	Fixture string
	Err     error
}

func (e *AcquireError) Error() string {
	return fmt.Sprintf("starting fixture %s: %v", e.Fixture, e.Err)
}

func (e *AcquireError) Unwrap() error { return e.Err }
