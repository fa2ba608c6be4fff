package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/brokerkit/agent-portal/internal/logging"
	"github.com/brokerkit/agent-portal/internal/models"
	"go.uber.org/zap"
)

// Polling defaults
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultMaxWait  = 10 * time.Second
)

// Result is the terminal outcome of a resolution
type Result struct {
	State    models.ResolutionState
	User     *models.ResolvedUser
	Source   string
	Attempts int
	Elapsed  time.Duration
	Err      error
}

// ticker is the part of time.Ticker the polling loop uses
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

func newRealTicker(d time.Duration) ticker { return realTicker{time.NewTicker(d)} }

// Resolver discovers the user of one page load. It moves
// idle → polling → resolved | timed_out | cancelled, or straight to
// not_applicable for tenants that do not poll. Terminal states are final.
type Resolver struct {
	provider models.AuthProvider
	probes   []IdentityProbe
	interval time.Duration
	maxWait  time.Duration
	logger   *logging.SafeLogger

	newTicker func(time.Duration) ticker

	mu       sync.Mutex
	state    models.ResolutionState
	started  bool
	result   Result
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewResolver creates a resolver for a tenant's auth provider. Non-positive
// durations fall back to the defaults.
func NewResolver(provider models.AuthProvider, probes []IdentityProbe, interval, maxWait time.Duration) *Resolver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &Resolver{
		provider:  provider,
		probes:    probes,
		interval:  interval,
		maxWait:   maxWait,
		logger:    logging.Logger.Named("session"),
		newTicker: newRealTicker,
		state:     models.ResolutionIdle,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// State returns the current state
func (r *Resolver) State() models.ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Done is closed once the resolver reaches a terminal state
func (r *Resolver) Done() <-chan struct{} {
	return r.done
}

// Result returns the terminal result, or false while still running
func (r *Resolver) Result() (Result, bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return Result{}, false
	}
}

// Stop tears the resolver down. A pending poll ends in the cancelled state
// and its ticker is released. Stopping a finished resolver does nothing.
func (r *Resolver) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Start runs the resolution in the background
func (r *Resolver) Start(ctx context.Context) {
	go r.Resolve(ctx)
}

// Resolve runs the resolution and blocks until it is terminal. Only the
// first call polls; later calls wait for and return the same result.
func (r *Resolver) Resolve(ctx context.Context) Result {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		select {
		case <-r.done:
			return r.result
		case <-ctx.Done():
			return Result{State: r.State(), Err: ctx.Err()}
		}
	}
	r.started = true

	if !r.provider.IsPolling() {
		r.mu.Unlock()
		return r.finish(Result{State: models.ResolutionNotApplicable})
	}
	r.state = models.ResolutionPolling
	r.mu.Unlock()

	return r.finish(r.poll(ctx))
}

func (r *Resolver) poll(ctx context.Context) Result {
	start := time.Now()
	ctx, cancel := context.WithDeadline(ctx, start.Add(r.maxWait))
	defer cancel()

	t := r.newTicker(r.interval)
	defer t.Stop()

	attempts := 0
	for {
		// A Stop or deadline that raced with the ticker wins over another attempt
		select {
		case <-r.stop:
			return r.interrupted(nil, start, attempts)
		case <-ctx.Done():
			return r.interrupted(ctx.Err(), start, attempts)
		default:
		}

		attempts++
		if user, source, ok := r.attempt(ctx); ok {
			return Result{
				State:    models.ResolutionResolved,
				User:     user,
				Source:   source,
				Attempts: attempts,
				Elapsed:  time.Since(start),
			}
		}

		select {
		case <-t.C():
		case <-r.stop:
			return r.interrupted(nil, start, attempts)
		case <-ctx.Done():
			return r.interrupted(ctx.Err(), start, attempts)
		}
	}
}

// interrupted builds the result of a poll that ended without an identity.
// A nil ctxErr means Stop was called.
func (r *Resolver) interrupted(ctxErr error, start time.Time, attempts int) Result {
	result := Result{
		State:    models.ResolutionCancelled,
		Attempts: attempts,
		Elapsed:  time.Since(start),
		Err:      models.ErrIdentityCancelled,
	}
	if ctxErr == nil {
		return result
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) && result.Elapsed >= r.maxWait {
		result.State = models.ResolutionTimedOut
		result.Err = models.ErrIdentityTimeout
		r.logger.Info("identity resolution timed out",
			zap.Int("attempts", attempts),
			zap.Duration("elapsed", result.Elapsed))
		return result
	}
	result.Err = ctxErr
	return result
}

// attempt runs every probe once, in order
func (r *Resolver) attempt(ctx context.Context) (*models.ResolvedUser, string, bool) {
	for _, probe := range r.probes {
		if ctx.Err() != nil {
			return nil, "", false
		}
		user, err := probe.TryGetIdentity(ctx)
		if err == nil && user != nil {
			return user, probe.Name(), true
		}
		if err != nil && !errors.Is(err, models.ErrNoIdentity) && ctx.Err() == nil {
			r.logger.Debug("identity probe failed",
				zap.String("probe", probe.Name()),
				zap.Error(err))
		}
	}
	return nil, "", false
}

func (r *Resolver) finish(result Result) Result {
	r.mu.Lock()
	r.state = result.State
	r.result = result
	r.mu.Unlock()
	close(r.done)
	return result
}
