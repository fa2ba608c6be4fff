package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brokerkit/agent-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingProbe finds the user on the nth call
type countingProbe struct {
	calls   int32
	succeed int32
}

func (p *countingProbe) Name() string { return "counting" }

func (p *countingProbe) TryGetIdentity(context.Context) (*models.ResolvedUser, error) {
	n := atomic.AddInt32(&p.calls, 1)
	if p.succeed > 0 && n >= p.succeed {
		return &models.ResolvedUser{ID: "u1", Email: "u1@example.com"}, nil
	}
	return nil, models.ErrNoIdentity
}

// instantTicker fires immediately and forever
type instantTicker struct {
	c       chan time.Time
	stopped int32
}

func newInstantTicker() *instantTicker {
	c := make(chan time.Time)
	close(c)
	return &instantTicker{c: c}
}

func (t *instantTicker) C() <-chan time.Time { return t.c }
func (t *instantTicker) Stop()               { atomic.StoreInt32(&t.stopped, 1) }

// idleTicker never fires
type idleTicker struct{ stopped int32 }

func (t *idleTicker) C() <-chan time.Time { return nil }
func (t *idleTicker) Stop()               { atomic.StoreInt32(&t.stopped, 1) }

func TestResolver_NotApplicableStartsNoTimer(t *testing.T) {
	probe := &countingProbe{succeed: 1}
	r := NewResolver(models.AuthProviderOther, []IdentityProbe{probe}, time.Millisecond, time.Second)
	r.newTicker = func(time.Duration) ticker {
		t.Fatal("ticker must not be created for non-polling tenants")
		return nil
	}

	result := r.Resolve(context.Background())
	assert.Equal(t, models.ResolutionNotApplicable, result.State)
	assert.Nil(t, result.User)
	assert.Equal(t, int32(0), atomic.LoadInt32(&probe.calls))
	assert.Equal(t, models.ResolutionNotApplicable, r.State())
}

func TestResolver_ResolvesOnFirstAttempt(t *testing.T) {
	tk := &idleTicker{}
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{&countingProbe{succeed: 1}}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return tk }

	result := r.Resolve(context.Background())
	assert.Equal(t, models.ResolutionResolved, result.State)
	assert.Equal(t, "u1@example.com", result.User.Email)
	assert.Equal(t, "counting", result.Source)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tk.stopped), "ticker released")
}

func TestResolver_ResolvesAfterPolling(t *testing.T) {
	tk := newInstantTicker()
	probe := &countingProbe{succeed: 3}
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{probe}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return tk }

	result := r.Resolve(context.Background())
	assert.Equal(t, models.ResolutionResolved, result.State)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tk.stopped))
}

func TestResolver_ProbeOrder(t *testing.T) {
	first := &countingProbe{}
	second := &countingProbe{succeed: 1}
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{first, second}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return &idleTicker{} }

	result := r.Resolve(context.Background())
	require.Equal(t, models.ResolutionResolved, result.State)
	assert.Equal(t, int32(1), atomic.LoadInt32(&first.calls))
}

func TestResolver_TimesOutWithinMaxWait(t *testing.T) {
	maxWait := 60 * time.Millisecond
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{&countingProbe{}}, 10*time.Millisecond, maxWait)

	start := time.Now()
	result := r.Resolve(context.Background())
	took := time.Since(start)

	assert.Equal(t, models.ResolutionTimedOut, result.State)
	assert.ErrorIs(t, result.Err, models.ErrIdentityTimeout)
	assert.GreaterOrEqual(t, result.Elapsed, maxWait)
	assert.Less(t, took, maxWait+time.Second)
	assert.Greater(t, result.Attempts, 1)
}

func TestResolver_Stop(t *testing.T) {
	tk := &idleTicker{}
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{&countingProbe{}}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return tk }

	r.Start(context.Background())
	require.Eventually(t, func() bool { return r.State() == models.ResolutionPolling }, time.Second, time.Millisecond)

	r.Stop()
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("resolver did not stop")
	}

	result, ok := r.Result()
	require.True(t, ok)
	assert.Equal(t, models.ResolutionCancelled, result.State)
	assert.ErrorIs(t, result.Err, models.ErrIdentityCancelled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tk.stopped))

	// stopping twice is harmless
	r.Stop()
}

func TestResolver_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{&countingProbe{}}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return &idleTicker{} }

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	result := r.Resolve(ctx)
	assert.Equal(t, models.ResolutionCancelled, result.State)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestResolver_TerminalStateIsFinal(t *testing.T) {
	probe := &countingProbe{succeed: 1}
	r := NewResolver(models.AuthProviderMemberSpace, []IdentityProbe{probe}, time.Hour, time.Hour)
	r.newTicker = func(time.Duration) ticker { return &idleTicker{} }

	first := r.Resolve(context.Background())
	r.Stop()
	second := r.Resolve(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, models.ResolutionResolved, r.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&probe.calls))
	assert.True(t, r.State().Terminal())
}

func TestResolver_ResultBeforeDone(t *testing.T) {
	r := NewResolver(models.AuthProviderMemberSpace, nil, 0, 0)
	_, ok := r.Result()
	assert.False(t, ok)
	assert.Equal(t, models.ResolutionIdle, r.State())
	assert.Equal(t, DefaultInterval, r.interval)
	assert.Equal(t, DefaultMaxWait, r.maxWait)
}
