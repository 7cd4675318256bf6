package application

import (
	"context"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"endpoint-resolver/resolver/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(pool domain.SlotPool, lookup domain.Lookup) *Service {
	return &Service{Gate: ConcurrencyService{Pool: pool}, Lookup: lookup}
}

func TestResolveHostPorts_UnionsAddresses(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{
		"a": addrs("10.0.0.1", "10.0.0.2"),
		"b": addrs("10.0.0.2"),
	}}
	svc := newService(nil, lookup)

	got, err := svc.ResolveHostPorts(context.Background(), []domain.HostPort{
		{Host: "a", Port: 1000},
		{Host: "b", Port: 1000},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	for ep := range got {
		assert.Equal(t, 1000, ep.Port)
	}
}

func TestResolveHostPorts_FailsWithoutPartialResult(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"a": addrs("10.0.0.1")}}
	svc := newService(nil, lookup)

	got, err := svc.ResolveHostPorts(context.Background(), []domain.HostPort{
		{Host: "a", Port: 1},
		{Host: "missing", Port: 1},
		{Host: "a", Port: 2},
	})
	require.ErrorIs(t, err, domain.ErrUnknownHost)
	assert.Nil(t, got)
	assert.EqualValues(t, 2, lookup.calls.Load(), "lookups after the failure should not run")
}

func TestResolveWeightedHostPorts_PreservesInputOrder(t *testing.T) {
	lookup := &fakeLookup{
		addrs: map[string][]netip.Addr{
			"slow": addrs("10.0.0.1", "10.0.0.2"),
			"fast": addrs("10.0.1.1"),
			"mid":  addrs("10.0.2.1"),
		},
		delay: func(host string) time.Duration {
			switch host {
			case "slow":
				return 30 * time.Millisecond
			case "mid":
				return 10 * time.Millisecond
			}
			return 0
		},
	}
	svc := newService(newCountingPool(10), lookup)

	got, err := svc.ResolveWeightedHostPorts(context.Background(), []domain.WeightedHostPort{
		{Host: "slow", Port: 1, Weight: 0.5},
		{Host: "fast", Port: 2, Weight: 2},
		{Host: "mid", Port: 3, Weight: 1},
	})
	require.NoError(t, err)

	want := []domain.WeightedEndpoint{
		{Endpoint: domain.ResolvedEndpoint(netip.MustParseAddr("10.0.0.1"), 1), Weight: 0.5},
		{Endpoint: domain.ResolvedEndpoint(netip.MustParseAddr("10.0.0.2"), 1), Weight: 0.5},
		{Endpoint: domain.ResolvedEndpoint(netip.MustParseAddr("10.0.1.1"), 2), Weight: 2},
		{Endpoint: domain.ResolvedEndpoint(netip.MustParseAddr("10.0.2.1"), 3), Weight: 1},
	}
	assert.Equal(t, want, got)
}

func TestResolveWeightedHostPorts_ZeroAddresses(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"empty": nil, "a": addrs("10.0.0.1")}}
	svc := newService(newCountingPool(2), lookup)

	got, err := svc.ResolveWeightedHostPorts(context.Background(), []domain.WeightedHostPort{
		{Host: "empty", Port: 1, Weight: 1},
		{Host: "a", Port: 1, Weight: 1},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), got[0].Addr)
}

func TestResolveWeightedHostPorts_NeverExceedsCapacity(t *testing.T) {
	const capacity = 100
	lookup := &fakeLookup{
		addrs: map[string][]netip.Addr{},
		delay: func(string) time.Duration { return time.Millisecond },
	}
	pool := newCountingPool(capacity)
	svc := newService(pool, lookup)

	triples := make([]domain.WeightedHostPort, 1000)
	for i := range triples {
		triples[i] = domain.WeightedHostPort{Host: fmt.Sprintf("h%d", i), Port: 1, Weight: 1}
	}

	// todos falham: as vagas ainda precisam voltar
	_, err := svc.ResolveWeightedHostPorts(context.Background(), triples)
	require.ErrorIs(t, err, domain.ErrUnknownHost)

	assert.LessOrEqual(t, lookup.peak.Load(), int64(capacity))
	assert.EqualValues(t, 1000, lookup.calls.Load())
	assert.EqualValues(t, 0, pool.held.Load())
}

func TestResolveWeightedHostPorts_FailureReleasesEveryPermit(t *testing.T) {
	const n = 4
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"ok": addrs("10.0.0.1")}}
	pool := newCountingPool(n)
	svc := newService(pool, lookup)

	batch := []domain.WeightedHostPort{
		{Host: "ok", Port: 1, Weight: 1},
		{Host: "ok", Port: 2, Weight: 1},
		{Host: "bad", Port: 3, Weight: 1},
		{Host: "ok", Port: 4, Weight: 1},
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n+1; i++ {
			got, err := svc.ResolveWeightedHostPorts(context.Background(), batch)
			assert.ErrorIs(t, err, domain.ErrUnknownHost)
			assert.Nil(t, got)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("permits leaked: sequential batches deadlocked")
	}
	assert.EqualValues(t, 0, pool.held.Load())
}

func TestResolveWeightedHostPorts_CancelOnlyAffectsQueued(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	var lookupErr error

	lookup := domain.LookupFunc(func(ctx context.Context, host string) ([]netip.Addr, error) {
		if host == "first" {
			close(started)
			<-unblock
			lookupErr = ctx.Err()
		}
		return addrs("10.0.0.1"), nil
	})
	pool := &singlePermitPool{}
	svc := newService(pool, lookup)

	ctx, cancel := context.WithCancel(context.Background())
	f := svc.ResolveWeightedHostPortsAsync(ctx, []domain.WeightedHostPort{
		{Host: "first", Port: 1, Weight: 1},
		{Host: "queued", Port: 1, Weight: 1},
	})

	<-started
	cancel()
	close(unblock)

	_, err := f.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, lookupErr, "an issued lookup must not observe cancellation")
	assert.EqualValues(t, 0, pool.held.Load())
}

func TestResolveWeightedHostPorts_RecordsStats(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"a": addrs("10.0.0.1", "10.0.0.2")}}
	stats := &recordingStats{}
	svc := newService(newCountingPool(1), lookup)
	svc.Stats = stats

	_, err := svc.ResolveWeightedHostPorts(context.Background(), []domain.WeightedHostPort{
		{Host: "a", Port: 1, Weight: 1},
		{Host: "b", Port: 1, Weight: 1},
	})
	require.Error(t, err)

	events := stats.snapshot()
	require.Len(t, events, 2)
	byHost := map[string]domain.LookupEvent{}
	for _, ev := range events {
		byHost[ev.Host] = ev
		assert.True(t, ev.Gated)
	}
	assert.True(t, byHost["a"].Resolved)
	assert.Equal(t, 2, byHost["a"].Addrs)
	assert.False(t, byHost["b"].Resolved)
}

func TestResolveWeightedHostPorts_StatsRecordedAfterRelease(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"a": addrs("10.0.0.1")}}
	pool := newCountingPool(1)
	stats := newBlockingStats()
	svc := newService(pool, lookup)
	svc.Stats = stats
	svc.StatsTimeout = time.Minute

	f := svc.ResolveWeightedHostPortsAsync(context.Background(), []domain.WeightedHostPort{
		{Host: "a", Port: 1, Weight: 1},
	})

	select {
	case <-stats.entered:
	case <-time.After(time.Second):
		t.Fatalf("stats store was never called")
	}
	assert.EqualValues(t, 0, pool.held.Load(), "a slow stats store must not hold the lookup slot")

	close(stats.unblock)
	got, err := f.Wait()
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestResolveWeightedHostPorts_StatsTimeoutBoundsRecord(t *testing.T) {
	lookup := &fakeLookup{addrs: map[string][]netip.Addr{"a": addrs("10.0.0.1")}}
	svc := newService(newCountingPool(1), lookup)
	svc.Stats = newBlockingStats()
	svc.StatsTimeout = 10 * time.Millisecond

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.ResolveWeightedHostPorts(context.Background(), []domain.WeightedHostPort{
			{Host: "a", Port: 1, Weight: 1},
		})
		assert.NoError(t, err)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("a stuck stats store blocked the batch")
	}
}

func TestResolveWeightedHostPorts_EmptyInput(t *testing.T) {
	svc := newService(newCountingPool(1), &fakeLookup{})

	got, err := svc.ResolveWeightedHostPorts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
