package preference

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a Store and counts initial reads and watch opens.
type countingStore struct {
	Store
	mu      sync.Mutex
	gets    int
	watches int
}

func (s *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	s.gets++
	s.mu.Unlock()
	return s.Store.Get(ctx, key)
}

func (s *countingStore) Watch(ctx context.Context, key string) (<-chan string, error) {
	s.mu.Lock()
	s.watches++
	s.mu.Unlock()
	return s.Store.Watch(ctx, key)
}

func (s *countingStore) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.watches
}

func newTestBus(t *testing.T, grace time.Duration) (*Bus, *countingStore) {
	t.Helper()
	store := &countingStore{Store: NewMemoryStore()}
	bus := NewBus(BusConfig{Store: store, GracePeriod: grace})
	t.Cleanup(func() { _ = bus.Close() })
	return bus, store
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		return ""
	}
}

func TestSubscribeReplaysDefaultWhenEmpty(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)

	ch, cancel, err := bus.Subscribe(context.Background(), KeyIsYearDisplay, "false")
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, "false", recv(t, ch))
}

func TestSubscribeReplaysPersistedValue(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)
	ctx := context.Background()

	require.NoError(t, bus.Set(ctx, KeyUsername, "u2021001"))

	ch, cancel, err := bus.Subscribe(ctx, KeyUsername, "")
	require.NoError(t, err)
	defer cancel()

	assert.Equal(t, "u2021001", recv(t, ch))
}

func TestSubscribersObserveUpdatesInOrder(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)
	ctx := context.Background()

	ch, cancel, err := bus.Subscribe(ctx, KeyYearAndSemester, "")
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, "", recv(t, ch))

	for _, v := range []string{"2022-2023-1", "2022-2023-2", "2023-2024-1"} {
		require.NoError(t, bus.Set(ctx, KeyYearAndSemester, v))
	}

	assert.Equal(t, "2022-2023-1", recv(t, ch))
	assert.Equal(t, "2022-2023-2", recv(t, ch))
	assert.Equal(t, "2023-2024-1", recv(t, ch))
}

func TestConcurrentSubscribersShareOneWatch(t *testing.T) {
	bus, store := newTestBus(t, time.Second)
	ctx := context.Background()

	ch1, cancel1, err := bus.Subscribe(ctx, KeyIsLogin, "false")
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := bus.Subscribe(ctx, KeyIsLogin, "false")
	require.NoError(t, err)
	defer cancel2()

	gets, watches := store.counts()
	assert.Equal(t, 1, gets, "second subscriber must not re-read the store")
	assert.Equal(t, 1, watches)

	require.NoError(t, bus.Set(ctx, KeyIsLogin, "true"))
	assert.Equal(t, "false", recv(t, ch1))
	assert.Equal(t, "true", recv(t, ch1))
	assert.Equal(t, "false", recv(t, ch2))
	assert.Equal(t, "true", recv(t, ch2))
}

func TestResubscribeWithinGraceReusesWatch(t *testing.T) {
	bus, store := newTestBus(t, time.Second)
	ctx := context.Background()

	_, cancel, err := bus.Subscribe(ctx, KeyIsDateDisplay, "false")
	require.NoError(t, err)
	cancel()

	// Rapid re-subscription, well inside the grace window.
	ch, cancel2, err := bus.Subscribe(ctx, KeyIsDateDisplay, "false")
	require.NoError(t, err)
	defer cancel2()
	assert.Equal(t, "false", recv(t, ch))

	gets, watches := store.counts()
	assert.Equal(t, 1, gets, "grace window must prevent a second store read")
	assert.Equal(t, 1, watches)
}

func TestStreamTornDownAfterGrace(t *testing.T) {
	bus, store := newTestBus(t, 20*time.Millisecond)
	ctx := context.Background()

	_, cancel, err := bus.Subscribe(ctx, KeyIsTimeDisplay, "false")
	require.NoError(t, err)
	cancel()

	time.Sleep(100 * time.Millisecond)

	_, cancel2, err := bus.Subscribe(ctx, KeyIsTimeDisplay, "false")
	require.NoError(t, err)
	defer cancel2()

	gets, watches := store.counts()
	assert.Equal(t, 2, gets, "expired grace window must re-open the stream")
	assert.Equal(t, 2, watches)
}

func TestCancelIsIdempotent(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)

	_, cancel, err := bus.Subscribe(context.Background(), KeyUsername, "")
	require.NoError(t, err)
	cancel()
	cancel()
}

func TestIndependentKeysGetIndependentStreams(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)
	ctx := context.Background()

	chA, cancelA, err := bus.Subscribe(ctx, KeyIsYearDisplay, "false")
	require.NoError(t, err)
	defer cancelA()
	chB, cancelB, err := bus.Subscribe(ctx, KeyIsDateDisplay, "false")
	require.NoError(t, err)
	defer cancelB()

	recv(t, chA)
	recv(t, chB)

	require.NoError(t, bus.Set(ctx, KeyIsYearDisplay, "true"))
	assert.Equal(t, "true", recv(t, chA))

	select {
	case v := <-chB:
		t.Fatalf("unrelated key leaked value %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	bus, _ := newTestBus(t, time.Second)
	require.NoError(t, bus.Close())

	_, _, err := bus.Subscribe(context.Background(), KeyUsername, "")
	assert.ErrorIs(t, err, ErrBusClosed)
}
