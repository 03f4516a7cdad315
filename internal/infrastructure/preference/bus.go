package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCE BUS
// ══════════════════════════════════════════════════════════════════════════════

// DefaultGracePeriod is how long an underlying watch is kept alive after its
// last subscriber departs, so that rapid re-subscription does not repeatedly
// re-open the store resource.
const DefaultGracePeriod = 5 * time.Second

// ErrBusClosed is returned when operations are attempted on a closed bus.
var ErrBusClosed = errors.New("preference: bus is closed")

// BusConfig contains configuration for the Bus.
type BusConfig struct {
	// Store is the underlying preference store.
	Store Store

	// GracePeriod overrides DefaultGracePeriod (useful in tests).
	GracePeriod time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// Bus multiplexes many observers of the same preference key through a single
// underlying store watch. A key's stream is cold until first subscribed,
// shared among all concurrent subscribers, and torn down only after the grace
// period elapses with no subscribers. New subscribers immediately receive the
// most recently emitted value, or a synchronously fetched initial value when
// nothing has been emitted yet.
type Bus struct {
	store  Store
	grace  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	streams map[string]*sharedStream
	closed  bool
}

type sharedStream struct {
	key         string
	latest      string
	subs        map[int]chan string
	nextSubID   int
	cancelWatch context.CancelFunc
	teardown    *time.Timer
}

// NewBus creates a Bus over the given store.
func NewBus(config BusConfig) *Bus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	return &Bus{
		store:   config.Store,
		grace:   config.GracePeriod,
		logger:  config.Logger,
		streams: make(map[string]*sharedStream),
	}
}

// Subscribe attaches to the shared stream for key. The returned channel first
// delivers the current value (the stream's latest, or def when the store has
// no value yet), then every subsequent committed update in commit order. The
// returned cancel function detaches the subscriber; it is safe to call more
// than once.
func (b *Bus) Subscribe(ctx context.Context, key, def string) (<-chan string, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, ErrBusClosed
	}

	s, ok := b.streams[key]
	if !ok {
		var err error
		if s, err = b.openStream(ctx, key, def); err != nil {
			return nil, nil, err
		}
		b.streams[key] = s
	}

	// Re-subscription within the grace window reuses the live watch.
	if s.teardown != nil {
		s.teardown.Stop()
		s.teardown = nil
	}

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan string, 16)
	ch <- s.latest // replay; buffered, never blocks
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() { b.unsubscribe(key, id) })
	}
	return ch, cancel, nil
}

// openStream starts the underlying watch for a key and fetches the initial
// value synchronously, so no subscriber ever observes an undefined gap.
// Caller holds b.mu.
func (b *Bus) openStream(ctx context.Context, key, def string) (*sharedStream, error) {
	initial, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("preference: initial read %s: %w", key, err)
	}
	if !ok {
		initial = def
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	updates, err := b.store.Watch(watchCtx, key)
	if err != nil {
		cancel()
		return nil, err
	}

	s := &sharedStream{
		key:         key,
		latest:      initial,
		subs:        make(map[int]chan string),
		cancelWatch: cancel,
	}
	go b.pump(s, updates)

	b.logger.Debug("preference stream opened", "key", key)
	return s, nil
}

// pump fans underlying store updates out to every subscriber of the stream.
func (b *Bus) pump(s *sharedStream, updates <-chan string) {
	for v := range updates {
		b.mu.Lock()
		s.latest = v
		for _, ch := range s.subs {
			select {
			case ch <- v:
			default:
				// Slow subscriber: shed the oldest pending value
				// so ordering survives without blocking the bus.
				select {
				case <-ch:
				default:
				}
				ch <- v
			}
		}
		b.mu.Unlock()
	}
}

// unsubscribe detaches one subscriber and arms the teardown timer when the
// stream has no subscribers left.
func (b *Bus) unsubscribe(key string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[key]
	if !ok {
		return
	}
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
	if len(s.subs) > 0 || b.closed {
		return
	}

	s.teardown = time.AfterFunc(b.grace, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		cur, ok := b.streams[key]
		if !ok || cur != s || len(s.subs) > 0 {
			return
		}
		s.cancelWatch()
		delete(b.streams, key)
		b.logger.Debug("preference stream torn down", "key", key)
	})
}

// Get reads the current value of key straight from the store, falling back
// to def when nothing is persisted.
func (b *Bus) Get(ctx context.Context, key, def string) (string, error) {
	v, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Set writes the value through to the store; active streams receive the
// update via the store's change notification.
func (b *Bus) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.mu.Unlock()
	return b.store.Set(ctx, key, value)
}

// Close tears down every stream immediately. The underlying store is not
// closed; the bus does not own it.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for key, s := range b.streams {
		if s.teardown != nil {
			s.teardown.Stop()
		}
		s.cancelWatch()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		delete(b.streams, key)
	}
	return nil
}
