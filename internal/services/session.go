package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
)

const defaultLoadTimeout = 10 * time.Second

// Session bundles the stores of one device.
type Session struct {
	DeviceID       string
	Cart           *CartStore
	Favorites      *FavoritesStore
	Account        *AccountStore
	PaymentMethods *PaymentMethodsStore

	// serializes order history read-modify-write
	ordersMu sync.Mutex

	lastSeen atomic.Int64
	// bumped on every Get, so eviction can tell whether the session was handed
	// out after it was selected
	uses  atomic.Uint64
	ready chan struct{}
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
	s.uses.Add(1)
}

// load fills the stores concurrently and returns once all are done.
func (s *Session) load(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(4)

	go func() { defer wg.Done(); s.Cart.Load(ctx) }()
	go func() { defer wg.Done(); s.Favorites.Load(ctx) }()
	go func() { defer wg.Done(); s.Account.Load(ctx) }()
	go func() { defer wg.Done(); s.PaymentMethods.Load(ctx) }()

	wg.Wait()
}

// Flush waits for the background writes of the cart, favorites and saved
// cards.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.Cart.Flush(ctx); err != nil {
		return err
	}

	if err := s.Favorites.Flush(ctx); err != nil {
		return err
	}

	return s.PaymentMethods.Flush(ctx)
}

type SessionOptions struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	WriteTimeout  time.Duration
	Logger        *slog.Logger
	Now           func() time.Time
}

// SessionManager creates one Session per device on first use and evicts
// sessions that stay idle longer than the configured TTL.
type SessionManager struct {
	store storage.Store
	auth  Authenticator
	opts  SessionOptions
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(store storage.Store, auth Authenticator, opts SessionOptions) *SessionManager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &SessionManager{
		store:    store,
		auth:     auth,
		opts:     opts,
		now:      opts.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the device's session, loading it from storage the first time.
// Concurrent callers for a new device share one load.
func (m *SessionManager) Get(ctx context.Context, deviceID string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[deviceID]
	if !ok {
		sess = m.newSession(deviceID)
		m.sessions[deviceID] = sess
		metrics.SetActiveSessions(len(m.sessions))
	}
	sess.touch(m.now())
	m.mu.Unlock()

	if !ok {
		// The load outlives a cancelled request so later callers never see a
		// half-loaded session.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultLoadTimeout)
		sess.load(loadCtx)
		cancel()
		close(sess.ready)

		m.opts.Logger.Debug("Session loaded", slog.String("device_id", deviceID))

		return sess, nil
	}

	select {
	case <-sess.ready:
		return sess, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *SessionManager) newSession(deviceID string) *Session {
	storeOpts := StoreOptions{
		WriteTimeout: m.opts.WriteTimeout,
		Logger:       m.opts.Logger.With(slog.String("device_id", deviceID)),
	}

	return &Session{
		DeviceID:       deviceID,
		Cart:           NewCartStore(m.store, deviceID, storeOpts),
		Favorites:      NewFavoritesStore(m.store, deviceID, storeOpts),
		Account:        NewAccountStore(m.store, deviceID, m.auth, storeOpts),
		PaymentMethods: NewPaymentMethodsStore(m.store, deviceID, storeOpts),
		ready:          make(chan struct{}),
	}
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Run evicts idle sessions every sweep interval until ctx is cancelled.
func (m *SessionManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(ctx)
		}
	}
}

// EvictIdle flushes and drops every loaded session idle for longer than the
// TTL. A session handed out again after it was selected is kept.
func (m *SessionManager) EvictIdle(ctx context.Context) int {
	cutoff := m.now().Add(-m.opts.IdleTTL).UnixNano()

	type candidate struct {
		sess *Session
		uses uint64
	}

	// uses is captured under m.mu, which Get holds while touching.
	m.mu.Lock()
	var idle []candidate
	for _, sess := range m.sessions {
		if sess.lastSeen.Load() < cutoff && isReady(sess) {
			idle = append(idle, candidate{sess: sess, uses: sess.uses.Load()})
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, c := range idle {
		if err := c.sess.Flush(ctx); err != nil {
			m.opts.Logger.Warn("Failed to flush idle session", slog.String("device_id", c.sess.DeviceID), slog.String("error", err.Error()))
			continue
		}

		m.mu.Lock()
		if m.sessions[c.sess.DeviceID] == c.sess && c.sess.uses.Load() == c.uses {
			delete(m.sessions, c.sess.DeviceID)
			evicted++
		}
		metrics.SetActiveSessions(len(m.sessions))
		m.mu.Unlock()
	}

	if evicted > 0 {
		m.opts.Logger.Info("Evicted idle sessions", slog.Int("count", evicted))
	}

	return evicted
}

// Close flushes every session's pending writes.
func (m *SessionManager) Close(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.mu.Unlock()

	var firstErr error
	for _, sess := range sessions {
		if err := sess.Flush(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func isReady(sess *Session) bool {
	select {
	case <-sess.ready:
		return true
	default:
		return false
	}
}
