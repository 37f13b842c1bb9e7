package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultPingInterval     = 50 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
	defaultDialAttempts     = 5
	defaultMaxDialBackoff   = 30 * time.Second
)

// State is the connection lifecycle of a Manager.
type State int

const (
	StateConnecting State = iota
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Callback receives every message routed to a subscription.
type Callback func(Message)

type activeSubscription struct {
	callback Callback
	id       int
}

type pendingSubscription struct {
	sub    Subscription
	active activeSubscription
}

type frame struct {
	Method       string        `json:"method"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Manager multiplexes many subscriptions over one websocket connection.
// Subscriptions made before Open completes are queued and replayed in order
// once the connection is ready.
type Manager struct {
	url          string
	dial         Dialer
	pingInterval time.Duration
	writeTimeout time.Duration
	handshake    time.Duration
	dialAttempts int
	newBackOff   func() backoff.BackOff
	onError      func(error)

	mu      sync.Mutex
	state   State
	opening bool
	conn    Conn
	queue   []pendingSubscription
	active  map[string][]activeSubscription
	nextID  int
	err     error

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithPingInterval sets the keepalive period. Non-positive disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(m *Manager) {
		m.pingInterval = d
	}
}

// WithDialAttempts bounds how many times Open dials before giving up.
func WithDialAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.dialAttempts = n
		}
	}
}

// WithBackOff overrides the delay policy between dial attempts.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(m *Manager) {
		if newBackOff != nil {
			m.newBackOff = newBackOff
		}
	}
}

// WithDialer replaces the gorilla dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dial = d
		}
	}
}

// WithHandshakeTimeout sets the handshake timeout of the default dialer.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.handshake = d
		}
	}
}

// WithWriteTimeout bounds each frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.writeTimeout = d
		}
	}
}

// WithErrorHandler receives unknown-channel, decode, replay and read errors.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Manager) {
		m.onError = fn
	}
}

// NewManager builds a Manager for url. Nothing is dialled until Open.
func NewManager(url string, opts ...Option) *Manager {
	m := &Manager{
		url:          url,
		pingInterval: defaultPingInterval,
		writeTimeout: defaultWriteTimeout,
		handshake:    defaultHandshakeTimeout,
		dialAttempts: defaultDialAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxInterval = defaultMaxDialBackoff
			return b
		},
		active: make(map[string][]activeSubscription),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dial == nil {
		m.dial = GorillaDialer(m.handshake)
	}
	return m
}

// URL returns the stream endpoint.
func (m *Manager) URL() string {
	return m.url
}

// State reports the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done is closed once the manager reaches StateClosed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Err returns the read error that closed the connection, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Open dials the stream, retrying with backoff, then replays queued
// subscriptions and starts the read and keepalive loops.
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	switch {
	case m.state == StateClosed:
		m.mu.Unlock()
		return ErrClosed
	case m.state == StateReady || m.opening:
		m.mu.Unlock()
		return fmt.Errorf("stream: already open")
	}
	m.opening = true
	m.mu.Unlock()

	conn, err := m.dialWithBackOff(ctx)

	m.mu.Lock()
	m.opening = false
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if m.state == StateClosed {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	m.conn = conn
	m.state = StateReady
	queued := m.queue
	m.queue = nil
	var replayErrs []error
	for _, p := range queued {
		if err := m.subscribeLocked(p.sub, p.active); err != nil {
			replayErrs = append(replayErrs, fmt.Errorf("stream: replay subscription %d: %w", p.active.id, err))
		}
	}
	m.mu.Unlock()

	logx.WithContext(ctx).Infof("stream: connected to %s, replayed %d queued subscriptions", m.url, len(queued))
	for _, err := range replayErrs {
		m.reportError(err)
	}

	go m.readLoop(conn)
	if m.pingInterval > 0 {
		go m.pingLoop()
	}
	return nil
}

func (m *Manager) dialWithBackOff(ctx context.Context) (Conn, error) {
	b := m.newBackOff()
	b.Reset()
	var lastErr error
	for attempt := 1; attempt <= m.dialAttempts; attempt++ {
		conn, err := m.dial(ctx, m.url)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if attempt == m.dialAttempts {
			break
		}
		sleep := b.NextBackOff()
		if sleep == backoff.Stop {
			break
		}
		logx.WithContext(ctx).Infof("stream: dial attempt=%d failed, retrying in %s: %v", attempt, sleep, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, fmt.Errorf("stream: connect %s: %w", m.url, lastErr)
}

// Subscribe registers callback for sub and returns the subscription id.
func (m *Manager) Subscribe(sub Subscription, callback Callback) (int, error) {
	return m.SubscribeWithID(sub, callback, 0)
}

// SubscribeWithID is Subscribe with a caller-chosen id; zero draws the next
// id from the manager's counter. Before the connection is ready the
// subscription is queued and the id returned immediately.
func (m *Manager) SubscribeWithID(sub Subscription, callback Callback, id int) (int, error) {
	if _, err := sub.Identifier(); err != nil {
		return 0, err
	}
	if callback == nil {
		return 0, fmt.Errorf("%w: nil callback", ErrInvalidSubscription)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return 0, ErrClosed
	}
	if id == 0 {
		m.nextID++
		id = m.nextID
	}
	active := activeSubscription{callback: callback, id: id}
	if m.state != StateReady {
		m.queue = append(m.queue, pendingSubscription{sub: sub, active: active})
		logx.Debugf("stream: queued %s subscription id=%d until connected", sub.Type, id)
		return id, nil
	}
	if err := m.subscribeLocked(sub, active); err != nil {
		return 0, err
	}
	return id, nil
}

func (m *Manager) subscribeLocked(sub Subscription, active activeSubscription) error {
	ident, err := sub.Identifier()
	if err != nil {
		return err
	}
	list := m.active[ident]
	if sub.Type == TypeUserEvents && len(list) > 0 {
		return ErrDuplicateUserEvents
	}
	if err := m.writeLocked(frame{Method: "subscribe", Subscription: &sub}); err != nil {
		return err
	}
	m.active[ident] = append(list, active)
	logx.Debugf("stream: subscribed %s id=%d", ident, active.id)
	return nil
}

// Unsubscribe removes the listener id from sub's channel and reports whether
// it was registered. The venue is told to unsubscribe when the channel's
// last listener goes away.
func (m *Manager) Unsubscribe(sub Subscription, id int) (bool, error) {
	ident, err := sub.Identifier()
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateConnecting:
		return false, ErrNotReady
	case StateClosed:
		return false, ErrClosed
	}

	list := m.active[ident]
	kept := make([]activeSubscription, 0, len(list))
	for _, a := range list {
		if a.id != id {
			kept = append(kept, a)
		}
	}
	removed := len(kept) != len(list)
	if !removed {
		return false, nil
	}
	if len(kept) > 0 {
		m.active[ident] = kept
		return true, nil
	}
	delete(m.active, ident)
	if err := m.writeLocked(frame{Method: "unsubscribe", Subscription: &sub}); err != nil {
		return true, err
	}
	logx.Debugf("stream: unsubscribed %s", ident)
	return true, nil
}

// Close shuts the connection down. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	m.state = StateClosed
	conn := m.conn
	if conn != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	m.mu.Unlock()

	m.finish()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (m *Manager) finish() {
	m.closeOnce.Do(func() { close(m.done) })
}

// fail moves the manager to StateClosed after a transport error.
func (m *Manager) fail(err error) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.err = err
	conn := m.conn
	m.mu.Unlock()

	logx.Errorf("stream: connection to %s lost: %v", m.url, err)
	if conn != nil {
		_ = conn.Close()
	}
	m.finish()
	m.reportError(err)
}

func (m *Manager) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.fail(fmt.Errorf("stream: read: %w", err))
			return
		}
		m.dispatch(data)
	}
}

func (m *Manager) pingLoop() {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			var err error
			if m.state == StateReady {
				err = m.writeLocked(frame{Method: "ping"})
			}
			m.mu.Unlock()
			if err != nil {
				m.fail(fmt.Errorf("stream: ping: %w", err))
				return
			}
		}
	}
}

func (m *Manager) dispatch(raw []byte) {
	msg, err := ParseMessage(raw)
	if err != nil {
		var unknown *UnknownChannelError
		if errors.As(err, &unknown) {
			logx.Errorf("stream: dropping message on unknown channel %q", unknown.Channel)
		} else {
			logx.Errorf("stream: %v", err)
		}
		m.reportError(err)
		return
	}
	ident, ok := msg.Identifier()
	if !ok {
		return
	}

	m.mu.Lock()
	listeners := append([]activeSubscription(nil), m.active[ident]...)
	m.mu.Unlock()

	if len(listeners) == 0 {
		logx.Debugf("stream: no listeners for %s, dropping message", ident)
		return
	}
	for _, l := range listeners {
		l.callback(msg)
	}
}

func (m *Manager) writeLocked(f frame) error {
	if m.conn == nil {
		return ErrNotReady
	}
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("stream: encode %s frame: %w", f.Method, err)
	}
	if err := m.conn.SetWriteDeadline(time.Now().Add(m.writeTimeout)); err != nil {
		return fmt.Errorf("stream: set write deadline: %w", err)
	}
	if err := m.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("stream: write %s frame: %w", f.Method, err)
	}
	return nil
}

func (m *Manager) reportError(err error) {
	if m.onError != nil && err != nil {
		m.onError(err)
	}
}
