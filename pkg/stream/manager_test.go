package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error

	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-c.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	if messageType == websocket.TextMessage {
		c.written = append(c.written, append([]byte(nil), data...))
	}
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) frames(t *testing.T) []frame {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]frame, 0, len(c.written))
	for _, raw := range c.written {
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		out = append(out, f)
	}
	return out
}

func fakeDialer(conn Conn) Dialer {
	return func(context.Context, string) (Conn, error) {
		return conn, nil
	}
}

func newTestManager(t *testing.T, conn *fakeConn, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithDialer(fakeDialer(conn)), WithPingInterval(0)}
	m := NewManager("wss://example.invalid/ws", append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func openTestManager(t *testing.T, conn *fakeConn, opts ...Option) *Manager {
	t.Helper()
	m := newTestManager(t, conn, opts...)
	require.NoError(t, m.Open(context.Background()))
	return m
}

func noop(Message) {}

func TestManagerReplaysQueuedSubscriptionsInOrder(t *testing.T) {
	conn := newFakeConn()
	m := newTestManager(t, conn)

	subs := []Subscription{AllMids(), L2Book("BTC"), Trades("ETH"), UserEvents("0xabc")}
	for i, sub := range subs {
		id, err := m.Subscribe(sub, noop)
		require.NoError(t, err)
		assert.Equal(t, i+1, id)
	}
	assert.Equal(t, StateConnecting, m.State())
	assert.Empty(t, conn.frames(t))

	require.NoError(t, m.Open(context.Background()))
	assert.Equal(t, StateReady, m.State())

	frames := conn.frames(t)
	require.Len(t, frames, len(subs))
	for i, f := range frames {
		assert.Equal(t, "subscribe", f.Method)
		require.NotNil(t, f.Subscription)
		assert.Equal(t, subs[i], *f.Subscription)
	}

	// The queue is flushed once.
	id, err := m.Subscribe(L2Book("SOL"), noop)
	require.NoError(t, err)
	assert.Equal(t, 5, id)
	assert.Len(t, conn.frames(t), len(subs)+1)
}

func TestManagerSubscribeWithExplicitID(t *testing.T) {
	conn := newFakeConn()
	m := openTestManager(t, conn)

	id, err := m.SubscribeWithID(AllMids(), noop, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	id, err = m.Subscribe(Trades("BTC"), noop)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	_, err = m.Subscribe(AllMids(), nil)
	assert.ErrorIs(t, err, ErrInvalidSubscription)
	_, err = m.Subscribe(Subscription{Type: "bogus"}, noop)
	assert.ErrorIs(t, err, ErrInvalidSubscription)
}

func TestManagerUserEventsSingleton(t *testing.T) {
	conn := newFakeConn()
	m := openTestManager(t, conn)

	first, err := m.Subscribe(UserEvents("0xabc"), noop)
	require.NoError(t, err)
	_, err = m.Subscribe(UserEvents("0xdef"), noop)
	assert.ErrorIs(t, err, ErrDuplicateUserEvents)
	assert.Len(t, conn.frames(t), 1)

	// Releasing the listener frees the channel for a new user.
	removed, err := m.Unsubscribe(UserEvents("0xabc"), first)
	require.NoError(t, err)
	require.True(t, removed)
	_, err = m.Subscribe(UserEvents("0xdef"), noop)
	require.NoError(t, err)

	frames := conn.frames(t)
	require.Len(t, frames, 3)
	assert.Equal(t, "unsubscribe", frames[1].Method)
	assert.Equal(t, "subscribe", frames[2].Method)
	require.NotNil(t, frames[2].Subscription)
	assert.Equal(t, "0xdef", frames[2].Subscription.User)

	// Other channels still accept several listeners.
	_, err = m.Subscribe(AllMids(), noop)
	require.NoError(t, err)
	_, err = m.Subscribe(AllMids(), noop)
	require.NoError(t, err)
}

func TestManagerQueuedDuplicateUserEventsReported(t *testing.T) {
	conn := newFakeConn()
	var reported []error
	m := newTestManager(t, conn, WithErrorHandler(func(err error) { reported = append(reported, err) }))

	_, err := m.Subscribe(UserEvents("0xabc"), noop)
	require.NoError(t, err)
	_, err = m.Subscribe(UserEvents("0xabc"), noop)
	require.NoError(t, err)

	require.NoError(t, m.Open(context.Background()))
	assert.Len(t, conn.frames(t), 1)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrDuplicateUserEvents)
}

func TestManagerPartialUnsubscribe(t *testing.T) {
	conn := newFakeConn()
	m := openTestManager(t, conn)

	first, err := m.Subscribe(L2Book("BTC"), noop)
	require.NoError(t, err)
	second, err := m.Subscribe(L2Book("btc"), noop)
	require.NoError(t, err)

	removed, err := m.Unsubscribe(L2Book("BTC"), first)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Len(t, conn.frames(t), 2)

	removed, err = m.Unsubscribe(L2Book("BTC"), first)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = m.Unsubscribe(L2Book("BTC"), second)
	require.NoError(t, err)
	assert.True(t, removed)
	frames := conn.frames(t)
	require.Len(t, frames, 3)
	assert.Equal(t, "unsubscribe", frames[2].Method)
	assert.Equal(t, L2Book("BTC"), *frames[2].Subscription)
}

func TestManagerUnsubscribeBeforeReady(t *testing.T) {
	m := newTestManager(t, newFakeConn())
	id, err := m.Subscribe(AllMids(), noop)
	require.NoError(t, err)

	_, err = m.Unsubscribe(AllMids(), id)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestManagerDispatch(t *testing.T) {
	conn := newFakeConn()
	var reported []error
	m := openTestManager(t, conn, WithErrorHandler(func(err error) { reported = append(reported, err) }))

	var order []string
	_, err := m.Subscribe(L2Book("BTC"), func(msg Message) {
		order = append(order, "first:"+msg.(*L2BookMessage).Coin)
	})
	require.NoError(t, err)
	_, err = m.Subscribe(L2Book("BTC"), func(Message) { order = append(order, "second") })
	require.NoError(t, err)
	var trades int
	_, err = m.Subscribe(Trades("BTC"), func(Message) { trades++ })
	require.NoError(t, err)

	m.dispatch([]byte(`{"channel":"l2Book","data":{"coin":"BTC","levels":[[],[]],"time":1}}`))
	assert.Equal(t, []string{"first:BTC", "second"}, order)

	m.dispatch([]byte(`{"channel":"trades","data":[]}`))
	assert.Zero(t, trades)
	m.dispatch([]byte(`{"channel":"trades","data":[{"coin":"BTC","side":"A","px":"1","sz":"1","hash":"0x","time":1}]}`))
	assert.Equal(t, 1, trades)

	// No listeners and acknowledgements are dropped quietly.
	m.dispatch([]byte(`{"channel":"allMids","data":{"mids":{}}}`))
	m.dispatch([]byte(`{"channel":"subscriptionResponse","data":{"method":"subscribe","subscription":{"type":"trades","coin":"BTC"}}}`))
	assert.Empty(t, reported)

	m.dispatch([]byte(`{"channel":"mystery","data":{}}`))
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrUnknownChannel)
	assert.Equal(t, StateReady, m.State())
}

func TestManagerCallbackMayUnsubscribe(t *testing.T) {
	conn := newFakeConn()
	m := openTestManager(t, conn)

	var id int
	var calls int
	id, err := m.Subscribe(AllMids(), func(Message) {
		calls++
		_, _ = m.Unsubscribe(AllMids(), id)
	})
	require.NoError(t, err)

	m.dispatch([]byte(`{"channel":"allMids","data":{"mids":{"BTC":"1"}}}`))
	m.dispatch([]byte(`{"channel":"allMids","data":{"mids":{"BTC":"2"}}}`))
	assert.Equal(t, 1, calls)
}

func TestManagerReadLoopDeliversAndClosesOnError(t *testing.T) {
	conn := newFakeConn()
	errs := make(chan error, 1)
	m := openTestManager(t, conn, WithErrorHandler(func(err error) { errs <- err }))

	got := make(chan Message, 1)
	_, err := m.Subscribe(AllMids(), func(msg Message) { got <- msg })
	require.NoError(t, err)

	conn.inbound <- []byte(`{"channel":"allMids","data":{"mids":{"ETH":"2000"}}}`)
	select {
	case msg := <-got:
		assert.Equal(t, "2000", msg.(*AllMidsMessage).Mids["ETH"])
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	close(conn.inbound)
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("manager did not close after read error")
	}
	assert.Equal(t, StateClosed, m.State())
	assert.ErrorIs(t, m.Err(), io.EOF)
	assert.ErrorIs(t, <-errs, io.EOF)

	_, err = m.Subscribe(AllMids(), noop)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManagerOpenRetriesDial(t *testing.T) {
	conn := newFakeConn()
	var attempts atomic.Int32
	dial := func(context.Context, string) (Conn, error) {
		if attempts.Add(1) < 3 {
			return nil, errors.New("connection refused")
		}
		return conn, nil
	}
	m := newTestManager(t, conn,
		WithDialer(dial),
		WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }),
	)
	require.NoError(t, m.Open(context.Background()))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestManagerOpenGivesUp(t *testing.T) {
	var attempts atomic.Int32
	m := newTestManager(t, newFakeConn(),
		WithDialer(func(context.Context, string) (Conn, error) {
			attempts.Add(1)
			return nil, errors.New("connection refused")
		}),
		WithDialAttempts(2),
		WithBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }),
	)
	err := m.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, StateConnecting, m.State())
}

func TestManagerCloseIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	m := openTestManager(t, conn)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, StateClosed, m.State())
	assert.ErrorIs(t, m.Open(context.Background()), ErrClosed)
	assert.NoError(t, m.Err())

	_, err := m.Unsubscribe(AllMids(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManagerSendsPings(t *testing.T) {
	conn := newFakeConn()
	m := newTestManager(t, conn, WithPingInterval(5*time.Millisecond))
	require.NoError(t, m.Open(context.Background()))

	require.Eventually(t, func() bool {
		for _, f := range conn.frames(t) {
			if f.Method == "ping" {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestManagerOverGorillaWebsocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan Subscription, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(greeting))

		var req frame
		if !assert.NoError(t, conn.ReadJSON(&req)) {
			return
		}
		subscribed <- *req.Subscription
		_ = conn.WriteJSON(map[string]any{"channel": "subscriptionResponse", "data": req})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"channel":"l2Book","data":{"coin":"BTC","levels":[[{"px":"29999","sz":"1","n":1}],[{"px":"30001","sz":"2","n":1}]],"time":5}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer server.Close()

	m := NewManager(StreamURL(server.URL), WithPingInterval(0), WithHandshakeTimeout(time.Second))
	defer m.Close()

	books := make(chan *L2BookMessage, 1)
	_, err := m.Subscribe(L2Book("BTC"), func(msg Message) { books <- msg.(*L2BookMessage) })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Open(ctx))

	select {
	case sub := <-subscribed:
		assert.Equal(t, L2Book("BTC"), sub)
	case <-ctx.Done():
		t.Fatal("server never saw the subscription")
	}
	select {
	case book := <-books:
		assert.Equal(t, "30001", book.Asks()[0].Px)
	case <-ctx.Done():
		t.Fatal("book not delivered")
	}
}
