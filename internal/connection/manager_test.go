package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeClient is a scriptable Client for manager tests.
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	closed    bool
	sent      [][]byte

	connectErr error

	messages chan TimestampedMessage
	errs     chan error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		messages: make(chan TimestampedMessage, 16),
		errs:     make(chan error, 1),
	}
}

func (f *fakeClient) Connect(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrAlreadyClosed
	}
	f.closed = true
	f.connected = false
	close(f.messages)
	return nil
}

func (f *fakeClient) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected {
		return ErrNotConnected
	}
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeClient) Messages() <-chan TimestampedMessage { return f.messages }
func (f *fakeClient) Errors() <-chan error                { return f.errs }

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// fail simulates an unintentional connection drop.
func (f *fakeClient) fail(err error) {
	f.errs <- err
}

func newTestManager(dial dialFunc) *Manager {
	cfg := DefaultManagerConfig()
	cfg.WSURL = "ws://localhost:8000/ws"
	m := NewManager(cfg, slog.Default())
	m.dial = dial
	return m
}

func TestManager_AcquireReusesOpenConnection(t *testing.T) {
	var dials int
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		dials++
		return newFakeClient()
	})

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}

	if dials != 1 {
		t.Errorf("dials = %d, want 1", dials)
	}
	if !m.IsOpen() {
		t.Error("IsOpen() = false, want true")
	}
	if gen := m.Generation(); gen != 1 {
		t.Errorf("Generation() = %d, want 1", gen)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Stop(stopCtx)
}

func TestManager_AcquireReplacesDeadConnection(t *testing.T) {
	var clients []*fakeClient
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		c := newFakeClient()
		clients = append(clients, c)
		return c
	})

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Kill the connection out from under the manager.
	clients[0].mu.Lock()
	clients[0].connected = false
	clients[0].mu.Unlock()

	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}

	if len(clients) != 2 {
		t.Fatalf("dials = %d, want 2", len(clients))
	}
	if gen := m.Generation(); gen != 2 {
		t.Errorf("Generation() = %d, want 2", gen)
	}
	if !clients[0].closed {
		t.Error("prior client not closed before redial")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Stop(stopCtx)
}

func TestManager_SendDroppedWhenClosed(t *testing.T) {
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		return newFakeClient()
	})

	if err := m.Send([]byte("hello")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}

	stats := m.Stats()
	if stats.DroppedSends != 1 {
		t.Errorf("DroppedSends = %d, want 1", stats.DroppedSends)
	}
	if stats.Open {
		t.Error("Open = true, want false")
	}
}

func TestManager_FramesForwarded(t *testing.T) {
	fake := newFakeClient()
	m := newTestManager(func(ClientConfig, *slog.Logger) Client { return fake })

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	fake.messages <- TimestampedMessage{Data: []byte(`{"type":"state_update"}`), ReceivedAt: time.Now()}

	select {
	case frame := <-m.Frames():
		if string(frame.Data) != `{"type":"state_update"}` {
			t.Errorf("frame data = %s", frame.Data)
		}
		if frame.Generation != 1 {
			t.Errorf("frame generation = %d, want 1", frame.Generation)
		}
	case <-time.After(time.Second):
		t.Fatal("frame not forwarded")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Stop(stopCtx)
}

func TestManager_DisconnectCallbackOnDrop(t *testing.T) {
	fake := newFakeClient()
	m := newTestManager(func(ClientConfig, *slog.Logger) Client { return fake })

	var notified atomic.Int64
	m.OnDisconnect(func(error) { notified.Add(1) })

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	fake.fail(errors.New("read: connection reset"))

	deadline := time.Now().Add(2 * time.Second)
	for notified.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := notified.Load(); n != 1 {
		t.Errorf("disconnect notifications = %d, want 1", n)
	}
}

func TestManager_IntentionalCloseSuppressesCallback(t *testing.T) {
	fake := newFakeClient()
	m := newTestManager(func(ClientConfig, *slog.Logger) Client { return fake })

	var notified atomic.Int64
	m.OnDisconnect(func(error) { notified.Add(1) })

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Even if the client surfaces an error after the close, no reconnect
	// notification may fire.
	fake.errs <- errors.New("use of closed network connection")
	time.Sleep(50 * time.Millisecond)

	if n := notified.Load(); n != 0 {
		t.Errorf("disconnect notifications = %d, want 0", n)
	}
	if m.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
}

func TestManager_StaleDropIgnored(t *testing.T) {
	var clients []*fakeClient
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		c := newFakeClient()
		clients = append(clients, c)
		return c
	})

	var notified atomic.Int64
	m.OnDisconnect(func(error) { notified.Add(1) })

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Replace the first connection, then let the old one report an error.
	clients[0].mu.Lock()
	clients[0].connected = false
	clients[0].mu.Unlock()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("re-Acquire failed: %v", err)
	}

	clients[0].errs <- errors.New("stale read error")
	time.Sleep(50 * time.Millisecond)

	if n := notified.Load(); n != 0 {
		t.Errorf("disconnect notifications = %d, want 0 (stale generation)", n)
	}
	if !m.IsOpen() {
		t.Error("IsOpen() = false, want true")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Stop(stopCtx)
}

func TestManager_StopWithRealClient(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := DefaultManagerConfig()
	cfg.WSURL = wsURL(server)
	m := NewManager(cfg, slog.Default())

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	// Stop must finish well inside the context budget: the pump goroutine
	// has to observe the client teardown, not the context deadline.
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %v, want prompt return", elapsed)
	}

	select {
	case _, ok := <-m.Frames():
		if ok {
			t.Error("expected closed frame channel")
		}
	case <-time.After(time.Second):
		t.Fatal("frame channel not closed")
	}
}

// slowDialClient blocks in Connect until released.
type slowDialClient struct {
	*fakeClient
	release chan struct{}
}

func (s *slowDialClient) Connect(ctx context.Context) error {
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.fakeClient.Connect(ctx)
}

func TestManager_ConcurrentAcquireSingleDial(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var dials int
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		mu.Lock()
		dials++
		mu.Unlock()
		return &slowDialClient{fakeClient: newFakeClient(), release: release}
	})

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.Acquire(ctx); err != nil {
				t.Errorf("Acquire failed: %v", err)
			}
		}()
	}

	// Let the racers land on the in-flight dial, then let it finish.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if dials != 1 {
		t.Errorf("dials = %d, want 1", dials)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	m.Stop(stopCtx)
}

func TestManager_StopClosesFrameChannel(t *testing.T) {
	m := newTestManager(func(ClientConfig, *slog.Logger) Client {
		return newFakeClient()
	})

	ctx := context.Background()
	if err := m.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case _, ok := <-m.Frames():
		if ok {
			t.Error("expected closed frame channel")
		}
	case <-time.After(time.Second):
		t.Fatal("frame channel not closed")
	}
}
