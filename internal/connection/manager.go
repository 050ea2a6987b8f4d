package connection

import (
	"context"
	"log/slog"
	"sync"
)

// dialFunc creates a Client. Replaceable in tests.
type dialFunc func(cfg ClientConfig, logger *slog.Logger) Client

// Manager owns the single push connection to the simulator. At most one
// non-closed client exists at a time; consumers interact with it only through
// Acquire, Send and Close.
type Manager struct {
	cfg    ManagerConfig
	logger *slog.Logger
	dial   dialFunc

	// Output to the Message Dispatcher.
	frames chan RawFrame

	mu           sync.Mutex
	client       Client
	gen          uint64 // liveness token: bumped on every acquire and close
	dialing      bool
	intentional  bool
	droppedSends int64

	// Notification hooks, set before first use.
	onConnect    func()
	onDisconnect func(error)

	wg sync.WaitGroup
}

// NewManager creates a Connection Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		dial:   NewClient,
		frames: make(chan RawFrame, cfg.FrameBufferSize),
	}
}

// OnConnect registers the connect-notification hook. Must be called before
// the first Acquire.
func (m *Manager) OnConnect(fn func()) {
	m.onConnect = fn
}

// OnDisconnect registers the disconnect-notification hook, invoked only for
// unintentional closes. Must be called before the first Acquire.
func (m *Manager) OnDisconnect(fn func(error)) {
	m.onDisconnect = fn
}

// Frames returns the channel of inbound frames for the Message Dispatcher.
// Frames are delivered in arrival order per connection.
func (m *Manager) Frames() <-chan RawFrame {
	return m.frames
}

// Acquire ensures an open connection exists. If one is already open it is
// reused (no second socket); otherwise any prior non-terminal client is
// closed and a new connection is dialed. A concurrent Acquire that lands
// while a dial is in flight returns without opening a second socket.
func (m *Manager) Acquire(ctx context.Context) error {
	m.mu.Lock()
	if m.client != nil && m.client.IsConnected() {
		m.mu.Unlock()
		return nil
	}
	if m.dialing {
		m.mu.Unlock()
		return nil
	}
	m.dialing = true

	// Terminate whatever was there before dialing anew.
	if m.client != nil {
		m.client.Close()
	}

	m.gen++
	gen := m.gen
	m.intentional = false

	cli := m.dial(ClientConfig{
		URL:          m.cfg.WSURL,
		PingInterval: m.cfg.PingInterval,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.FrameBufferSize,
	}, m.logger.With("gen", gen))
	m.client = cli
	m.mu.Unlock()

	err := cli.Connect(ctx)

	m.mu.Lock()
	m.dialing = false
	m.mu.Unlock()

	if err != nil {
		return err
	}

	m.wg.Add(1)
	go m.pump(cli, gen)

	m.logger.Info("push connection open", "url", m.cfg.WSURL, "gen", gen)

	if m.onConnect != nil {
		m.onConnect()
	}

	return nil
}

// Send delivers data only while the connection is open. Otherwise the send is
// dropped: logged, counted, and reported as ErrNotConnected.
func (m *Manager) Send(data []byte) error {
	m.mu.Lock()
	cli := m.client
	m.mu.Unlock()

	if cli == nil || !cli.IsConnected() {
		m.mu.Lock()
		m.droppedSends++
		m.mu.Unlock()
		m.logger.Warn("send skipped, push connection not open")
		return ErrNotConnected
	}

	return cli.Send(data)
}

// Close tears down the current connection. The closure is marked intentional
// so the Reconnect Policy does not fire.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.intentional = true
	m.gen++
	cli := m.client
	m.client = nil
	m.mu.Unlock()

	if cli != nil {
		return cli.Close()
	}
	return nil
}

// Stop closes the connection and waits for pump goroutines, then closes the
// frame channel so the dispatcher drains and exits.
func (m *Manager) Stop(ctx context.Context) error {
	m.Close()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("connection manager stop timed out")
	}

	close(m.frames)
	return nil
}

// IsOpen reports whether a connection is currently open.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client != nil && m.client.IsConnected()
}

// Generation returns the current liveness token. Deferred callbacks compare
// generations before acting on a connection they observed earlier.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ManagerStats{
		Open:         m.client != nil && m.client.IsConnected(),
		Generation:   m.gen,
		DroppedSends: m.droppedSends,
	}
}

// pump forwards one client's frames into the shared frame channel and turns
// its first error into a disconnect notification.
func (m *Manager) pump(cli Client, gen uint64) {
	defer m.wg.Done()

	for {
		select {
		case err, ok := <-cli.Errors():
			if !ok {
				return
			}
			m.handleDrop(cli, gen, err)
			return

		case msg, ok := <-cli.Messages():
			if !ok {
				// The client queues its read error before closing the
				// message channel, so a pending error here is the drop
				// that ended the connection.
				select {
				case err := <-cli.Errors():
					m.handleDrop(cli, gen, err)
				default:
				}
				return
			}
			select {
			case m.frames <- RawFrame{Data: msg.Data, Generation: gen, ReceivedAt: msg.ReceivedAt}:
			default:
				m.logger.Warn("frame buffer full, dropping frame", "gen", gen)
			}
		}
	}
}

// handleDrop fires the disconnect notification unless the close was
// intentional or a newer connection has already replaced this one.
func (m *Manager) handleDrop(cli Client, gen uint64, err error) {
	m.mu.Lock()
	stale := gen != m.gen
	intentional := m.intentional
	m.mu.Unlock()

	cli.Close()

	if stale || intentional {
		return
	}

	m.logger.Warn("push connection lost", "gen", gen, "error", err)

	if m.onDisconnect != nil {
		m.onDisconnect(err)
	}
}
