package junghome

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Push channel constants.
const (
	// pushBaseDelay is the initial reconnect delay.
	pushBaseDelay = 5 * time.Second

	// pushMaxDelay caps the exponential reconnect backoff.
	pushMaxDelay = 5 * time.Minute

	// pushHeartbeat is the ping interval keeping the connection alive.
	pushHeartbeat = 30 * time.Second

	// pushPongWait is how long to wait for traffic before declaring the
	// connection dead. Must exceed the heartbeat interval.
	pushPongWait = pushHeartbeat + 10*time.Second

	// pushWriteWait bounds control frame writes.
	pushWriteWait = 10 * time.Second

	// pushReadLimit bounds inbound message size.
	pushReadLimit = 1 << 20

	// pushHandshakeTimeout bounds the websocket dial.
	pushHandshakeTimeout = 10 * time.Second
)

// PushHandler receives decoded push events.
// Implemented by the Synchronizer.
type PushHandler interface {
	// HandleEnumeration processes a full device list message.
	HandleEnumeration(descriptors []FunctionDescriptor)

	// HandleDeviceUpdate processes a single-device message.
	HandleDeviceUpdate(fd FunctionDescriptor)

	// HandleDatapointSignal reacts to a datapoint change notification.
	HandleDatapointSignal()
}

// PushConfig holds configuration for the push client.
type PushConfig struct {
	// Host is the gateway hostname or IP, without scheme.
	Host string

	// Token is the credential sent in the "token" header.
	Token string

	// TLSInsecure skips certificate verification.
	TLSInsecure bool
}

// pushMessage is the wire envelope of every push event.
type pushMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PushClient maintains the gateway's websocket event stream.
//
// The stream is a latency optimisation on top of polling: connection
// failures are logged and retried with exponential backoff, never
// escalated. A ping every 30 seconds keeps the connection alive and
// detects silent drops via the pong deadline.
type PushClient struct {
	host    string
	token   string
	dialer  *websocket.Dialer
	handler PushHandler

	// Connection state for health reporting.
	connected bool
	connMu    sync.RWMutex

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewPushClient creates a push client delivering events to handler.
func NewPushClient(cfg PushConfig, handler PushHandler) *PushClient {
	dialer := &websocket.Dialer{
		HandshakeTimeout: pushHandshakeTimeout,
	}
	if cfg.TLSInsecure {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402 -- gateway uses a self-signed certificate on the local network
		}
	}

	return &PushClient{
		host:    cfg.Host,
		token:   cfg.Token,
		dialer:  dialer,
		handler: handler,
		done:    make(chan struct{}),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the push client.
func (p *PushClient) SetLogger(logger Logger) {
	p.logger = logger
}

// Start begins the connect/listen/reconnect loop.
// Call Stop to shut down.
func (p *PushClient) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop gracefully stops the push client.
// Safe to call multiple times.
func (p *PushClient) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// IsConnected returns whether the event stream is currently up.
func (p *PushClient) IsConnected() bool {
	p.connMu.RLock()
	defer p.connMu.RUnlock()
	return p.connected
}

// run reconnects with exponential backoff until stopped.
func (p *PushClient) run(ctx context.Context) {
	defer p.wg.Done()

	delay := pushBaseDelay
	for {
		err := p.connectAndListen(ctx)
		p.setConnected(false)

		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		default:
		}

		if err != nil {
			p.logger.Warn("push connection lost", "error", err, "retry_in", delay)
		}

		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-time.After(delay):
		}

		delay *= 2
		if delay > pushMaxDelay {
			delay = pushMaxDelay
		}
	}
}

// connectAndListen dials the stream and processes messages until the
// connection drops or shutdown is requested.
func (p *PushClient) connectAndListen(ctx context.Context) error {
	// Timestamp query busts the gateway's server-side response cache
	url := fmt.Sprintf("wss://%s/ws?t=%d", p.host, time.Now().UnixMilli())
	header := http.Header{"token": []string{p.token}}

	conn, resp, err := p.dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%w: websocket handshake status %d", ErrAuth, resp.StatusCode)
		}
		return fmt.Errorf("%w: websocket dial: %w", ErrTransport, err)
	}
	defer conn.Close() //nolint:errcheck // Connection is being torn down anyway

	conn.SetReadLimit(pushReadLimit)
	conn.SetReadDeadline(time.Now().Add(pushPongWait)) //nolint:errcheck // Deadline on a fresh conn cannot fail
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pushPongWait))
	})

	p.setConnected(true)
	p.logger.Info("push channel connected")

	// Heartbeat pings until the read loop returns
	pingDone := make(chan struct{})
	defer close(pingDone)
	go p.pingLoop(conn, pingDone)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-p.done:
			return nil
		default:
		}

		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: websocket read: %w", ErrTransport, err)
		}

		p.dispatch(payload)
	}
}

// pingLoop sends heartbeat pings until done closes.
func (p *PushClient) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pushHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-p.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(pushWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// Read loop will notice the dead connection shortly
				return
			}
		}
	}
}

// dispatch decodes one push message and routes it to the handler.
func (p *PushClient) dispatch(payload []byte) {
	var msg pushMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		p.logger.Warn("undecodable push message", "error", err)
		return
	}

	switch msg.Type {
	case "functions":
		var descriptors []FunctionDescriptor
		if err := json.Unmarshal(msg.Data, &descriptors); err != nil {
			p.logger.Warn("undecodable functions push", "error", err)
			return
		}
		p.handler.HandleEnumeration(descriptors)

	case "function":
		var fd FunctionDescriptor
		if err := json.Unmarshal(msg.Data, &fd); err != nil {
			p.logger.Warn("undecodable function push", "error", err)
			return
		}
		p.handler.HandleDeviceUpdate(fd)

	case "datapoint":
		// Datapoint payloads do not carry full device state; pull the
		// next sweep forward instead of guessing.
		p.handler.HandleDatapointSignal()

	case "message", "version":
		p.logger.Info("gateway notice", "type", msg.Type, "data", string(msg.Data))

	default:
		p.logger.Debug("ignoring push message", "type", msg.Type)
	}
}

// setConnected updates the connection flag.
func (p *PushClient) setConnected(v bool) {
	p.connMu.Lock()
	p.connected = v
	p.connMu.Unlock()
}
