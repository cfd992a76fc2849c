package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alphaledger/ledgerd/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// ChangeHandler is called for every entity-change event received on the
// stream.
type ChangeHandler func(domain.ChangeEvent)

// streamCommand is the subscription envelope sent to the authority.
type streamCommand struct {
	Type            string   `json:"type"`
	Kinds           []string `json:"kinds"`
	AssetManagerIDs []int64  `json:"asset_manager_ids"`
}

// Stream is a WebSocket client for the authority's entity-change feed. The
// authority pushes an event whenever a transaction or position changes under
// a subscribed owner scope; consumers typically use it to invalidate local
// caches. The client manages the connection lifecycle, subscriptions, and
// dispatches events to registered handlers.
type Stream struct {
	wsURL string
	token string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	// connDone is closed when the current connection is replaced, stopping
	// the loops bound to it.
	connDone chan struct{}

	// Subscriptions to restore on reconnect.
	subscriptions []streamCommand

	handlers  []ChangeHandler
	handlerMu sync.RWMutex

	// done is closed when the stream is shut down.
	done chan struct{}
}

// NewStream creates a stream client for the given WebSocket URL. The session
// token is presented on the handshake the same way the HTTP client presents
// it on requests.
func NewStream(wsURL, sessionToken string) *Stream {
	return &Stream{
		wsURL: wsURL,
		token: sessionToken,
		done:  make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection to the authority.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("ledger/stream: client is closed")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return fmt.Errorf("ledger/stream: connect: %w", err)
	}

	// Retire the previous connection and its loops before swapping in the
	// new one.
	if s.connDone != nil {
		close(s.connDone)
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}

	connDone := make(chan struct{})
	s.connDone = connDone
	s.conn = conn

	// Set up pong handler for keep-alive.
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Start the read loop and ping loop for this connection.
	go s.readLoop(conn, connDone)
	go s.pingLoop(conn, connDone)

	// Restore any previous subscriptions after reconnect.
	for _, cmd := range s.subscriptions {
		if err := s.sendCommand(cmd); err != nil {
			return fmt.Errorf("ledger/stream: restore subscription: %w", err)
		}
	}

	return nil
}

// Subscribe subscribes to change events for the given entity kinds under the
// specified owner scopes. Valid kinds are domain.KindTransaction and
// domain.KindPosition.
func (s *Stream) Subscribe(ctx context.Context, kinds []string, assetManagerIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("ledger/stream: not connected")
	}

	cmd := streamCommand{
		Type:            "subscribe",
		Kinds:           kinds,
		AssetManagerIDs: assetManagerIDs,
	}

	if err := s.sendCommand(cmd); err != nil {
		return fmt.Errorf("ledger/stream: subscribe: %w", err)
	}

	// Track subscription for reconnection.
	s.subscriptions = append(s.subscriptions, cmd)

	return nil
}

// Unsubscribe unsubscribes from change events for the given entity kinds
// under the specified owner scopes.
func (s *Stream) Unsubscribe(ctx context.Context, kinds []string, assetManagerIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("ledger/stream: not connected")
	}

	cmd := streamCommand{
		Type:            "unsubscribe",
		Kinds:           kinds,
		AssetManagerIDs: assetManagerIDs,
	}

	if err := s.sendCommand(cmd); err != nil {
		return fmt.Errorf("ledger/stream: unsubscribe: %w", err)
	}

	// Remove matching subscriptions from the tracked list.
	kindSet := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		kindSet[k] = struct{}{}
	}
	ownerSet := make(map[int64]struct{}, len(assetManagerIDs))
	for _, id := range assetManagerIDs {
		ownerSet[id] = struct{}{}
	}

	filtered := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		remainingKinds := make([]string, 0, len(sub.Kinds))
		for _, k := range sub.Kinds {
			if _, found := kindSet[k]; !found {
				remainingKinds = append(remainingKinds, k)
			}
		}
		remainingOwners := make([]int64, 0, len(sub.AssetManagerIDs))
		for _, id := range sub.AssetManagerIDs {
			if _, found := ownerSet[id]; !found {
				remainingOwners = append(remainingOwners, id)
			}
		}
		if len(remainingKinds) > 0 && len(remainingOwners) > 0 {
			sub.Kinds = remainingKinds
			sub.AssetManagerIDs = remainingOwners
			filtered = append(filtered, sub)
		}
	}
	s.subscriptions = filtered

	return nil
}

// Close shuts down the WebSocket connection and stops the read loop.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	if s.conn != nil {
		// Send a close message to the server.
		_ = s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return s.conn.Close()
	}

	return nil
}

// OnChange registers a handler that is called for every entity-change event
// received on the stream.
func (s *Stream) OnChange(handler ChangeHandler) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// --------------------------------------------------------------------------
// Internal methods
// --------------------------------------------------------------------------

// sendCommand sends a JSON command to the WebSocket. Caller must hold s.mu.
func (s *Stream) sendCommand(cmd streamCommand) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop continuously reads messages from its connection and dispatches
// them to the registered handlers. It runs in its own goroutine and exits
// when the connection is retired; on an unexpected disconnect it attempts
// to reconnect with exponential backoff.
func (s *Stream) readLoop(conn *websocket.Conn, connDone chan struct{}) {
	defer conn.Close()

	for {
		select {
		case <-s.done:
			return
		case <-connDone:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// A retired or shut-down connection is expected to error out.
			select {
			case <-s.done:
				return
			case <-connDone:
				return
			default:
			}

			// Attempt reconnection.
			s.reconnect()
			return // reconnect -> Connect starts fresh loops
		}

		s.handleMessage(message)
	}
}

// pingLoop sends periodic ping messages to keep its connection alive. It
// exits when the connection is retired, so each connection has exactly one
// ping loop.
func (s *Stream) pingLoop(conn *websocket.Conn, connDone chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-connDone:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw WebSocket message and dispatches it to the
// registered handlers.
func (s *Stream) handleMessage(raw []byte) {
	var api APIChangeEvent
	if err := json.Unmarshal(raw, &api); err != nil {
		return // Silently drop unparseable messages.
	}
	if api.Kind != domain.KindTransaction && api.Kind != domain.KindPosition {
		return
	}

	event := api.ToDomain()

	s.handlerMu.RLock()
	handlers := s.handlers
	s.handlerMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// reconnect attempts to re-establish the WebSocket connection with
// exponential backoff. It blocks until successful or the stream is closed.
func (s *Stream) reconnect() {
	delay := reconnectDelay

	for {
		select {
		case <-s.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.Connect(ctx)
		cancel()

		if err == nil {
			return
		}

		// Exponential backoff.
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
