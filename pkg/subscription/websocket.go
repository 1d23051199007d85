package subscription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketClient manages WebSocket connection to Solana
type WebSocketClient struct {
	url            string
	conn           *websocket.Conn
	mu             sync.RWMutex
	writeMu        sync.Mutex
	subscriptions  map[uint64]*Subscription
	nextID         uint64
	handlers       map[uint64]AccountUpdateHandler
	commitment     string
	reconnectDelay time.Duration
	ctx            context.Context
	cancel         context.CancelFunc
	connected      bool
	logger         *zap.Logger
}

// Subscription represents an account subscription
type Subscription struct {
	ID        uint64
	AccountID string
	SubID     uint64 // Solana subscription ID
}

// AccountUpdateHandler is called with the decoded account data on every update
type AccountUpdateHandler func(accountID string, data []byte, slot uint64)

// RPCRequest represents a JSON-RPC request
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse represents a JSON-RPC response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NotificationMessage represents a subscription notification
type NotificationMessage struct {
	JSONRPC string             `json:"jsonrpc"`
	Method  string             `json:"method"`
	Params  NotificationParams `json:"params"`
}

// NotificationParams contains subscription notification data
type NotificationParams struct {
	Result       AccountNotification `json:"result"`
	Subscription uint64              `json:"subscription"`
}

// AccountNotification contains account update data
type AccountNotification struct {
	Context Context      `json:"context"`
	Value   AccountValue `json:"value"`
}

// Context contains slot information
type Context struct {
	Slot uint64 `json:"slot"`
}

// AccountValue contains account data
type AccountValue struct {
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

// ClientOption customises a WebSocketClient
type ClientOption func(*WebSocketClient)

func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *WebSocketClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithReconnectDelay(delay time.Duration) ClientOption {
	return func(c *WebSocketClient) {
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

// WithSubscribeCommitment sets the commitment of account subscriptions (default confirmed)
func WithSubscribeCommitment(commitment string) ClientOption {
	return func(c *WebSocketClient) {
		if commitment != "" {
			c.commitment = commitment
		}
	}
}

// NewWebSocketClient creates a new WebSocket client
func NewWebSocketClient(ctx context.Context, wsURL string, opts ...ClientOption) (*WebSocketClient, error) {
	clientCtx, cancel := context.WithCancel(ctx)

	client := &WebSocketClient{
		url:            wsURL,
		subscriptions:  make(map[uint64]*Subscription),
		handlers:       make(map[uint64]AccountUpdateHandler),
		commitment:     "confirmed",
		reconnectDelay: 5 * time.Second,
		ctx:            clientCtx,
		cancel:         cancel,
		nextID:         1,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if err := client.connect(); err != nil {
		cancel()
		return nil, err
	}

	go client.readMessages()
	go client.handleReconnection()

	return client, nil
}

func (c *WebSocketClient) connect() error {
	conn, _, err := websocket.DefaultDialer.DialContext(c.ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.logger.Info("websocket connected", zap.String("url", c.url))
	return nil
}

func (c *WebSocketClient) subscribeRequest(id uint64, accountID string) RPCRequest {
	return RPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "accountSubscribe",
		Params: []interface{}{
			accountID,
			map[string]interface{}{
				"encoding":   "base64",
				"commitment": c.commitment,
			},
		},
	}
}

// SubscribeAccount subscribes to account updates. The returned id is local to
// this client and is what Unsubscribe takes.
func (c *WebSocketClient) SubscribeAccount(accountID string, handler AccountUpdateHandler) (uint64, error) {
	// Registered before sending so the confirmation cannot outrun it
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = handler
	c.subscriptions[id] = &Subscription{
		ID:        id,
		AccountID: accountID,
	}
	c.mu.Unlock()

	if err := c.sendRequest(c.subscribeRequest(id, accountID)); err != nil {
		c.mu.Lock()
		delete(c.subscriptions, id)
		delete(c.handlers, id)
		c.mu.Unlock()
		return 0, err
	}

	return id, nil
}

// Unsubscribe removes an account subscription
func (c *WebSocketClient) Unsubscribe(subID uint64) error {
	c.mu.Lock()
	sub, exists := c.subscriptions[subID]
	if !exists {
		c.mu.Unlock()
		return fmt.Errorf("subscription not found: %d", subID)
	}
	delete(c.subscriptions, subID)
	delete(c.handlers, subID)
	solanaSubID := sub.SubID
	c.mu.Unlock()

	if solanaSubID == 0 {
		// Subscription not yet confirmed
		return nil
	}

	return c.sendRequest(RPCRequest{
		JSONRPC: "2.0",
		ID:      subID,
		Method:  "accountUnsubscribe",
		Params:  []interface{}{solanaSubID},
	})
}

func (c *WebSocketClient) sendRequest(req RPCRequest) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *WebSocketClient) readMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Warn("websocket read failed", zap.Error(err))
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
				c.connected = false
			}
			c.mu.Unlock()
			_ = conn.Close()
			continue
		}

		c.handleMessage(message)
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var notification NotificationMessage
	if err := json.Unmarshal(data, &notification); err == nil && notification.Method == "accountNotification" {
		c.handleAccountNotification(notification)
		return
	}

	var response RPCResponse
	if err := json.Unmarshal(data, &response); err != nil {
		c.logger.Warn("failed to parse websocket message", zap.Error(err))
		return
	}

	c.handleResponse(response)
}

func (c *WebSocketClient) handleResponse(response RPCResponse) {
	if response.Error != nil {
		c.logger.Warn("rpc error",
			zap.Uint64("id", response.ID),
			zap.Int("code", response.Error.Code),
			zap.String("message", response.Error.Message))
		return
	}

	// Only subscribe confirmations carry a numeric result
	var subID uint64
	if err := json.Unmarshal(response.Result, &subID); err != nil {
		return
	}

	c.mu.Lock()
	if sub, exists := c.subscriptions[response.ID]; exists {
		sub.SubID = subID
	}
	c.mu.Unlock()
}

func (c *WebSocketClient) handleAccountNotification(notification NotificationMessage) {
	c.mu.RLock()
	var handler AccountUpdateHandler
	var accountID string
	for _, sub := range c.subscriptions {
		if sub.SubID == notification.Params.Subscription {
			handler = c.handlers[sub.ID]
			accountID = sub.AccountID
			break
		}
	}
	c.mu.RUnlock()

	if handler == nil {
		return
	}

	value := notification.Params.Result.Value
	if len(value.Data) < 1 {
		return
	}
	if len(value.Data) > 1 && value.Data[1] != "base64" {
		c.logger.Warn("unexpected account encoding", zap.String("account", accountID), zap.String("encoding", value.Data[1]))
		return
	}

	data, err := base64.StdEncoding.DecodeString(value.Data[0])
	if err != nil {
		c.logger.Warn("failed to decode account data", zap.String("account", accountID), zap.Error(err))
		return
	}

	handler(accountID, data, notification.Params.Result.Context.Slot)
}

func (c *WebSocketClient) handleReconnection() {
	ticker := time.NewTicker(c.reconnectDelay)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.IsConnected() {
				continue
			}
			c.logger.Info("attempting websocket reconnect", zap.String("url", c.url))
			if err := c.reconnect(); err != nil {
				c.logger.Warn("websocket reconnect failed", zap.Error(err))
			}
		}
	}
}

// reconnect dials again and replays every live subscription
func (c *WebSocketClient) reconnect() error {
	if err := c.connect(); err != nil {
		return err
	}

	c.mu.Lock()
	subs := make([]*Subscription, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		sub.SubID = 0
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	for _, sub := range subs {
		if err := c.sendRequest(c.subscribeRequest(sub.ID, sub.AccountID)); err != nil {
			c.logger.Warn("failed to resubscribe", zap.String("account", sub.AccountID), zap.Error(err))
		}
	}

	return nil
}

// Close closes the WebSocket connection
func (c *WebSocketClient) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected returns whether the client is connected
func (c *WebSocketClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
