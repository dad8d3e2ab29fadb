package wallet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"token-forge/internal/observability"
)

// Bridge message types.
const (
	MsgConnect    = "connect"
	MsgConnected  = "connected"
	MsgDisconnect = "disconnect"
	MsgSign       = "sign"
	MsgSigned     = "signed"
	MsgRejected   = "rejected"
	MsgError      = "error"
)

// Message is one JSON text frame exchanged with the page.
type Message struct {
	Type        string `json:"type"`
	ID          uint64 `json:"id,omitempty"`
	PublicKey   string `json:"publicKey,omitempty"`
	Transaction string `json:"transaction,omitempty"` // base64 wire transaction
	Error       string `json:"error,omitempty"`
}

// BridgeConfig configures connection keepalive.
type BridgeConfig struct {
	PingInterval time.Duration
	PongTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultBridgeConfig returns default keepalive settings.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		PingInterval: 30 * time.Second,
		PongTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Bridge is a browser wallet reached through a WebSocket held by the page.
// The page announces the wallet's public key with a connect frame; signing
// requests are sent as sign frames and answered with signed or rejected.
type Bridge struct {
	conn   *websocket.Conn
	config BridgeConfig
	logger zerolog.Logger

	writeMu sync.Mutex

	mu        sync.Mutex
	publicKey common.PublicKey
	connected bool
	pending   map[uint64]chan Message

	nextID    atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

var _ Wallet = (*Bridge)(nil)

// NewBridge wraps an upgraded connection. Call Serve to process frames.
func NewBridge(conn *websocket.Conn, config *BridgeConfig, logger zerolog.Logger) *Bridge {
	cfg := DefaultBridgeConfig()
	if config != nil {
		cfg = *config
	}
	return &Bridge{
		conn:    conn,
		config:  cfg,
		logger:  logger,
		pending: make(map[uint64]chan Message),
		done:    make(chan struct{}),
	}
}

// PublicKey implements Wallet.
func (b *Bridge) PublicKey() (common.PublicKey, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publicKey, b.connected
}

// Done is closed when the bridge shuts down.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Serve reads frames until the page disconnects, the socket fails or ctx
// is cancelled. onConnect is invoked after a valid connect frame.
func (b *Bridge) Serve(ctx context.Context, onConnect func(common.PublicKey)) error {
	defer b.Close()

	b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))
	})

	go b.pingLoop()
	go func() {
		select {
		case <-ctx.Done():
			b.Close()
		case <-b.done:
		}
	}()

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			select {
			case <-b.done:
				return nil
			default:
			}
			return fmt.Errorf("read wallet frame: %w", err)
		}
		b.conn.SetReadDeadline(time.Now().Add(b.config.PongTimeout))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Warn().Err(err).Msg("malformed wallet frame")
			continue
		}

		switch msg.Type {
		case MsgConnect:
			key, err := ParsePublicKey(msg.PublicKey)
			if err != nil {
				b.write(Message{Type: MsgError, Error: err.Error()})
				return err
			}
			b.mu.Lock()
			wasConnected := b.connected
			b.publicKey = key
			b.connected = true
			b.mu.Unlock()
			if !wasConnected {
				observability.WalletConnected(true)
			}
			b.logger.Info().Str("wallet", key.ToBase58()).Msg("wallet connected")
			b.write(Message{Type: MsgConnected, PublicKey: key.ToBase58()})
			if onConnect != nil {
				onConnect(key)
			}

		case MsgDisconnect:
			return nil

		case MsgSigned, MsgRejected:
			b.deliver(msg)

		default:
			b.logger.Debug().Str("type", msg.Type).Msg("ignoring wallet frame")
		}
	}
}

func (b *Bridge) deliver(msg Message) {
	b.mu.Lock()
	ch, ok := b.pending[msg.ID]
	if ok {
		delete(b.pending, msg.ID)
	}
	b.mu.Unlock()
	if !ok {
		b.logger.Warn().Uint64("id", msg.ID).Msg("reply for unknown signing request")
		return
	}
	ch <- msg
}

// SignTransaction implements Wallet. It blocks until the page answers, the
// bridge closes or ctx is done.
func (b *Bridge) SignTransaction(ctx context.Context, tx types.Transaction) (types.Transaction, error) {
	key, ok := b.PublicKey()
	if !ok {
		return types.Transaction{}, ErrDisconnected
	}
	idx, ok := signerIndex(tx.Message, key)
	if !ok {
		return types.Transaction{}, fmt.Errorf("wallet %s is not a signer of the transaction", key.ToBase58())
	}

	raw, err := tx.Serialize()
	if err != nil {
		return types.Transaction{}, fmt.Errorf("serialize transaction: %w", err)
	}

	id := b.nextID.Add(1)
	reply := make(chan Message, 1)
	b.mu.Lock()
	b.pending[id] = reply
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
	}()

	if err := b.write(Message{Type: MsgSign, ID: id, Transaction: base64.StdEncoding.EncodeToString(raw)}); err != nil {
		observability.RecordSignRequest("error")
		return types.Transaction{}, fmt.Errorf("send signing request: %w", err)
	}

	var msg Message
	select {
	case msg = <-reply:
	case <-b.done:
		observability.RecordSignRequest("error")
		return types.Transaction{}, ErrDisconnected
	case <-ctx.Done():
		observability.RecordSignRequest("error")
		return types.Transaction{}, ctx.Err()
	}

	if msg.Type == MsgRejected {
		observability.RecordSignRequest("rejected")
		if msg.Error == "" {
			return types.Transaction{}, ErrRejected
		}
		return types.Transaction{}, fmt.Errorf("%w: %s", ErrRejected, msg.Error)
	}

	signed, err := attachSignature(tx, msg.Transaction, idx)
	if err != nil {
		observability.RecordSignRequest("error")
		return types.Transaction{}, err
	}
	observability.RecordSignRequest("signed")
	return signed, nil
}

// attachSignature takes the signature at idx from the page's transaction and
// adds it to tx. AddSignature verifies it against tx's own message, so a
// page that altered the message is caught here.
func attachSignature(tx types.Transaction, encoded string, idx int) (types.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("decode signed transaction: %w", err)
	}
	returned, err := types.TransactionDeserialize(raw)
	if err != nil {
		return types.Transaction{}, fmt.Errorf("deserialize signed transaction: %w", err)
	}
	if idx >= len(returned.Signatures) {
		return types.Transaction{}, fmt.Errorf("signed transaction carries %d signatures", len(returned.Signatures))
	}

	signed := cloneTransaction(tx)
	if err := signed.AddSignature(returned.Signatures[idx]); err != nil {
		return types.Transaction{}, fmt.Errorf("wallet signature does not match transaction: %w", err)
	}
	return signed, nil
}

func (b *Bridge) write(msg Message) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	b.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
	return b.conn.WriteJSON(msg)
}

func (b *Bridge) pingLoop() {
	ticker := time.NewTicker(b.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.writeMu.Lock()
			err := b.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(b.config.WriteTimeout))
			b.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close disconnects the wallet and fails any waiting signing request.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		wasConnected := b.connected
		b.connected = false
		b.mu.Unlock()
		if wasConnected {
			observability.WalletConnected(false)
			b.logger.Info().Msg("wallet disconnected")
		}

		close(b.done)

		b.writeMu.Lock()
		b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(b.config.WriteTimeout))
		b.writeMu.Unlock()
		b.conn.Close()
	})
	return nil
}
