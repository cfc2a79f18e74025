// Package ogmios queries a Cardano node through the Ogmios v6 JSON-RPC
// websocket interface.
package ogmios

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/LeJamon/goFeedEscrow/internal/chain"
	"github.com/LeJamon/goFeedEscrow/internal/core/ledger"
)

const (
	methodUtxo = "queryLedgerState/utxo"
	methodTip  = "queryNetwork/tip"

	defaultTimeout = 30 * time.Second
	maxMessageSize = 16 << 20
)

// Options parameterise the client.
type Options struct {
	URL     string
	Timeout time.Duration
}

// Client is a chain.Context backed by one websocket connection. Requests are
// serialised over it; a failed exchange drops the connection and the next
// call redials.
type Client struct {
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
}

var _ chain.Context = (*Client)(nil)

// New builds a client. Nothing is dialled until the first query.
func New(opts Options, logger zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{opts: opts, logger: logger.With().Str("component", "ogmios").Logger()}
}

// RPCError is a JSON-RPC error object returned by Ogmios.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ogmios error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      uint64      `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
	ID      *uint64         `json:"id"`
}

// Utxos returns the outputs at addr.
func (c *Client) Utxos(ctx context.Context, addr ledger.Address) ([]ledger.Output, error) {
	params := map[string][]string{"addresses": {addr.String()}}
	var utxos []chain.UTxO
	if err := c.call(ctx, methodUtxo, params, &utxos); err != nil {
		return nil, err
	}
	outs, err := chain.Outputs(utxos)
	if err != nil {
		return nil, err
	}
	chain.SortOutputs(outs)
	c.logger.Debug().Str("address", addr.String()).Int("utxos", len(outs)).Msg("utxo query")
	return outs, nil
}

// Tip returns the node's current chain tip.
func (c *Client) Tip(ctx context.Context) (ledger.Tip, error) {
	var raw json.RawMessage
	if err := c.call(ctx, methodTip, nil, &raw); err != nil {
		return ledger.Tip{}, err
	}
	var origin string
	if json.Unmarshal(raw, &origin) == nil {
		return ledger.Tip{}, chain.ErrAtOrigin
	}
	var tip ledger.Tip
	if err := json.Unmarshal(raw, &tip); err != nil {
		return ledger.Tip{}, fmt.Errorf("decode tip: %w", err)
	}
	return tip, nil
}

// Close drops the connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.connLocked(ctx)
	if err != nil {
		return err
	}

	c.nextID++
	id := c.nextID

	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// Closing the socket is the only way to abort a blocked read.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		if !stop() {
			c.conn = nil
		}
	}()

	if err := conn.WriteJSON(request{JSONRPC: "2.0", Method: method, Params: params, ID: id}); err != nil {
		_ = c.closeLocked()
		return c.transportErr(ctx, method, err)
	}

	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			_ = c.closeLocked()
			return c.transportErr(ctx, method, err)
		}
		if resp.ID == nil || *resp.ID != id {
			c.logger.Warn().Str("method", resp.Method).Msg("discarding unrelated response")
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", method, resp.Error)
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
		return nil
	}
}

func (c *Client) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", chain.ErrUnavailable, c.opts.URL, err)
	}
	conn.SetReadLimit(maxMessageSize)
	c.conn = conn
	c.logger.Debug().Str("url", c.opts.URL).Msg("connected")
	return conn, nil
}

func (c *Client) transportErr(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %s: %w", chain.ErrUnavailable, method, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", chain.ErrUnavailable, method, err)
}
