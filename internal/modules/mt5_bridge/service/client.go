// Package service talks to a MetaTrader 5 terminal through a websocket
// JSON-RPC bridge running next to it.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sentinel_bot/internal/broker"
)

const (
	DefaultCallTimeout  = 10 * time.Second
	DefaultPingInterval = 20 * time.Second
)

type Config struct {
	URL          string
	Login        int64
	Password     string
	Server       string
	CallTimeout  time.Duration
	PingInterval time.Duration
}

// link is one live websocket connection. done is closed when the read loop exits.
type link struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
	wmu  sync.Mutex
}

func (l *link) write(msg []byte) error {
	l.wmu.Lock()
	defer l.wmu.Unlock()
	return l.conn.WriteMessage(websocket.TextMessage, msg)
}

// Client implements broker.Broker on top of the bridge. A dropped
// connection is re-established on the next call.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	log    *zap.Logger

	seq atomic.Uint64

	mu      sync.Mutex
	link    *link
	pending map[uint64]chan response
	closed  bool
}

var (
	_ broker.Broker       = (*Client)(nil)
	_ broker.SymbolLister = (*Client)(nil)
	_ broker.DealHistory  = (*Client)(nil)
)

// Dial connects to the bridge and logs into the trading account.
func Dial(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.CallTimeout},
		log:     log.With(zap.String("bridge", cfg.URL)),
		pending: make(map[uint64]chan response),
	}
	if _, err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) (*link, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, broker.ErrNotConnected
	}
	if c.link != nil {
		l := c.link
		c.mu.Unlock()
		return l, nil
	}
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(broker.ErrNotConnected, "dial %s: %v", c.cfg.URL, err)
	}
	l := &link{conn: conn, done: make(chan struct{})}

	c.mu.Lock()
	if c.closed || c.link != nil {
		// lost the race with Close or another dial
		existing := c.link
		c.mu.Unlock()
		_ = conn.Close()
		if existing == nil {
			return nil, broker.ErrNotConnected
		}
		return existing, nil
	}
	c.link = l
	c.mu.Unlock()

	go c.readLoop(l)
	go c.keepalive(l)

	if c.cfg.Login != 0 {
		params := map[string]any{
			"login":    c.cfg.Login,
			"password": c.cfg.Password,
			"server":   c.cfg.Server,
		}
		var ok bool
		if err := c.roundTrip(ctx, l, methodLogin, params, &ok); err != nil {
			c.drop(l)
			return nil, errors.Wrap(err, "login")
		}
		if !ok {
			c.drop(l)
			return nil, errors.Wrapf(broker.ErrNotConnected, "login %d rejected", c.cfg.Login)
		}
	}
	c.log.Info("bridge connected", zap.Int64("login", c.cfg.Login))
	return l, nil
}

func (c *Client) readLoop(l *link) {
	defer c.drop(l)
	for {
		_, msg, err := l.conn.ReadMessage()
		if err != nil {
			c.log.Warn("bridge read", zap.Error(err))
			return
		}
		var resp response
		if err := sonic.Unmarshal(msg, &resp); err != nil {
			c.log.Warn("bridge frame", zap.Error(err))
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

func (c *Client) keepalive(l *link) {
	t := time.NewTicker(c.cfg.PingInterval)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			l.wmu.Lock()
			err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.CallTimeout))
			l.wmu.Unlock()
			if err != nil {
				c.log.Warn("bridge ping", zap.Error(err))
				_ = l.conn.Close()
				return
			}
		}
	}
}

// drop forgets l and closes it. Calls waiting on l observe done.
func (c *Client) drop(l *link) {
	c.mu.Lock()
	if c.link == l {
		c.link = nil
	}
	c.mu.Unlock()
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	l, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, l, method, params, out)
}

func (c *Client) roundTrip(ctx context.Context, l *link, method string, params, out any) error {
	id := c.seq.Add(1)
	msg, err := sonic.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return errors.Wrapf(err, "encode %s", method)
	}

	ch := make(chan response, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := l.write(msg); err != nil {
		c.drop(l)
		return errors.Wrapf(broker.ErrNotConnected, "%s: %v", method, err)
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), method)
	case <-l.done:
		return errors.Wrapf(broker.ErrNotConnected, "%s: connection lost", method)
	case resp := <-ch:
		if resp.Error != nil {
			return errors.Wrap(resp.Error, method)
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := sonic.Unmarshal(resp.Result, out); err != nil {
			return errors.Wrapf(err, "decode %s", method)
		}
		return nil
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, methodPing, nil, nil)
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	l := c.link
	c.mu.Unlock()
	if l != nil {
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.drop(l)
	}
	return nil
}
