package deriv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"candle-bot/internal/logger"
	"candle-bot/internal/metrics"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
	sweepPeriod      = time.Second
	maxFrameSize     = 1 << 20
)

type Params struct {
	AppID          string
	APIToken       string
	Endpoint       string
	Currency       string
	RequestTimeout time.Duration
}

// Client is a request/response client over one persistent Deriv socket.
// Every request gets a fresh req_id; the read loop routes each response
// back to the caller waiting on that id.
type Client struct {
	p      Params
	dialer websocket.Dialer
	now    func() time.Time

	sweepEvery time.Duration
	pingEvery  time.Duration

	conn    atomic.Pointer[websocket.Conn]
	writeMu sync.Mutex
	pending *pendingTable
	lastID  atomic.Uint64

	connectOnce sync.Once
	closeOnce   sync.Once
	done        chan struct{}
}

func NewClient(p Params) *Client {
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 30 * time.Second
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return &Client{
		p:          p,
		dialer:     websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		now:        time.Now,
		sweepEvery: sweepPeriod,
		pingEvery:  pingPeriod,
		pending:    newPendingTable(),
		done:       make(chan struct{}),
	}
}

func (c *Client) url() (string, error) {
	u, err := url.Parse(c.p.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.p.Endpoint, err)
	}
	q := u.Query()
	q.Set("app_id", c.p.AppID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect dials the endpoint and authorizes with the API token. It returns
// only after the server accepts the token; on any failure the socket is
// closed.
func (c *Client) Connect(ctx context.Context) error {
	err := errors.New("deriv: client already connected")
	c.connectOnce.Do(func() { err = c.connect(ctx) })
	return err
}

func (c *Client) connect(ctx context.Context) error {
	target, err := c.url()
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.p.Endpoint, err)
	}
	c.conn.Store(conn)

	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readLoop(conn)
	go c.sweepLoop()
	go c.pingLoop(conn)

	logger.Info(ctx, "Connected to Deriv API", "endpoint", c.p.Endpoint, "app_id", c.p.AppID)

	var auth AuthorizeResponse
	if err := c.call(ctx, &AuthorizeRequest{Authorize: c.p.APIToken}, &auth); err != nil {
		c.shutdown(ErrClosed)
		return fmt.Errorf("authorize: %w", err)
	}
	if auth.Authorize == nil {
		c.shutdown(ErrClosed)
		return &APIError{Code: CodeAuthorizationFailed, Message: "empty authorize response", MsgType: "authorize"}
	}

	logger.Info(ctx, "Authorized successfully",
		"loginid", auth.Authorize.LoginID,
		"currency", auth.Authorize.Currency,
	)
	return nil
}

// Send stamps req with a new correlation id, transmits it and waits for the
// matching response. A response carrying an error object is returned as
// *APIError. The wait ends at the request deadline, on ctx cancellation or
// when the connection closes.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if c.conn.Load() == nil {
		return nil, ErrNotConnected
	}

	id := c.lastID.Add(1)
	req.SetReqID(id)

	p := &pendingRequest{
		id:       id,
		msgType:  req.MsgType(),
		deadline: c.now().Add(c.p.RequestTimeout),
		done:     make(chan result, 1),
	}
	if err := c.pending.add(p); err != nil {
		metrics.RequestsTotal.WithLabelValues(p.msgType, "closed").Inc()
		return nil, err
	}

	if err := c.write(req); err != nil {
		c.pending.take(id)
		metrics.RequestsTotal.WithLabelValues(p.msgType, "write_error").Inc()
		return nil, fmt.Errorf("send %s: %w", p.msgType, err)
	}
	logger.Debug(ctx, "Request sent", "msg_type", p.msgType, "req_id", id)

	select {
	case res := <-p.done:
		metrics.RequestsTotal.WithLabelValues(p.msgType, resultLabel(res.err)).Inc()
		return res.resp, res.err
	case <-ctx.Done():
		c.pending.take(id)
		metrics.RequestsTotal.WithLabelValues(p.msgType, "canceled").Inc()
		return nil, ctx.Err()
	}
}

// call sends req and decodes the response into out.
func (c *Client) call(ctx context.Context, req Request, out any) error {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.MsgType(), err)
	}
	return nil
}

func resultLabel(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.Is(err, ErrRequestTimeout):
		return "timeout"
	case errors.Is(err, ErrClosed):
		return "closed"
	default:
		return "error"
	}
}

func (c *Client) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn := c.conn.Load()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				logger.Warn(context.Background(), "WebSocket closed", "error", err)
			}
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	ctx := context.Background()

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn(ctx, "Failed to decode frame", "error", err)
		return
	}
	resp.Raw = data

	res := result{resp: &resp}
	if resp.Error != nil {
		resp.Error.MsgType = resp.MsgType
		res = result{err: resp.Error}
	}

	if resp.ReqID == 0 || !c.pending.resolve(resp.ReqID, res) {
		logger.Debug(ctx, "Dropping unmatched response", "msg_type", resp.MsgType, "req_id", resp.ReqID)
	}
}

func (c *Client) sweepLoop() {
	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, p := range c.pending.expire(c.now()) {
				logger.Warn(context.Background(), "Request expired without response",
					"msg_type", p.msgType, "req_id", p.id)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Warn(context.Background(), "WebSocket ping failed", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// shutdown closes the socket once and rejects all pending requests with err.
func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		close(c.done)
		if conn := c.conn.Load(); conn != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		}
	})
	if n := c.pending.failAll(err); n > 0 {
		logger.Warn(context.Background(), "Rejected pending requests on close", "count", n, "error", err)
	}
}

// Close tears down the socket. Outstanding requests fail with ErrClosed.
func (c *Client) Close() error {
	c.shutdown(ErrClosed)
	return nil
}

// Pending reports how many requests await a response.
func (c *Client) Pending() int {
	return c.pending.len()
}
