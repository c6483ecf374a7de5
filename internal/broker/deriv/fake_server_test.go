package deriv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeConn is the server side of one client socket.
type fakeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (f *fakeConn) reply(req map[string]any, payload map[string]any) {
	frame := map[string]any{
		"echo_req": req,
		"req_id":   req["req_id"],
		"msg_type": msgTypeOf(req),
	}
	for k, v := range payload {
		frame[k] = v
	}
	f.send(frame)
}

func (f *fakeConn) fail(req map[string]any, code, message string) {
	f.reply(req, map[string]any{"error": map[string]any{"code": code, "message": message}})
}

func (f *fakeConn) send(frame map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = f.conn.WriteJSON(frame)
}

func (f *fakeConn) drop() {
	_ = f.conn.Close()
}

func msgTypeOf(req map[string]any) string {
	for _, key := range []string{"authorize", "ticks_history", "proposal", "buy", "balance"} {
		if _, ok := req[key]; ok {
			if key == "ticks_history" {
				return "candles"
			}
			return key
		}
	}
	return "unknown"
}

type handlerFunc func(fc *fakeConn, req map[string]any)

// fakeDeriv records every request and answers through handle.
type fakeDeriv struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []map[string]any
	handle   handlerFunc
}

func newFakeDeriv(t *testing.T, handle handlerFunc) *fakeDeriv {
	t.Helper()

	fd := &fakeDeriv{handle: handle}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	fd.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		fc := &fakeConn{conn: conn}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req map[string]any
			if err := json.Unmarshal(data, &req); err != nil {
				continue
			}
			fd.mu.Lock()
			fd.requests = append(fd.requests, req)
			h := fd.handle
			fd.mu.Unlock()

			h(fc, req)
		}
	}))
	t.Cleanup(fd.srv.Close)
	return fd
}

func (fd *fakeDeriv) endpoint() string {
	return "ws" + strings.TrimPrefix(fd.srv.URL, "http")
}

func (fd *fakeDeriv) recorded() []map[string]any {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	out := make([]map[string]any, len(fd.requests))
	copy(out, fd.requests)
	return out
}

func (fd *fakeDeriv) recordedOf(key string) []map[string]any {
	var out []map[string]any
	for _, req := range fd.recorded() {
		if _, ok := req[key]; ok {
			out = append(out, req)
		}
	}
	return out
}

// authorizing wraps next with a handler that accepts any token.
func authorizing(next handlerFunc) handlerFunc {
	return func(fc *fakeConn, req map[string]any) {
		if _, ok := req["authorize"]; ok {
			fc.reply(req, map[string]any{
				"authorize": map[string]any{"loginid": "CR123", "currency": "USD", "balance": 1000},
			})
			return
		}
		if next != nil {
			next(fc, req)
		}
	}
}

func newTestClient(fd *fakeDeriv) *Client {
	c := NewClient(Params{
		AppID:          "1089",
		APIToken:       "test-token",
		Endpoint:       fd.endpoint(),
		Currency:       "USD",
		RequestTimeout: 2 * time.Second,
	})
	c.sweepEvery = 10 * time.Millisecond
	return c
}

func connectedClient(t *testing.T, fd *fakeDeriv) *Client {
	t.Helper()
	c := newTestClient(fd)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}
