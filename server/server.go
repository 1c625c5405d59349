// Package server implements a minimal msgpack-RPC peer that answers requests
// the way the editor does. It exists so the client can be driven end to end
// over a real socket without a running editor.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (one goroutine per connection, requests answered in order)
//	  → generic msgpack decode → Handler(method, params) → [1, msgid, error, result]
package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Handler answers one request. A non-nil error is sent back in the error
// slot as [0, message], the way the editor reports a failed command.
type Handler func(method string, params []any) (any, error)

// ErrHangup makes the server drop the connection without answering.
var ErrHangup = errors.New("hang up")

// Server accepts connections and answers requests with a Handler.
type Server struct {
	handler  Handler
	logger   *zap.Logger
	listener net.Listener
	wg       sync.WaitGroup // Tracks open connections for Shutdown
	shutdown atomic.Bool    // Set before closing the listener so Serve returns nil
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
}

// NewServer creates a server that answers every request with handler.
func NewServer(handler Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the server to address. It is separate from Serve so callers
// know the address is ready before they dial.
func (svr *Server) Listen(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener
	return nil
}

// Addr returns the bound address.
func (svr *Server) Addr() net.Addr {
	return svr.listener.Addr()
}

// Serve runs the accept loop until Shutdown.
func (svr *Server) Serve() error {
	if svr.listener == nil {
		return fmt.Errorf("server: Serve called before Listen")
	}
	for {
		conn, err := svr.listener.Accept()
		if err != nil {
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}

		if !svr.track(conn) {
			return nil
		}
		go svr.handleConn(conn)
	}
}

// track registers conn for Shutdown. A connection that arrives once Shutdown
// has started is closed instead and track returns false.
func (svr *Server) track(conn net.Conn) bool {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.shutdown.Load() {
		conn.Close()
		return false
	}
	svr.conns[conn] = struct{}{}
	svr.wg.Add(1)
	return true
}

// handleConn answers requests on one connection strictly in order: the next
// request is not read before the previous answer has been written.
func (svr *Server) handleConn(conn net.Conn) {
	defer svr.wg.Done()
	defer func() {
		svr.mu.Lock()
		delete(svr.conns, conn)
		svr.mu.Unlock()
		conn.Close()
	}()

	dec := msgpack.NewDecoder(bufio.NewReader(conn))
	enc := msgpack.NewEncoder(conn)

	for {
		var msg []any
		if err := dec.Decode(&msg); err != nil {
			return // Connection closed or garbage on the wire
		}
		if len(msg) != 4 {
			svr.logger.Warn("dropping malformed message", zap.Int("len", len(msg)))
			return
		}
		if t, ok := asInt(msg[0]); !ok || t != 0 {
			svr.logger.Warn("ignoring non-request message", zap.Any("type", msg[0]))
			continue
		}

		method, _ := msg[2].(string)
		params, _ := msg[3].([]any)

		result, err := svr.handler(method, params)
		if errors.Is(err, ErrHangup) {
			svr.logger.Debug("hanging up", zap.String("method", method))
			return
		}

		reply := []any{1, msg[1], nil, result}
		if err != nil {
			reply = []any{1, msg[1], []any{0, err.Error()}, nil}
		}
		if err := enc.Encode(reply); err != nil {
			svr.logger.Warn("failed to write reply", zap.Error(err))
			return
		}
	}
}

// Shutdown stops accepting, closes open connections and waits for their
// goroutines to exit.
func (svr *Server) Shutdown(timeout time.Duration) error {
	svr.shutdown.Store(true)
	svr.listener.Close()

	svr.mu.Lock()
	for conn := range svr.conns {
		conn.Close()
	}
	svr.mu.Unlock()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for connections to close")
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
