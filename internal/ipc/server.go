package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve accepts unix-socket clients until context cancellation or listener
// close. Each connection carries one JSON request line and receives one JSON
// response line. A nil logger disables request logging.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			serveConn(ctx, c, handler, logger)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler, logger *slog.Logger) {
	enc := json.NewEncoder(conn)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		logger.Warn("IPC read failed", "error", err)
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Warn("IPC decode failed", "error", err)
		_ = enc.Encode(Response{OK: false, Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	start := time.Now()
	resp := handler.Handle(ctx, req)
	logger.Debug("IPC request handled",
		"command", req.Command,
		"ok", resp.OK,
		"duration_ms", time.Since(start).Milliseconds())

	_ = enc.Encode(resp)
}
