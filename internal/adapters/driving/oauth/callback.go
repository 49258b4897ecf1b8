// Package oauth provides the local HTTP server that receives OAuth
// redirect callbacks and completes user authorization.
package oauth

import (
	"context"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/yugasun/Feishu-MCP/internal/core/ports/driving"
	"github.com/yugasun/Feishu-MCP/internal/logger"
)

// CallbackServer handles OAuth redirect callbacks. It starts a local
// HTTP server, feeds code+state to the authorization completer, and
// reports the outcome.
type CallbackServer struct {
	mu        sync.Mutex
	port      int
	completer driving.AuthorizationCompleter
	doneChan  chan error
	server    *http.Server
	listener  net.Listener
}

// NewCallbackServer creates a callback server on the given port.
// If port is 0, a random available port is chosen.
func NewCallbackServer(port int, completer driving.AuthorizationCompleter) *CallbackServer {
	return &CallbackServer{
		port:      port,
		completer: completer,
		doneChan:  make(chan error, 1),
	}
}

// Start begins listening for the callback.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	// Record the actual port (matters when port was 0).
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.doneChan <- err:
			default:
			}
		}
	}()

	return nil
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Wait blocks until a callback has been handled, the server fails, or
// ctx is cancelled. It returns nil when authorization completed.
func (s *CallbackServer) Wait(ctx context.Context) error {
	select {
	case err := <-s.doneChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts the server down.
func (s *CallbackServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		s.finish(w, fmt.Errorf("authorization denied: %s %s", errParam, desc),
			"Authorization failed", html.EscapeString(desc))
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		s.finish(w, fmt.Errorf("callback missing code or state"),
			"Authorization failed", "The callback was missing required parameters.")
		return
	}

	if _, err := s.completer.CompleteAuthorization(r.Context(), state, code); err != nil {
		logger.Warn("completing authorization: %v", err)
		s.finish(w, err, "Authorization failed", html.EscapeString(err.Error()))
		return
	}

	s.finish(w, nil, "Authorization complete",
		"You can close this window and return to your MCP client.")
}

func (s *CallbackServer) finish(w http.ResponseWriter, result error, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if result != nil {
		w.WriteHeader(http.StatusBadRequest)
	}
	fmt.Fprintf(w, "<html><body><h1>%s</h1><p>%s</p></body></html>", title, body)

	select {
	case s.doneChan <- result:
	default:
	}
}
