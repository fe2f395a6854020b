// Package server exposes the market engine over JSON-RPC 2.0. Actions are
// submitted as market_* methods whose params mirror the action structs;
// read methods query the engine's state under its lock.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/tidemark/marketd/internal/core/market"
	"github.com/tidemark/marketd/internal/storage/history"
	"github.com/tidemark/marketd/internal/storage/journal"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

// handlerFunc processes one decoded method call.
type handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// invalidParamsError marks a handler failure as the caller's fault.
type invalidParamsError struct{ err error }

func (e invalidParamsError) Error() string { return e.err.Error() }

func badParams(format string, args ...any) error {
	return invalidParamsError{fmt.Errorf(format, args...)}
}

// Server is the JSON-RPC front end over one market engine.
type Server struct {
	engine  *market.Engine
	clock   market.Clock
	history *history.Store
	journal *journal.Journal
	log     *zap.Logger

	methods map[string]handlerFunc
	http    *http.Server
}

// Options carries the optional collaborators of a server.
type Options struct {
	// History, when set, records every settlement.
	History *history.Store

	// Journal, when set, receives every emitted event.
	Journal *journal.Journal

	// Log defaults to a no-op logger.
	Log *zap.Logger
}

// New creates a server over the given engine and clock.
func New(engine *market.Engine, clock market.Clock, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		clock:   clock,
		history: opts.History,
		journal: opts.Journal,
		log:     log,
	}
	s.registerMethods()
	return s
}

// Methods returns the registered method names.
func (s *Server) Methods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	return names
}

// Start listens on addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.http = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()
	s.log.Info("rpc server listening", zap.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ServeHTTP handles one JSON-RPC request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeParseError, Message: "parse error"},
		})
		return
	}
	if req.Method == "" {
		writeResponse(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeInvalidRequest, Message: "missing method"},
			ID:      req.ID,
		})
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		writeResponse(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %s not found", req.Method)},
			ID:      req.ID,
		})
		return
	}

	result, err := handler(r.Context(), req.Params)
	if err != nil {
		code := codeInternalError
		var invalid invalidParamsError
		if errors.As(err, &invalid) {
			code = codeInvalidParams
		} else {
			s.log.Warn("rpc method failed",
				zap.String("method", req.Method), zap.Error(err))
		}
		writeResponse(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: code, Message: err.Error()},
			ID:      req.ID,
		})
		return
	}

	writeResponse(w, rpcResponse{JSONRPC: "2.0", Result: result, ID: req.ID})
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
