package lsp

import (
	"errors"
	"fmt"
)

// Standard errors returned by the server.
var (
	// ErrShutdown indicates the connection has been shut down.
	ErrShutdown = errors.New("lsp server shut down")

	// ErrExitWithoutShutdown indicates exit arrived before shutdown.
	ErrExitWithoutShutdown = errors.New("exit received before shutdown")

	// ErrDocumentNotOpen indicates the document is not open.
	ErrDocumentNotOpen = errors.New("document not open")

	// ErrInvalidMessage indicates a frame that is not a JSON-RPC message.
	ErrInvalidMessage = errors.New("invalid message")
)

// RPCError represents a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC error codes.
const (
	// JSON-RPC standard errors
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// LSP-specific errors
	CodeServerNotInitialized = -32002
	CodeRequestFailed        = -32803
)

// toRPCError maps handler errors to JSON-RPC error objects.
func toRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if errors.Is(err, ErrDocumentNotOpen) {
		return &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}
	return &RPCError{Code: CodeRequestFailed, Message: err.Error()}
}
