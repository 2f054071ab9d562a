package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("jsonrpc: invalid config")

	// ErrNoSigner indicates a call was submitted without a Signer.
	ErrNoSigner = errors.New("jsonrpc: no signer configured for calls")

	// ErrMalformedResult indicates the endpoint answered with an unexpected shape.
	ErrMalformedResult = errors.New("jsonrpc: malformed result")
)

// RPCError is an error object returned by the JSON-RPC endpoint.
type RPCError struct {
	Method  string
	Code    int
	Message string
	Data    any
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc: %s error %d: %s", e.Method, e.Code, e.Message)
}

// StatusError indicates a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("jsonrpc: received status code %d", e.StatusCode)
}

// ViewError indicates the contract failed while executing a view.
type ViewError struct {
	Method  string
	Message string
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("jsonrpc: view %q failed: %s", e.Method, e.Message)
}

// ExecutionError indicates a broadcast transaction finished with a Failure status.
type ExecutionError struct {
	Method  string
	Failure json.RawMessage
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("jsonrpc: call %q failed: %s", e.Method, string(e.Failure))
}
