package jsonrpc

import (
	"context"

	ethconnector "github.com/branched-services/go-ethconnector"
)

// Signer turns a call invocation into a signed, serialized transaction.
// Key management, nonces and block hashes are the signer's concern.
type Signer interface {
	SignFunctionCall(ctx context.Context, inv ethconnector.Invocation) ([]byte, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context, inv ethconnector.Invocation) ([]byte, error)

// SignFunctionCall implements Signer.
func (f SignerFunc) SignFunctionCall(ctx context.Context, inv ethconnector.Invocation) ([]byte, error) {
	return f(ctx, inv)
}
