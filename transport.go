package ethconnector

import "context"

// Transport submits encoded requests to the ledger.
//
// Call submits a state-changing function call; View runs a read-only query.
// Both are single request/single response operations returning the raw
// result bytes. Retries, timeouts and signing belong to the implementation.
// Implementations must be safe for concurrent use when used with a Batch.
type Transport interface {
	Call(ctx context.Context, inv Invocation) ([]byte, error)
	View(ctx context.Context, inv Invocation) ([]byte, error)
}

// Invocation is the transport-facing form of a Request.
type Invocation struct {
	Target   AccountID
	Method   string
	Kind     Kind
	Encoding Encoding
	Args     []byte
	Deposit  Amount
	Gas      uint64
}

// TransportFuncs adapts a pair of functions to the Transport interface.
// A nil function makes the corresponding method report ErrKindUnsupported.
type TransportFuncs struct {
	CallFunc func(ctx context.Context, inv Invocation) ([]byte, error)
	ViewFunc func(ctx context.Context, inv Invocation) ([]byte, error)
}

// Call implements Transport.
func (t TransportFuncs) Call(ctx context.Context, inv Invocation) ([]byte, error) {
	if t.CallFunc == nil {
		return nil, ErrKindUnsupported
	}
	return t.CallFunc(ctx, inv)
}

// View implements Transport.
func (t TransportFuncs) View(ctx context.Context, inv Invocation) ([]byte, error) {
	if t.ViewFunc == nil {
		return nil, ErrKindUnsupported
	}
	return t.ViewFunc(ctx, inv)
}
