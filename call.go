package ethconnector

import (
	"context"

	"go.uber.org/zap"
)

// Request is an encoded, not yet submitted contract call or view.
// R is the type the response decodes into.
// Request is immutable - modifier methods return new instances.
type Request[R any] struct {
	target  AccountID
	op      Operation[R]
	args    []byte
	deposit Amount
	gas     uint64
}

// newRequest encodes args for op and binds the result to the contract's target.
func newRequest[R any](c *Contract, op Operation[R], args any) (*Request[R], error) {
	data, err := encodeArgs(op.Descriptor, args)
	if err != nil {
		c.logger.Debug("encoding failed",
			zap.String("method", op.Method),
			zap.Stringer("encoding", op.Encoding),
			zap.Error(err))
		return nil, err
	}

	req := &Request[R]{
		target: c.id,
		op:     op,
		args:   data,
	}
	if op.Kind == KindCall {
		req.gas = c.gas
		if op.OneYocto {
			req.deposit = NewAmount(1)
		}
	}

	c.logger.Debug("built request",
		zap.Stringer("target", c.id),
		zap.String("method", op.Method),
		zap.Stringer("kind", op.Kind),
		zap.Stringer("encoding", op.Encoding),
		zap.Int("args_len", len(data)))
	return req, nil
}

// Must panics if err is non-nil and returns req otherwise.
// Use only where arguments are known to be valid.
func Must[R any](req *Request[R], err error) *Request[R] {
	if err != nil {
		panic(err)
	}
	return req
}

// Target returns the contract account the request is addressed to.
func (r *Request[R]) Target() AccountID {
	return r.target
}

// Method returns the contract method name.
func (r *Request[R]) Method() string {
	return r.op.Method
}

// Kind returns whether the request is a call or a view.
func (r *Request[R]) Kind() Kind {
	return r.op.Kind
}

// Encoding returns the encoding of the arguments and the expected result.
func (r *Request[R]) Encoding() Encoding {
	return r.op.Encoding
}

// Descriptor returns the operation descriptor.
func (r *Request[R]) Descriptor() Descriptor {
	return r.op.Descriptor
}

// Args returns a copy of the encoded arguments.
func (r *Request[R]) Args() []byte {
	out := make([]byte, len(r.args))
	copy(out, r.args)
	return out
}

// Deposit returns the attached deposit.
func (r *Request[R]) Deposit() Amount {
	return r.deposit
}

// Gas returns the attached gas limit (0 for views).
func (r *Request[R]) Gas() uint64 {
	return r.gas
}

// Invocation returns the transport-facing form of the request.
func (r *Request[R]) Invocation() Invocation {
	return Invocation{
		Target:   r.target,
		Method:   r.op.Method,
		Kind:     r.op.Kind,
		Encoding: r.op.Encoding,
		Args:     r.Args(),
		Deposit:  r.deposit,
		Gas:      r.gas,
	}
}

// WithDeposit attaches a deposit to the request.
// Only calls may carry a deposit; Send rejects a view with a deposit.
//
// Returns a new Request with the deposit set.
func (r *Request[R]) WithDeposit(amount Amount) *Request[R] {
	clone := r.clone()
	clone.deposit = amount
	return clone
}

// WithGas sets the gas limit of the request.
//
// Returns a new Request with the gas set.
func (r *Request[R]) WithGas(gas uint64) *Request[R] {
	clone := r.clone()
	clone.gas = gas
	return clone
}

// Send validates the request, submits it through t and decodes the response.
// Transport failures are returned as *TransportError, response mismatches as
// *DecodingError. Nothing is retried.
func (r *Request[R]) Send(ctx context.Context, t Transport) (R, error) {
	var zero R
	if err := r.validate(); err != nil {
		return zero, err
	}

	raw, err := submit(ctx, t, r.Invocation())
	if err != nil {
		return zero, &TransportError{Method: r.op.Method, Err: err}
	}
	return r.Decode(raw)
}

// Decode decodes a raw response for this request's operation.
// Use it when the request was submitted by other means.
func (r *Request[R]) Decode(raw []byte) (R, error) {
	return decodeResult[R](r.op.Descriptor, raw)
}

// submit routes an invocation to the transport method matching its kind.
func submit(ctx context.Context, t Transport, inv Invocation) ([]byte, error) {
	if inv.Kind == KindCall {
		return t.Call(ctx, inv)
	}
	return t.View(ctx, inv)
}

// clone creates a shallow copy of the Request.
func (r *Request[R]) clone() *Request[R] {
	clone := *r
	// Deep copy the args slice
	clone.args = make([]byte, len(r.args))
	copy(clone.args, r.args)
	return &clone
}

// validate checks the request is consistent with its kind.
func (r *Request[R]) validate() error {
	if r.op.Kind == KindView && !r.deposit.IsZero() {
		return ErrDepositOnView
	}
	return nil
}
