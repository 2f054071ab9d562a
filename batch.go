package ethconnector

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// pending is a batched request awaiting its response.
type pending interface {
	invocation() Invocation
	validate() error
	complete(raw []byte)
	fail(err error)
	failure() error
}

// Future holds the outcome of a batched request once its Batch has been sent.
type Future[R any] struct {
	req   *Request[R]
	value R
	err   error
	done  bool
}

// Request returns the batched request.
func (f *Future[R]) Request() *Request[R] {
	return f.req
}

// Result returns the decoded result, or the error that prevented it.
// Before the batch is sent it returns ErrBatchNotSent.
func (f *Future[R]) Result() (R, error) {
	if !f.done {
		var zero R
		return zero, ErrBatchNotSent
	}
	return f.value, f.err
}

func (f *Future[R]) invocation() Invocation {
	return f.req.Invocation()
}

func (f *Future[R]) validate() error {
	return f.req.validate()
}

func (f *Future[R]) complete(raw []byte) {
	f.value, f.err = f.req.Decode(raw)
	f.done = true
}

func (f *Future[R]) fail(err error) {
	f.err = err
	f.done = true
}

func (f *Future[R]) failure() error {
	return f.err
}

// Batch collects requests and submits them together.
//
// Calls are submitted one at a time in insertion order; the first failing
// call aborts the calls after it. Views are submitted after the calls,
// concurrently, and identical views share one submission.
//
// Add, Len and Send may be called from multiple goroutines. Futures must be
// read after Send returns.
type Batch struct {
	mu      sync.Mutex
	entries []pending
	config  *batchConfig
	sent    bool
}

// NewBatch creates an empty Batch.
func NewBatch(opts ...BatchOption) *Batch {
	cfg := defaultBatchConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Batch{
		entries: make([]pending, 0, 16),
		config:  cfg,
	}
}

// Add appends req to the batch and returns the future receiving its result.
// Adding to a batch that was already sent yields a future failed with ErrBatchSent.
func Add[R any](b *Batch, req *Request[R]) *Future[R] {
	f := &Future[R]{req: req}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sent {
		f.fail(ErrBatchSent)
		return f
	}
	b.entries = append(b.entries, f)
	return f
}

// Len returns the number of requests in the batch.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Send submits every request through t and resolves their futures.
// It returns the joined errors of all failed entries, or nil.
// A Batch can be sent once.
func (b *Batch) Send(ctx context.Context, t Transport) error {
	b.mu.Lock()
	if b.sent {
		b.mu.Unlock()
		return ErrBatchSent
	}
	b.sent = true
	entries := b.entries
	b.mu.Unlock()

	calls := make([]pending, 0, len(entries))
	views := newViewIndex(b.config.dedupViews)
	for _, e := range entries {
		if err := e.validate(); err != nil {
			e.fail(err)
			continue
		}
		if e.invocation().Kind == KindCall {
			calls = append(calls, e)
		} else {
			views.add(e)
		}
	}

	b.config.logger.Debug("sending batch",
		zap.Int("calls", len(calls)),
		zap.Int("view_submissions", views.submissions()),
		zap.Int("entries", len(entries)))

	b.sendCalls(ctx, t, calls)
	b.sendViews(ctx, t, views)

	var errs []error
	for _, e := range entries {
		if err := e.failure(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sendCalls submits calls sequentially, aborting after the first failure.
func (b *Batch) sendCalls(ctx context.Context, t Transport, calls []pending) {
	aborted := false
	for _, e := range calls {
		if aborted {
			e.fail(ErrBatchAborted)
			continue
		}

		inv := e.invocation()
		raw, err := submit(ctx, t, inv)
		if err != nil {
			e.fail(&TransportError{Method: inv.Method, Err: err})
		} else {
			e.complete(raw)
		}

		if err := e.failure(); err != nil {
			b.config.logger.Warn("batched call failed",
				zap.String("method", inv.Method),
				zap.Error(err))
			aborted = true
		}
	}
}

// sendViews submits each view group concurrently and fans results out to its members.
func (b *Batch) sendViews(ctx context.Context, t Transport, views *viewIndex) {
	var g errgroup.Group
	g.SetLimit(b.config.concurrency)

	for _, grp := range views.groups {
		g.Go(func() error {
			raw, err := submit(ctx, t, grp.inv)
			for _, m := range grp.members {
				if err != nil {
					m.fail(&TransportError{Method: grp.inv.Method, Err: err})
				} else {
					m.complete(raw)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
