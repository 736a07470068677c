package types

import (
	"context"
	"io"
)

type RWCallback func(n int64)
type RWOption func(*Reader)

func RWWithLimiter(limiter *RateLimiter) RWOption {
	return func(r *Reader) {
		r.limiter = limiter
	}
}

func RWWithCallback(callback RWCallback) RWOption {
	return func(r *Reader) {
		r.callback = callback
	}
}

// Reader wraps an io.Reader and allows for context cancellation, rate
// limiting and a callback after each read.
//
// NOTE: The callback is on the hot path so don't block in it.
type Reader struct {
	ctx      context.Context
	reader   io.Reader
	limiter  *RateLimiter
	callback RWCallback
}

// NewReader creates a new Reader over r.
func NewReader(ctx context.Context, r io.Reader, opts ...RWOption) *Reader {
	rd := &Reader{
		ctx:     ctx,
		reader:  r,
		limiter: UnlimitedRateLimiter(),
	}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Read reads from the underlying reader, waiting on the limiter first.
func (r *Reader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
	}

	if chunk := r.limiter.Chunk(); chunk > 0 && len(p) > chunk {
		p = p[:chunk]
	}
	if !r.limiter.Unlimited() {
		if err := r.limiter.WaitN(r.ctx, len(p)); err != nil {
			return 0, err
		}
	}

	n, err := r.reader.Read(p)
	if n > 0 && r.callback != nil {
		r.callback(int64(n))
	}
	return n, err
}

// Close closes the underlying reader if it is an io.Closer.
func (r *Reader) Close() error {
	if closer, ok := r.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
