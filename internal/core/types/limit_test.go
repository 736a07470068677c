package types

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter(t *testing.T) {
	tests := []struct {
		name      string
		rate      Bytes
		burst     Bytes
		unlimited bool
		wantBurst int
	}{
		{name: "zero rate is unlimited", rate: 0, burst: 0, unlimited: true},
		{name: "default burst capped to a tenth", rate: 1000, burst: 0, wantBurst: 100},
		{name: "explicit burst capped to a tenth", rate: 10_000, burst: 5_000, wantBurst: 1_000},
		{name: "small burst kept", rate: 10_000_000, burst: 64_000, wantBurst: 64_000},
		{name: "burst never below one", rate: 5, burst: 0, wantBurst: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewRateLimiter(tt.rate, tt.burst)
			assert.Equal(t, tt.unlimited, l.Unlimited())
			if tt.unlimited {
				assert.Zero(t, l.Chunk())
				return
			}
			assert.Equal(t, tt.wantBurst, l.Burst())
			assert.Equal(t, tt.wantBurst, l.Chunk())
		})
	}
}

func TestNilRateLimiterIsUnlimited(t *testing.T) {
	var l *RateLimiter
	assert.True(t, l.Unlimited())
	assert.Zero(t, l.Chunk())
}

func TestReaderChunksToBurst(t *testing.T) {
	l := NewRateLimiter(100_000, 1_000)

	var seen int64
	r := NewReader(context.Background(), strings.NewReader(strings.Repeat("x", 5000)),
		RWWithLimiter(l),
		RWWithCallback(func(n int64) { seen += n }),
	)

	// A buffer larger than the burst would make WaitN fail outright
	buf := make([]byte, 32*1024)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)

	rest, err := io.Copy(io.Discard, r)
	require.NoError(t, err)
	assert.EqualValues(t, 4000, rest)
	assert.EqualValues(t, 5000, seen)
}

func TestReaderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(ctx, strings.NewReader("abc"))
	_, err := r.Read(make([]byte, 8))
	assert.ErrorIs(t, err, context.Canceled)
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestReaderClose(t *testing.T) {
	rc := &closeRecorder{Reader: strings.NewReader("abc")}
	require.NoError(t, NewReader(context.Background(), rc).Close())
	assert.True(t, rc.closed)

	assert.NoError(t, NewReader(context.Background(), strings.NewReader("abc")).Close())
}
