// Package transfer copies a file's persisted bytes out of the repository,
// throttled, with progress, and checked against the recorded checksum.
package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"ldpfile/internal/core/progress"
	"ldpfile/internal/core/tracker"
	"ldpfile/internal/core/types"
	"ldpfile/internal/file"

	"github.com/grailbio/base/digest"
)

type Option func(*downloader)

func WithLimiter(limiter *types.RateLimiter) Option {
	return func(d *downloader) {
		d.limiter = limiter
	}
}

func WithProgress(p *progress.Progress) Option {
	return func(d *downloader) {
		d.progress = p
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *downloader) {
		d.logger = l
	}
}

// WithoutVerify skips the checksum comparison.
func WithoutVerify() Option {
	return func(d *downloader) {
		d.verify = false
	}
}

type downloader struct {
	limiter  *types.RateLimiter
	progress *progress.Progress
	logger   *slog.Logger
	verify   bool
}

// Result describes a finished download.
type Result struct {
	Bytes    int64
	Checksum *file.Checksum // the checksum compared, nil when none was usable
	Verified bool
	Duration time.Duration
	Speed    float64 // average bytes per second
}

// Download writes the persisted content of f to w. When the repository
// records a checksum the download computes, the bytes are hashed on the
// way through and a mismatch is returned as file.ErrChecksumMismatch.
func Download(ctx context.Context, f *file.File, w io.Writer, opts ...Option) (Result, error) {
	d := &downloader{
		limiter: types.UnlimitedRateLimiter(),
		logger:  slog.Default(),
		verify:  true,
	}
	for _, opt := range opts {
		opt(d)
	}

	var res Result
	if f.IsNewRecord() {
		return res, file.ErrNewRecord
	}

	var (
		sum *file.Checksum
		dw  digest.Writer
	)
	if d.verify {
		sums, err := f.Checksums(ctx)
		if err != nil {
			return res, err
		}
		for i := range sums {
			if sums[i].Supported() {
				sum = &sums[i]
				break
			}
		}
		if sum != nil {
			d, _ := sum.Digester()
			dw = d.NewWriter()
			w = io.MultiWriter(w, dw)
		} else {
			d.logger.Warn("no usable checksum, skipping verification", "uri", f.URI())
		}
	}

	body, err := f.PersistedContent(ctx)
	if err != nil {
		return res, err
	}
	defer body.Close()

	id := f.URI()
	total, _, err := f.PersistedSize(ctx)
	if err != nil {
		return res, err
	}
	tr := tracker.NewTracker(id)
	tr.SetTotal(total)

	if d.progress != nil {
		name, _ := f.OriginalName(ctx)
		if name == "" {
			name = id
		}
		d.progress.Add(id, name, total)
	}
	callback := func(n int64) {
		tr.IncCurrent(n)
		if d.progress != nil {
			d.progress.Increment(id, n)
		}
	}

	tr.Start()
	res.Bytes, err = io.Copy(w, types.NewReader(ctx, body,
		types.RWWithLimiter(d.limiter),
		types.RWWithCallback(callback),
	))
	tr.Finish()
	res.Duration = tr.Duration()
	res.Speed = tr.Speed()
	if err != nil {
		if d.progress != nil {
			d.progress.Abort(id)
		}
		d.logger.Warn("download aborted", "uri", id, "progress", tr.ProgressBytes(), "percent", tr.PercentString(), "error", err)
		return res, fmt.Errorf("download %s: %w", id, err)
	}
	if d.progress != nil {
		d.progress.Done(id)
	}

	if sum != nil {
		res.Checksum = sum
		if err := sum.Match(dw.Digest()); err != nil {
			return res, fmt.Errorf("download %s: %w", id, err)
		}
		res.Verified = true
	}

	d.logger.Debug("downloaded", "uri", id, "bytes", res.Bytes, "speed", tr.SpeedBytes(), "verified", res.Verified)
	return res, nil
}
