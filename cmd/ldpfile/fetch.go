package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ldpfile/internal/cli"
	"ldpfile/internal/core/progress"
	"ldpfile/internal/core/types"
	"ldpfile/internal/transfer"
)

var errUnsafeName = errors.New("unsafe file name")

type FetchCmd struct {
	ResourceArgs `embed:""`
	Output     string      `short:"o" long:"output" help:"Destination file (default: original name)"`
	Force      bool        `short:"f" long:"force" help:"Replace an existing destination file"`
	RateLimit  types.Bytes `long:"rate-limit" help:"Maximum download rate, e.g. 10MB (overrides config)"`
	NoVerify   bool        `long:"no-verify" help:"Skip checksum verification"`
	NoProgress bool        `long:"no-progress" help:"Hide the progress bar"`
}

func (c *FetchCmd) Run(cliRoot *CLI) error {
	ctx, cancel := types.DefaultSignalNotifySubContext()
	defer cancel()

	f, cfg, log, err := c.open(ctx, cliRoot)
	if err != nil {
		return err
	}

	dest := c.Output
	if dest == "" {
		name, err := f.OriginalName(ctx)
		if err != nil {
			return err
		}
		if dest, err = localName(name); err != nil {
			return fmt.Errorf("%s: %w, pass --output", f.URI(), err)
		}
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s already exists, pass --force to replace it", dest)
		}
	}

	rateLimit := cfg.Transfer.RateLimit
	if c.RateLimit != 0 {
		rateLimit = c.RateLimit
	}

	opts := []transfer.Option{
		transfer.WithLogger(log),
		transfer.WithLimiter(types.NewRateLimiter(rateLimit, cfg.Transfer.RateBurst)),
	}
	if c.NoVerify {
		opts = append(opts, transfer.WithoutVerify())
	}
	var bars *progress.Progress
	if cfg.Transfer.Progress && !c.NoProgress {
		bars = progress.New(os.Stderr)
		opts = append(opts, transfer.WithProgress(bars))
	}

	var res transfer.Result
	err = saveTo(dest, func(w io.Writer) error {
		var err error
		res, err = transfer.Download(ctx, f, w, opts...)
		return err
	})
	if bars != nil {
		bars.Wait()
	}
	if err != nil {
		return err
	}

	cli.PrintDownload(os.Stdout, dest, res)
	return nil
}

// localName turns a repository supplied filename into a name in the
// working directory. Anything that could point elsewhere is rejected.
func localName(name string) (string, error) {
	switch {
	case name == "":
		return "", fmt.Errorf("%w: no original name", errUnsafeName)
	case name == "." || name == "..",
		strings.ContainsAny(name, `/\`),
		strings.ContainsRune(name, os.PathSeparator),
		strings.ContainsRune(name, 0),
		filepath.Base(name) != name:
		return "", fmt.Errorf("%w: %q", errUnsafeName, name)
	}
	return name, nil
}

// saveTo runs write against a temporary file next to dest and renames it
// into place only when write succeeds. On any error the temporary file is
// removed and dest is left untouched.
func saveTo(dest string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}
