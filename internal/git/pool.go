// Package git provides shared utilities for git CLI operations.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// Pool limits concurrent git CLI operations using a weighted semaphore and
// bounds each operation with a timeout. Clone and blame calls from every
// repository share one Pool.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewPool creates a Pool that allows at most limit concurrent git operations,
// each cancelled after timeout. A zero timeout means no limit.
func NewPool(limit int, timeout time.Duration) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(limit)), timeout: timeout}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks if all slots are busy. Returns ctx.Err() if the context
// is cancelled while waiting for a slot.
// If the pool is nil, fn is executed directly without concurrency control.
func (p *Pool) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if p == nil || p.sem == nil {
		return fn(ctx)
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// Exec runs git with args in dir through the pool and returns stdout.
func (p *Pool) Exec(ctx context.Context, dir string, args ...string) (string, error) {
	var out string
	err := p.Run(ctx, func(ctx context.Context) error {
		var err error
		out, err = run(ctx, dir, args...)
		return err
	})
	return out, err
}

// Installed reports whether a git binary is on PATH.
func Installed() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// run executes a git command and returns its stdout.
func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &Error{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}

// Error is a failed git invocation.
type Error struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	verb := ""
	if len(e.Args) > 0 {
		verb = e.Args[0]
	}
	return fmt.Sprintf("git %s: %s: %v", verb, e.Stderr, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
