// Package executil provides command execution utilities for the source
// adapters. It centralizes subprocess invocation behind a single interface
// so the git/archive/vcpkg/conan/system adapters can be unit-tested with
// scripted process stubs, per the "external-process abstraction" design
// note.
package executil

import (
	"context"
	"os/exec"
	"time"
)

// Commander creates *exec.Cmd instances. Production code uses Default;
// tests inject a fake that returns commands wired to a stub binary or a
// recording wrapper.
type Commander interface {
	Command(name string, args ...string) *exec.Cmd
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommander implements Commander using the standard library.
type DefaultCommander struct{}

func (DefaultCommander) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

func (DefaultCommander) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// Default is the global Commander; tests may swap it out.
var Default Commander = DefaultCommander{}

// Command delegates to Default.
func Command(name string, args ...string) *exec.Cmd {
	return Default.Command(name, args...)
}

// Result captures the outcome of a subprocess run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes name+args, honoring timeout (0 means no timeout), and
// returns its stdout and stderr captured separately. A context deadline exceeded surfaces as
// context.DeadlineExceeded so callers can distinguish it from a non-zero
// exit from the external tool itself, per §5's "a timed-out process is
// treated as a fetch failure" contract.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := Default.CommandContext(ctx, name, args...)
	var stdout, stderr outputBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	return res, err
}

// LookPath reports whether name is resolvable on PATH.
func LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return p, true
}

// outputBuffer is a tiny io.Writer accumulator, avoiding a bytes.Buffer
// import for the common case of capturing subprocess output.
type outputBuffer struct {
	data []byte
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *outputBuffer) String() string { return string(b.data) }
