// Package spawn starts the editing engine as a child process.
package spawn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"pkt.systems/pslog"
)

var (
	ErrNoCommand   = errors.New("engine command is empty")
	ErrNotRunning  = errors.New("engine not running")
	ErrStopTimeout = errors.New("engine did not exit in time")
)

// Options describes the engine command.
type Options struct {
	Command string
	Args    []string
	Dir     string
	// Env entries are appended to the inherited environment.
	Env []string
}

// Engine is a running engine process. Its stdout is delivered through an
// in-process pipe, so every byte the engine wrote is readable before
// Stdout reports EOF.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *io.PipeReader
	stderr *lineLogger

	Started time.Time

	done     chan struct{}
	mu       sync.Mutex
	exitErr  error
	exitCode int
}

// Start launches the engine. The process is killed if ctx is cancelled.
func Start(ctx context.Context, opts Options, log pslog.Logger) (*Engine, error) {
	if opts.Command == "" {
		return nil, ErrNoCommand
	}

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), opts.Env...)
	}
	cmd.WaitDelay = 2 * time.Second

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("engine stdin: %w", err)
	}
	stdoutR, stdoutW := io.Pipe()
	cmd.Stdout = stdoutW
	stderr := newLineLogger(log.With("stream", "engine-stderr"))
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdoutW.Close()
		return nil, fmt.Errorf("start engine %s: %w", opts.Command, err)
	}

	e := &Engine{
		cmd:      cmd,
		stdin:    stdin,
		stdout:   stdoutR,
		stderr:   stderr,
		Started:  time.Now(),
		done:     make(chan struct{}),
		exitCode: -1,
	}
	log.Info("engine started", "command", opts.Command, "pid", cmd.Process.Pid)

	go e.wait(stdoutW, log)
	return e, nil
}

func (e *Engine) wait(stdoutW *io.PipeWriter, log pslog.Logger) {
	err := e.cmd.Wait()
	e.stderr.Flush()
	_ = stdoutW.Close()

	code := 0
	if err != nil {
		code = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
	}

	e.mu.Lock()
	e.exitErr = err
	e.exitCode = code
	e.mu.Unlock()

	if err != nil {
		log.Warn("engine exited", "code", code, "error", err)
	} else {
		log.Info("engine exited", "code", code)
	}
	close(e.done)
}

// Stdin is the engine's standard input.
func (e *Engine) Stdin() io.WriteCloser {
	return e.stdin
}

// Stdout is the engine's standard output.
func (e *Engine) Stdout() io.ReadCloser {
	return e.stdout
}

// Done is closed once the engine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// PID returns the process id.
func (e *Engine) PID() int {
	return e.cmd.Process.Pid
}

// ExitCode returns the exit code, or -1 while running or when killed.
func (e *Engine) ExitCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exitCode
}

// Err returns the error from waiting on the process.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exitErr
}

// Stop closes the engine's stdin, which asks it to exit, and waits up to
// grace before sending SIGTERM and then SIGKILL.
func (e *Engine) Stop(grace time.Duration) error {
	select {
	case <-e.done:
		return nil
	default:
	}

	_ = e.stdin.Close()
	if e.waitFor(grace) {
		return nil
	}
	_ = e.cmd.Process.Signal(syscall.SIGTERM)
	if e.waitFor(grace) {
		return nil
	}
	_ = e.cmd.Process.Kill()
	if e.waitFor(grace) {
		return nil
	}
	return ErrStopTimeout
}

func (e *Engine) waitFor(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-e.done:
		return true
	case <-t.C:
		return false
	}
}
