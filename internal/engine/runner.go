// Package engine spawns the external proxy engine (xray/v2ray compatible).
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// ErrNotInstalled 表示引擎可执行文件不存在。
var ErrNotInstalled = errors.New("engine: binary not installed")

// stopGrace 是 ctx 取消后等待引擎自行退出的时间，超时则强制结束。
const stopGrace = 5 * time.Second

// Runner runs `<Path> <test|run> -c <config>`.
type Runner struct {
	Path   string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Test asks the engine to validate configPath.
func (r *Runner) Test(ctx context.Context, configPath string) error {
	return r.exec(ctx, "test", configPath)
}

// Run starts the engine in the foreground and returns when it exits.
// Cancelling ctx sends an interrupt first.
func (r *Runner) Run(ctx context.Context, configPath string) error {
	return r.exec(ctx, "run", configPath)
}

func (r *Runner) exec(ctx context.Context, action, configPath string) error {
	if err := r.ensureInstalled(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, r.Path, action, "-c", configPath)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = stopGrace

	r.logger().Debug("exec engine", "path", r.Path, "action", action, "config", configPath)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil && action == "run" {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("engine %s exited with status %d: %w", action, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("engine %s: %w", action, err)
	}
	return nil
}

func (r *Runner) ensureInstalled() error {
	if r.Path == "" {
		return ErrNotInstalled
	}
	info, err := os.Stat(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotInstalled, r.Path)
		}
		return fmt.Errorf("stat engine: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotInstalled, r.Path)
	}
	return nil
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return os.Stderr
	}
	return r.Stderr
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
