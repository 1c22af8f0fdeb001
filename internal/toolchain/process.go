package toolchain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
)

// LineSink receives child process output one line at a time, without the
// trailing newline. Calls arrive from a single goroutine.
type LineSink func(line string)

const maxLineBytes = 1 << 20

// runScript executes shell with the script path as its only argument and
// blocks until the process exits and all of its output has been delivered.
// Working directory and environment are inherited from the host.
func runScript(ctx context.Context, shell, script string, sink LineSink) (int, error) {
	cmd := exec.CommandContext(ctx, shell, script)

	// Kill the whole tree if ctx is cancelled.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		sc := bufio.NewScanner(pr)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			if sink != nil {
				sink(sc.Text())
			}
		}
		if err := sc.Err(); err != nil && sink != nil {
			sink(fmt.Sprintf("remaining output discarded: %v", err))
		}
		// Keep the writer unblocked after an over-long line.
		_, _ = io.Copy(io.Discard, pr)
	}()

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		<-drained
		return -1, fmt.Errorf("failed to start %s: %w", shell, err)
	}

	err := cmd.Wait()
	_ = pw.Close()
	<-drained

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ctx.Err() != nil {
				return exitErr.ExitCode(), fmt.Errorf("execution cancelled: %w", ctx.Err())
			}
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("failed to execute %s: %w", shell, err)
	}
	return 0, nil
}
