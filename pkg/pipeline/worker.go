package pipeline

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// Worker runs a model-backed stage as a dedicated child process that is
// spawned, run to completion, and fully reaped before the pipeline
// continues. Model runtimes do not reliably release accelerator memory
// inside a long-lived process, so each heavy stage gets a process of its
// own and the OS reclaims everything at exit.
type Worker struct {
	// Name is the command to run, resolved via PATH if not absolute.
	Name string
	// Args are the command arguments.
	Args []string
	// Dir is the working directory. Empty means inherit.
	Dir string
	// Env appends to the inherited environment when non-nil.
	Env []string
	// Stdout and Stderr receive the child's output. Nil discards.
	Stdout io.Writer
	// Stderr receives the child's diagnostics. Nil discards.
	Stderr io.Writer
	// Logger, when set, records spawn and exit at debug level.
	Logger *logrus.Entry
}

// Run spawns the child, waits for it to exit, and returns an error wrapping
// the command name when it fails. Cancelling ctx kills the child.
func (w *Worker) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, w.Name, w.Args...)
	cmd.Dir = w.Dir
	if w.Env != nil {
		cmd.Env = append(cmd.Environ(), w.Env...)
	}
	cmd.Stdout = w.Stdout
	cmd.Stderr = w.Stderr
	if w.Logger != nil {
		w.Logger.WithField("cmd", w.Name).Debug("spawning worker process")
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pipeline: worker %s: %w", w.Name, err)
	}
	if w.Logger != nil {
		w.Logger.WithField("cmd", w.Name).Debug("worker process finished")
	}
	return nil
}
