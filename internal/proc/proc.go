// Package proc runs the external tools the pipeline depends on and verifies
// the artifacts they leave behind.
package proc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// SubprocessError reports an external tool that exited non-zero.
type SubprocessError struct {
	Command string
	Err     error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("subprocess %q failed: %v", e.Command, e.Err)
}

func (e *SubprocessError) Unwrap() error { return e.Err }

// ArtifactError reports an expected stage output that is absent or empty.
type ArtifactError struct {
	Path   string
	Reason string
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
}

// Runner executes external commands. Verbose routes child output to the
// terminal; otherwise it is discarded.
type Runner struct {
	Verbose bool
}

// Run executes name with args and waits for it to finish. A non-zero exit is
// a SubprocessError; the run has no timeout beyond ctx.
func (r Runner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	if r.Verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	log.Debug().
		Str("command", name).
		Strs("args", args).
		Msg("Running external tool")

	if err := cmd.Run(); err != nil {
		return &SubprocessError{Command: name + " " + strings.Join(args, " "), Err: err}
	}
	return nil
}

// Start launches name with args without waiting. Used for audio playback
// during interactive review, where the caller may kill the child early.
func (r Runner) Start(ctx context.Context, name string, args ...string) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		return nil, &SubprocessError{Command: name + " " + strings.Join(args, " "), Err: err}
	}
	return cmd, nil
}

// EnsureFile verifies that path exists and is non-empty.
func EnsureFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &ArtifactError{Path: path, Reason: "not created"}
	}
	if info.Size() == 0 {
		return &ArtifactError{Path: path, Reason: "empty"}
	}
	return nil
}
