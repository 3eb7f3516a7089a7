// Package tool invokes the external collaborator executables and converts
// their outcomes into typed results the pipeline can branch on.
package tool

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vitexsoftware/csas-sharepoint/pkg/logger"
)

// FailureReason classifies why an invocation did not succeed. An empty reason
// means success.
type FailureReason string

const (
	FailureNone     FailureReason = ""
	FailureTimeout  FailureReason = "timeout"
	FailureExit     FailureReason = "nonzero_exit"
	FailureStart    FailureReason = "start_failed"
	FailureNoSource FailureReason = "missing_source_file"
)

// Invocation describes one collaborator call.
type Invocation struct {
	Path    string
	Args    []string
	Env     map[string]string // overrides appended to the inherited environment
	Timeout time.Duration
}

// Result captures the outcome of one invocation. Stdout and stderr are kept
// whole; collaborators print at most a few lines.
type Result struct {
	OK       bool
	Reason   FailureReason
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Run executes the invocation and blocks until it finishes or the timeout
// kills it. A timeout, non-zero exit, or start failure is reported in the
// Result rather than as an error: invocation failures are stage-local by
// contract.
func Run(ctx context.Context, inv Invocation) Result {
	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Environment variable precedence: overrides beat the inherited process
	// environment. Later entries win when a key appears twice.
	cmd.Env = os.Environ()
	for k, v := range inv.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		OK:       err == nil,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Reason = FailureTimeout
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Reason = FailureExit
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Reason = FailureStart
			logger.Log.Error().Err(err).Str("command", inv.Path).Msg("failed to start collaborator")
		}
	}
	return res
}

// StdoutURL returns the last line of stdout that looks like an HTTP(S) URL,
// or an empty string. The uploader optionally prints the resulting document
// URL as its final output line.
func StdoutURL(stdout string) string {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line
		}
	}
	return ""
}
