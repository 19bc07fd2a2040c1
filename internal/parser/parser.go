// Package parser runs the external save-file parser and decodes its
// positional, line-oriented output.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Mode selects what the parser extracts from a file.
type Mode int

const (
	// ModeGameSave prints display name then version.
	ModeGameSave Mode = iota + 1
	// ModeSiteSave prints display name, version, then the serialized game info.
	ModeSiteSave
	// ModeHighscores prints one comma-separated score per line.
	ModeHighscores
)

func (m Mode) String() string {
	switch m {
	case ModeGameSave:
		return "game"
	case ModeSiteSave:
		return "site"
	case ModeHighscores:
		return "highscores"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Flags returns the command line switches for m, without --input.
func (m Mode) Flags() []string {
	switch m {
	case ModeGameSave:
		return []string{"--display_name", "--version"}
	case ModeSiteSave:
		return []string{"--serial_info", "--display_name", "--version"}
	case ModeHighscores:
		return []string{"--highscores"}
	}
	return nil
}

// Result is what one parser run produced. Lines are kept even when ExitCode
// is non-zero so callers can log them.
type Result struct {
	Lines    []string
	ExitCode int
	Stderr   string
	Elapsed  time.Duration
}

func (r Result) OK() bool { return r.ExitCode == 0 }

// Parser is the contract the ingestion pipeline depends on. It does not
// interpret the output.
type Parser interface {
	Invoke(ctx context.Context, mode Mode, path string) (Result, error)
}

// Func adapts a plain function to Parser.
type Func func(ctx context.Context, mode Mode, path string) (Result, error)

func (f Func) Invoke(ctx context.Context, mode Mode, path string) (Result, error) {
	return f(ctx, mode, path)
}

// ErrTimeout is returned when the parser is killed for exceeding its budget.
var ErrTimeout = errors.New("parser timed out")

// Exec runs the parser binary as a child process.
type Exec struct {
	Binary  string
	Timeout time.Duration
	// Dir is the working directory; empty means the server's.
	Dir string
}

func NewExec(binary string, timeout time.Duration) *Exec {
	return &Exec{Binary: binary, Timeout: timeout}
}

func (e *Exec) Invoke(ctx context.Context, mode Mode, path string) (Result, error) {
	ctx, span := otel.Tracer("keeperhub/parser").Start(ctx, "parser.invoke")
	defer span.End()
	span.SetAttributes(attribute.String("parser.mode", mode.String()))

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	args := append([]string{"--input", path}, mode.Flags()...)
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Dir = e.Dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Lines:   SplitLines(stdout.String()),
		Stderr:  stderr.String(),
		Elapsed: time.Since(start),
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.ExitCode = -1
		span.SetStatus(codes.Error, "timeout")
		return res, ErrTimeout
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.ExitCode()
		span.SetAttributes(attribute.Int("parser.exit_code", res.ExitCode))
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		return res, fmt.Errorf("run parser: %w", err)
	}
	span.SetAttributes(attribute.Int("parser.exit_code", 0), attribute.Int("parser.lines", len(res.Lines)))
	return res, nil
}

// SplitLines splits stdout into lines with trailing whitespace removed.
// A final newline does not produce an empty trailing line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, " \t\r")
	}
	return parts
}
