package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeScript creates an executable shell script standing in for parse_game.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "parse_game")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExecPassesModeFlagsAndCapturesLines(t *testing.T) {
	bin := writeScript(t, `echo "$@"; echo "Keeper's Dungeon"; echo 3`)
	res, err := NewExec(bin, 5*time.Second).Invoke(context.Background(), ModeGameSave, "uploads/save1.ret")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !res.OK() {
		t.Fatalf("exit code %d", res.ExitCode)
	}
	if len(res.Lines) != 3 {
		t.Fatalf("lines = %q", res.Lines)
	}
	if res.Lines[0] != "--input uploads/save1.ret --display_name --version" {
		t.Fatalf("args = %q", res.Lines[0])
	}
	if res.Lines[1] != "Keeper's Dungeon" || res.Lines[2] != "3" {
		t.Fatalf("output = %q", res.Lines[1:])
	}
}

func TestExecNonZeroExitKeepsOutput(t *testing.T) {
	bin := writeScript(t, `echo partial; echo boom >&2; exit 3`)
	res, err := NewExec(bin, 5*time.Second).Invoke(context.Background(), ModeSiteSave, "x.sit")
	if err != nil {
		t.Fatalf("non-zero exit should not be an invoke error: %v", err)
	}
	if res.ExitCode != 3 || res.OK() {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	if len(res.Lines) != 1 || res.Lines[0] != "partial" {
		t.Fatalf("lines = %q", res.Lines)
	}
	if !strings.Contains(res.Stderr, "boom") {
		t.Fatalf("stderr = %q", res.Stderr)
	}
}

func TestExecTimeout(t *testing.T) {
	bin := writeScript(t, `sleep 5`)
	_, err := NewExec(bin, 100*time.Millisecond).Invoke(context.Background(), ModeHighscores, "x")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
}

func TestExecMissingBinary(t *testing.T) {
	_, err := NewExec(filepath.Join(t.TempDir(), "nope"), time.Second).Invoke(context.Background(), ModeGameSave, "x")
	if err == nil || errors.Is(err, ErrTimeout) {
		t.Fatalf("want start error, got %v", err)
	}
}

func TestModeFlags(t *testing.T) {
	if got := strings.Join(ModeHighscores.Flags(), " "); got != "--highscores" {
		t.Fatalf("highscores flags = %q", got)
	}
	if got := strings.Join(ModeSiteSave.Flags(), " "); got != "--serial_info --display_name --version" {
		t.Fatalf("site flags = %q", got)
	}
}
