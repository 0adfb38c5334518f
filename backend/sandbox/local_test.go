package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestLocalValidatePathRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	sb, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	if _, err := sb.ValidatePath("../../etc/passwd"); err == nil {
		t.Fatalf("ValidatePath(escape) error = nil, want PathEscapeError")
	}

	abs, err := sb.ValidatePath("sub/file.txt")
	if err != nil {
		t.Fatalf("ValidatePath(sub/file.txt) error = %v", err)
	}
	if !strings.HasPrefix(abs, dir) {
		t.Fatalf("ValidatePath() = %q, want prefix %q", abs, dir)
	}
}

func TestLocalExecReturnsStdoutAndExitCode(t *testing.T) {
	dir := t.TempDir()
	sb, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	result, err := sb.Exec(context.Background(), "echo hello", "", time.Second)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Fatalf("Exec() stdout = %q, want %q", result.Stdout, "hello")
	}
	if result.ExitCode != 0 {
		t.Fatalf("Exec() exit code = %d, want 0", result.ExitCode)
	}
}

func TestLocalExecNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	sb, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	result, err := sb.Exec(context.Background(), "exit 3", "", time.Second)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("Exec() exit code = %d, want 3", result.ExitCode)
	}
}
