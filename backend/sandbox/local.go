package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/spf13/afero"
)

// Local is a reference Sandbox that confines tool handlers to a directory
// on the host filesystem, following the afero.Fs capability-injection shape
// the teacher passes into backend/agent/interpreter.CodeInterpreter.Run.
type Local struct {
	root string
	fs   afero.Fs
}

// NewLocal roots a Local sandbox at root, which must already exist.
func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root: %w", err)
	}
	return &Local{root: abs, fs: afero.NewBasePathFs(afero.NewOsFs(), abs)}, nil
}

// Fs exposes the root-confined afero.Fs for tool handlers that want
// direct file access rather than shelling out.
func (l *Local) Fs() afero.Fs { return l.fs }

func (l *Local) ValidatePath(relative string) (string, error) {
	abs := filepath.Join(l.root, relative)
	rel, err := filepath.Rel(l.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", PathEscapeError{Relative: relative, Root: l.root}
	}
	return abs, nil
}

// Exec runs command through /bin/sh -c with cwd confined to the sandbox
// root, quoting cwd itself (not the caller's command, which legitimately
// contains shell syntax like pipes and redirects) with shellescape so it
// can be embedded in the generated script safely.
func (l *Local) Exec(ctx context.Context, command string, cwd string, timeout time.Duration) (ExecResult, error) {
	dir := l.root
	if cwd != "" {
		resolved, err := l.ValidatePath(cwd)
		if err != nil {
			return ExecResult{}, err
		}
		dir = resolved
	}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	script := fmt.Sprintf("cd %s && %s", shellescape.Quote(dir), command)
	cmd := exec.CommandContext(runCtx, "/bin/sh", "-c", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecResult{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case asExitError(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	default:
		return result, fmt.Errorf("sandbox: exec: %w", err)
	}
	return result, nil
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
