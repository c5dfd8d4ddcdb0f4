package util

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"webmc/internal/model"
)

// CmdSpec describes a subprocess to run.
type CmdSpec struct {
	Path string   // Binary path
	Args []string // Arguments
	Env  []string // Optional environment variables (KEY=VALUE). If nil, inherit.
	Dir  string   // Working directory; empty = inherit.

	// Echo, when set, receives the command line and every output line.
	Echo io.Writer

	StdoutLine    func(string) // Called for each stdout line (if non-nil)
	StderrLine    func(string) // Called for each stderr line (if non-nil)
	CaptureStdout bool         // When false, do not buffer stdout into CmdResult (still invoke StdoutLine)
}

// CmdResult contains captured output and exit status.
type CmdResult struct {
	Stdout []byte
	Stderr []byte
	Code   int
	Err    error
}

// CmdRunner runs subprocesses. Tests substitute fakes that replay canned output.
type CmdRunner interface {
	Run(ctx context.Context, spec CmdSpec) (CmdResult, error)
}

// DefaultRunner runs commands through os/exec.
type DefaultRunner struct{}

// NewDefaultRunner returns the os/exec backed runner.
func NewDefaultRunner() CmdRunner { return DefaultRunner{} }

// Run implements CmdRunner.
func (DefaultRunner) Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	return Run(ctx, spec)
}

// scanBuffer bounds a single output line; ffprobe and ffmpeg stay far below it.
const scanBuffer = 1024 * 1024

// Run executes the command. It always captures stderr; stdout capture can be
// disabled with CaptureStdout=false when StdoutLine consumes it. A failure
// to start wraps model.ErrSpawnFailed. On non-zero exit it returns an error
// describing the exit code, while also populating CmdResult.
func Run(ctx context.Context, spec CmdSpec) (CmdResult, error) {
	var stdoutBuf, stderrBuf bytes.Buffer

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	if spec.Dir != "" {
		cmd.Dir = spec.Dir
	}
	if spec.Env != nil {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return CmdResult{Code: -1, Err: err}, fmt.Errorf("%w: %v", model.ErrSpawnFailed, err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return CmdResult{Code: -1, Err: err}, fmt.Errorf("%w: %v", model.ErrSpawnFailed, err)
	}

	if spec.Echo != nil {
		fmt.Fprintf(spec.Echo, "+ %s\n", ShellQuote(spec.Path, spec.Args))
	}

	if err := cmd.Start(); err != nil {
		return CmdResult{Code: -1, Err: err}, fmt.Errorf("%w: %s: %v", model.ErrSpawnFailed, spec.Path, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		capture := spec.CaptureStdout || spec.StdoutLine == nil
		scanLines(stdoutPipe, spec.StdoutLine, spec.Echo, &stdoutBuf, capture)
	}()
	go func() {
		defer wg.Done()
		scanLines(stderrPipe, spec.StderrLine, spec.Echo, &stderrBuf, true)
	}()

	// Readers must drain before Wait closes the pipes.
	wg.Wait()
	waitErr := cmd.Wait()

	code := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	res := CmdResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
		Code:   code,
		Err:    waitErr,
	}
	if waitErr != nil {
		return res, fmt.Errorf("command failed (exit %d): %w", code, waitErr)
	}
	return res, nil
}

func scanLines(r io.Reader, onLine func(string), echo io.Writer, buf *bytes.Buffer, capture bool) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), scanBuffer)
	for sc.Scan() {
		line := sc.Text()
		// Callback first so real-time consumers see it
		if onLine != nil {
			onLine(line)
		}
		if echo != nil {
			fmt.Fprintln(echo, line)
		}
		if capture {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	// A scan error leaves the rest unread; drain so the child never blocks on a full pipe.
	if sc.Err() != nil {
		_, _ = io.Copy(io.Discard, r)
	}
}

// ShellQuote returns a printable shell-like command string for logging.
func ShellQuote(path string, args []string) string {
	b := &strings.Builder{}
	b.WriteString(quote(path))
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	return b.String()
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n\"'\\$`(){}[]*&;|<>?!") {
		return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
	}
	return s
}
