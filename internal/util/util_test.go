package util

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		name string
		path string
		args []string
		want string
	}{
		{name: "plain", path: "ffmpeg", args: []string{"-i", "in.mp4"}, want: "ffmpeg -i in.mp4"},
		{name: "spaces", path: "ffmpeg", args: []string{"-i", "my clip.mp4"}, want: "ffmpeg -i 'my clip.mp4'"},
		{name: "single quote", path: "ffmpeg", args: []string{"it's.mp4"}, want: `ffmpeg 'it'\''s.mp4'`},
		{name: "empty arg", path: "ffmpeg", args: []string{""}, want: "ffmpeg ''"},
		{name: "brackets", path: "ffmpeg", args: []string{"a[processed].webm"}, want: "ffmpeg 'a[processed].webm'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShellQuote(tt.path, tt.args); got != tt.want {
				t.Errorf("ShellQuote() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMakeTempWorkdir(t *testing.T) {
	dir, err := MakeTempWorkdir("passlog-test")
	if err != nil {
		t.Fatalf("MakeTempWorkdir() error: %v", err)
	}
	defer os.RemoveAll(dir)

	if !strings.HasPrefix(filepath.Base(dir), "passlog-test-") {
		t.Errorf("dir %q lacks prefix", dir)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Errorf("workdir not created: %v", err)
	}
}

func TestEnsureDir(t *testing.T) {
	if err := EnsureDir(""); err == nil {
		t.Errorf("EnsureDir(\"\") should fail")
	}
	p := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(p); err != nil {
		t.Fatalf("EnsureDir() error: %v", err)
	}
}

func TestRunReassemblesSplitLines(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	// The key and its value arrive in separate writes, as ffmpeg flushes them.
	var lines []string
	_, err := Run(context.Background(), CmdSpec{
		Path:       "sh",
		Args:       []string{"-c", "printf 'out_time_'; sleep 0.2; printf 'us=1000\\nprogress=end\\n'"},
		StdoutLine: func(l string) { lines = append(lines, l) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"out_time_us=1000", "progress=end"}
	if !slices.Equal(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}
