package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Format: FormatJSON, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	log.Debug().Msg("hidden")
	log.Info().Str("job", "j1").Msg("admitted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %q", lines)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["job"] != "j1" || rec["message"] != "admitted" || rec["level"] != "info" {
		t.Errorf("record = %v", rec)
	}
	if _, ok := rec["time"]; !ok {
		t.Errorf("missing timestamp")
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf, NoColor: true})
	if err != nil {
		t.Fatal(err)
	}
	log.Warn().Msg("pass log dir left behind")
	if !strings.Contains(buf.String(), "WRN") || !strings.Contains(buf.String(), "pass log dir left behind") {
		t.Errorf("console output = %q", buf.String())
	}
}

func TestNew_BadFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestOpenFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "webmc.log")
	f, err := OpenFile(p)
	if err != nil {
		t.Fatalf("OpenFile() error: %v", err)
	}
	f.Close()
}
