package encoder

import (
	"os"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"webmc/internal/model"
	"webmc/internal/quality"
)

var fixedDate = time.Date(2026, 1, 25, 1, 44, 58, 0, time.UTC)

func hdParams(src string) Params {
	return Params{
		SourcePath: src,
		OutputPath: strings.TrimSuffix(src, ".mp4") + ".webm",
		Target:     model.Dimensions{Width: 1920, Height: 1080},
		Scale:      true,
		Settings:   quality.Derive(1080, 1920, 60),
		Date:       fixedDate,
	}
}

func TestCommandLine_Snapshot(t *testing.T) {
	p := hdParams(`test/dir/test[]".mp4`)
	passes := Assemble(p)

	wantFirst := `-loglevel error -i "test/dir/test[]\".mp4" -c:v libvpx-vp9 -vf scale=1920x1080 -b:v 3000k -minrate 1500k -maxrate 4350k -tile-columns 2 -threads 4 -g 240 -quality good -crf 31 -speed 4 -an -pass 1 -f null ` + os.DevNull
	wantSecond := `-loglevel error -progress - -i "test/dir/test[]\".mp4" -c:v libvpx-vp9 -vf scale=1920x1080 -b:v 3000k -minrate 1500k -maxrate 4350k -tile-columns 2 -threads 4 -g 240 -quality good -crf 31 -speed 2 -c:a libopus -pass 2 -metadata creation_time="2026-01-25T01:44:58.000Z" -metadata comment="sayonara" -y "test/dir/test[]\".webm"`

	if got := CommandLine(passes.First); got != wantFirst {
		t.Errorf("first pass:\n got %s\nwant %s", got, wantFirst)
	}
	if got := CommandLine(passes.Second); got != wantSecond {
		t.Errorf("second pass:\n got %s\nwant %s", got, wantSecond)
	}

	// Flattening never touches the argument list.
	if passes.First[3] != `test/dir/test[]".mp4` {
		t.Errorf("argument list altered: %q", passes.First[3])
	}
}

func TestAssemble_ExtraArgs(t *testing.T) {
	p := hdParams("test/dir/test.mp4")
	p.Extra = model.ExtraArgs{
		Both:   []string{"-ss", "00:00:17", "-to", "00:00:22"},
		First:  []string{"-row-mt", "1"},
		Second: []string{"-b:a", "96k"},
	}
	p.PassLogPrefix = "/tmp/webmc/passlog-1/ffmpeg2pass"
	passes := Assemble(p)

	wantFirstTail := []string{"-an", "-ss", "00:00:17", "-to", "00:00:22", "-row-mt", "1", "-passlogfile", "/tmp/webmc/passlog-1/ffmpeg2pass", "-pass", "1", "-f", "null", os.DevNull}
	if got := passes.First[len(passes.First)-len(wantFirstTail):]; !reflect.DeepEqual(got, wantFirstTail) {
		t.Errorf("first pass tail = %q, want %q", got, wantFirstTail)
	}

	wantSecondTail := []string{"-c:a", "libopus", "-ss", "00:00:17", "-to", "00:00:22", "-b:a", "96k", "-passlogfile", "/tmp/webmc/passlog-1/ffmpeg2pass", "-pass", "2"}
	idx := slices.Index(passes.Second, "-c:a")
	if idx < 0 {
		t.Fatalf("second pass lacks -c:a: %q", passes.Second)
	}
	if got := passes.Second[idx : idx+len(wantSecondTail)]; !reflect.DeepEqual(got, wantSecondTail) {
		t.Errorf("second pass middle = %q, want %q", got, wantSecondTail)
	}
	if slices.Contains(passes.First, "96k") || slices.Contains(passes.Second, "-row-mt") {
		t.Errorf("per-pass extras leaked into the other pass")
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	p := hdParams("in.mp4")
	a, b := Assemble(p), Assemble(p)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Assemble() not deterministic:\n%q\n%q", a, b)
	}
}

func TestAssemble_NoScale(t *testing.T) {
	p := Params{
		SourcePath: "clip.mov",
		OutputPath: "clip.webm",
		Target:     model.Dimensions{Width: 1920, Height: 1080},
		Settings:   quality.Derive(1080, 1920, 30),
		Date:       fixedDate,
	}
	passes := Assemble(p)

	if slices.Contains(passes.First, "-vf") || slices.Contains(passes.Second, "-vf") {
		t.Errorf("scale filter present without scaling")
	}
	if !slices.Contains(passes.First, "-an") || slices.Contains(passes.First, "-progress") {
		t.Errorf("first pass = %q", passes.First)
	}
	if !slices.Contains(passes.Second, "libopus") || !slices.Contains(passes.Second, "-progress") {
		t.Errorf("second pass = %q", passes.Second)
	}
	if n := len(passes.Second); passes.Second[n-2] != "-y" || passes.Second[n-1] != "clip.webm" {
		t.Errorf("second pass must end with -y output, got %q", passes.Second[n-2:])
	}
	if !strings.Contains(CommandLine(passes.Second), "-b:v 1800k -minrate 900k -maxrate 2610k") {
		t.Errorf("30fps 1080p should use the 24 bucket: %s", CommandLine(passes.Second))
	}
	if !strings.HasSuffix(CommandLine(passes.Second), `-y "clip.webm"`) {
		t.Errorf("flattened second pass should end with quoted output")
	}
}

func TestAssemble_Defaults(t *testing.T) {
	p := hdParams("in.mp4")
	p.Date = time.Time{}
	p.Comment = ""
	passes := Assemble(p)

	var created, comment string
	for i, a := range passes.Second {
		if i == 0 || passes.Second[i-1] != "-metadata" {
			continue
		}
		switch {
		case strings.HasPrefix(a, "creation_time="):
			created = strings.TrimPrefix(a, "creation_time=")
		case strings.HasPrefix(a, "comment="):
			comment = strings.TrimPrefix(a, "comment=")
		}
	}
	if _, err := time.Parse(dateLayout, created); err != nil {
		t.Errorf("creation_time %q not in %s: %v", created, dateLayout, err)
	}
	if comment != DefaultComment {
		t.Errorf("comment = %q, want %q", comment, DefaultComment)
	}
}

func TestCommandLine_Metadata(t *testing.T) {
	got := CommandLine([]string{"-metadata", `comment=say "hi"`, "-metadata", "novalue"})
	want := `-metadata comment="say \"hi\"" -metadata novalue`
	if got != want {
		t.Errorf("CommandLine() = %s, want %s", got, want)
	}
}
