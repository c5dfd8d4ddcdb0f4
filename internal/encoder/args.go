package encoder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"webmc/internal/model"
	"webmc/internal/quality"
)

const (
	// OutputExt is the container extension every job produces.
	OutputExt = "webm"
	// DefaultComment is written into the comment metadata tag.
	DefaultComment = "sayonara"

	// dateLayout matches the millisecond ISO form ffmpeg accepts for creation_time.
	dateLayout = "2006-01-02T15:04:05.000Z"
)

// Params carries everything the assembler needs for one job. Target holds the
// effective dimensions: post-scaling when Scale is set, otherwise the source's.
type Params struct {
	SourcePath    string
	OutputPath    string
	Target        model.Dimensions
	Scale         bool
	Settings      quality.Settings
	Date          time.Time // zero means now
	Comment       string    // empty means DefaultComment
	Extra         model.ExtraArgs
	PassLogPrefix string
}

// Passes holds the two ffmpeg argument lists of a job.
type Passes struct {
	First  []string
	Second []string
}

// Assemble builds the pass-1 and pass-2 argument lists. The result depends
// only on p, so equal params yield identical lists.
func Assemble(p Params) Passes {
	s := p.Settings

	core := []string{
		"-i", p.SourcePath,
		"-c:v", "libvpx-vp9",
	}
	if p.Scale {
		core = append(core, "-vf", fmt.Sprintf("scale=%dx%d", p.Target.Width, p.Target.Height))
	}
	core = append(core,
		"-b:v", kbps(s.Bitrate.Avg),
		"-minrate", kbps(s.Bitrate.Min),
		"-maxrate", kbps(s.Bitrate.Max),
		"-tile-columns", strconv.Itoa(s.TileColumns),
		"-threads", strconv.Itoa(s.Threads),
		"-g", strconv.Itoa(quality.GOP),
		"-quality", "good",
		"-crf", strconv.Itoa(s.CRF),
	)

	first := make([]string, 0, len(core)+16)
	first = append(first, "-loglevel", "error")
	first = append(first, core...)
	first = append(first, "-speed", strconv.Itoa(s.FirstPassSpeed), "-an")
	first = append(first, p.Extra.Both...)
	first = append(first, p.Extra.First...)

	second := make([]string, 0, len(core)+24)
	second = append(second, "-loglevel", "error", "-progress", "-")
	second = append(second, core...)
	second = append(second, "-speed", strconv.Itoa(s.SecondPassSpeed), "-c:a", "libopus")
	second = append(second, p.Extra.Both...)
	second = append(second, p.Extra.Second...)

	if p.PassLogPrefix != "" {
		first = append(first, "-passlogfile", p.PassLogPrefix)
		second = append(second, "-passlogfile", p.PassLogPrefix)
	}

	first = append(first, "-pass", "1", "-f", "null", os.DevNull)

	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}
	comment := p.Comment
	if comment == "" {
		comment = DefaultComment
	}
	second = append(second,
		"-pass", "2",
		"-metadata", "creation_time="+date.UTC().Format(dateLayout),
		"-metadata", "comment="+comment,
		"-y", p.OutputPath,
	)

	return Passes{First: first, Second: second}
}

func kbps(v int) string { return strconv.Itoa(v) + "k" }

// CommandLine flattens args into the single-line form shown to users. Paths
// after -i and -y and metadata values are wrapped in double quotes with
// embedded quotes escaped; the argument list itself is never altered.
func CommandLine(args []string) string {
	out := make([]string, len(args))
	for i, a := range args {
		prev := ""
		if i > 0 {
			prev = args[i-1]
		}
		switch prev {
		case "-i", "-y":
			out[i] = dquote(a)
		case "-metadata":
			if k, v, ok := strings.Cut(a, "="); ok {
				out[i] = k + "=" + dquote(v)
			} else {
				out[i] = a
			}
		default:
			out[i] = a
		}
	}
	return strings.Join(out, " ")
}

func dquote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
