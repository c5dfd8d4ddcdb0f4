package pipeline

import (
	"fmt"
	"time"

	"webmc/internal/encoder"
	"webmc/internal/model"
	"webmc/internal/quality"
	"webmc/internal/util/media"
)

// Plan is the fully resolved encode of one job.
type Plan struct {
	JobID      string
	SourcePath string
	OutputPath string
	Source     model.Metadata
	Target     model.Dimensions // effective dimensions the settings were derived from
	Scaled     bool
	Upscale    bool
	Settings   quality.Settings
	Passes     encoder.Passes
}

// PlanOptions carries the per-invocation inputs of BuildPlan that are not part
// of the job.
type PlanOptions struct {
	Date          time.Time
	Comment       string
	PassLogPrefix string
}

// BuildPlan resolves the effective dimensions of job against the probed
// source, derives the quality settings from them and assembles both passes.
// Scaling is only computed when the job asks for it.
func BuildPlan(job model.Job, md model.Metadata, opts PlanOptions) (Plan, error) {
	if err := job.Scale.Validate(); err != nil {
		return Plan{}, err
	}

	source := model.Dimensions{Width: md.Width, Height: md.Height}
	target := source
	if job.Scale.Enabled {
		var err error
		target, err = media.Scale(source, model.Dimensions{Width: job.Scale.Width, Height: job.Scale.Height})
		if err != nil {
			return Plan{}, fmt.Errorf("scale %s: %w", job.SourcePath, err)
		}
	}

	out := job.OutputPath
	if out == "" {
		out = media.OutputName(job.SourcePath, encoder.OutputExt)
	}

	settings := quality.Derive(target.Height, target.Width, md.FPS)
	passes := encoder.Assemble(encoder.Params{
		SourcePath:    job.SourcePath,
		OutputPath:    out,
		Target:        target,
		Scale:         job.Scale.Enabled,
		Settings:      settings,
		Date:          opts.Date,
		Comment:       opts.Comment,
		Extra:         job.Extra,
		PassLogPrefix: opts.PassLogPrefix,
	})

	return Plan{
		JobID:      job.ID,
		SourcePath: job.SourcePath,
		OutputPath: out,
		Source:     md,
		Target:     target,
		Scaled:     job.Scale.Enabled,
		Upscale:    job.Scale.Enabled && media.IsUpscale(source, target),
		Settings:   settings,
		Passes:     passes,
	}, nil
}
