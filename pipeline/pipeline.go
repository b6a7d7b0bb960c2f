// Package pipeline composes the extraction stages for one project page:
// raw extraction, canonical mapping, quality normalization/validation,
// and — when a browser page is supplied — preview artifact capture.
//
// The sync stages are pure functions over in-memory data, so many
// projects can be processed in parallel; ProcessAll fans out over a
// bounded worker pool. Capture stays sequential within a project (the
// legacy site is postback-driven) but parallel across projects when
// each input carries its own page.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openrera/rerapipe/capture"
	"github.com/openrera/rerapipe/extract"
	"github.com/openrera/rerapipe/mapper"
	"github.com/openrera/rerapipe/quality"
	"github.com/openrera/rerapipe/schema"
	"github.com/openrera/rerapipe/taxonomy"
)

// Config configures the pipeline engine.
type Config struct {
	// Taxonomy is the canonical mapping resource. Required; its absence
	// is the one fatal process-start condition.
	Taxonomy *taxonomy.Taxonomy

	// Capturer resolves preview placeholders. Optional: offline runs
	// (QA over saved HTML) leave it nil and placeholders stay
	// unresolved in the output.
	Capturer *capture.Capturer

	// OutputDir receives the JSON output artifacts when set.
	OutputDir string

	// Workers bounds ProcessAll parallelism. Default: 4.
	Workers int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the per-process engine. Safe for concurrent use; the
// taxonomy it holds is immutable.
type Pipeline struct {
	cfg    Config
	mapper *mapper.Mapper
	logger *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()
	m, err := mapper.New(mapper.Config{Taxonomy: cfg.Taxonomy, Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{cfg: cfg, mapper: m, logger: cfg.Logger}, nil
}

// Input is one project page to process.
type Input struct {
	// SourceID is the logical run key for this page.
	SourceID string
	// HTML is the raw page text.
	HTML string
	// Hints come from the upstream listing page; they fill blanks only.
	Hints mapper.Hints
	// Page is the authenticated browser handle for artifact capture.
	// Nil skips capture.
	Page capture.Page
}

// Result carries everything one page produced. Partial data is always
// better than no data: every successfully extracted field is present
// even when capture failed.
type Result struct {
	SourceID   string
	Raw        *schema.RawExtractedProject
	Project    *schema.CanonicalProject
	Validation []string
	Err        error
}

// Process runs the stages for one page. The returned error is fatal
// (unparseable document, unusable page handle); per-field and
// per-artifact problems degrade inside the result instead.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Result, error) {
	res := &Result{SourceID: in.SourceID}

	raw, err := extract.Extract(in.HTML, in.SourceID)
	if err != nil {
		return nil, err
	}
	res.Raw = raw

	proj := p.mapper.Map(raw, in.Hints)

	if in.Page != nil && p.cfg.Capturer != nil && len(proj.Previews) > 0 {
		arts, err := p.cfg.Capturer.Capture(ctx, in.Page, proj.Previews)
		if err != nil {
			// Page handle broke mid-project. Hand back what extraction
			// already produced; the orchestrator decides whether to
			// resubmit the project.
			res.Project = quality.Normalize(proj)
			res.Validation = quality.Validate(res.Project)
			res.Err = err
			return res, err
		}
		proj.Previews = arts
	}

	res.Project = quality.Normalize(proj)
	res.Validation = quality.Validate(res.Project)

	p.logger.Debug("pipeline: processed page",
		"source", in.SourceID,
		"fields", raw.FieldCount(),
		"previews", len(res.Project.Previews),
		"validation", len(res.Validation))

	if p.cfg.OutputDir != "" {
		if err := p.WriteArtifacts(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ProcessAll fans inputs out over the worker pool. Per-input failures
// land in Result.Err; the slice always has one entry per input, in
// input order.
func (p *Pipeline) ProcessAll(ctx context.Context, inputs []Input) []*Result {
	results := make([]*Result, len(inputs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := p.Process(ctx, inputs[i])
				if res == nil {
					res = &Result{SourceID: inputs[i].SourceID}
				}
				res.Err = err
				results[i] = res
			}
		}()
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i, r := range results {
		if r == nil {
			results[i] = &Result{SourceID: inputs[i].SourceID, Err: ctx.Err()}
		}
	}
	return results
}
