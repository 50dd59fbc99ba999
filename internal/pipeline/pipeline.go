package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/groundcheck/internal/cache"
	"github.com/ppiankov/groundcheck/internal/embed"
	"github.com/ppiankov/groundcheck/internal/grounding"
	"github.com/ppiankov/groundcheck/internal/llm"
	"github.com/ppiankov/groundcheck/internal/logging"
	"github.com/ppiankov/groundcheck/internal/model"
	"github.com/ppiankov/groundcheck/internal/score"
	"github.com/ppiankov/groundcheck/internal/segment"
	"github.com/ppiankov/groundcheck/internal/transcript"
	"github.com/ppiankov/groundcheck/internal/worker"
)

// Capabilities are the external collaborators a pipeline consumes.
// Embedder is needed for citation and summary runs, QA for self-check runs.
// Chain-of-verification runs need both, and the QA client must also be an
// llm.Tasker.
type Capabilities struct {
	Source   transcript.Source
	Embedder embed.Provider
	QA       llm.QAClient
}

// Requirements lists which capabilities a run needs
type Requirements struct {
	Embedding bool
	QA        bool
}

// RequirementsFor returns the capabilities a mode uses
func RequirementsFor(mode model.Mode) Requirements {
	switch mode {
	case model.ModeCitation, model.ModeSummaryFilter:
		return Requirements{Embedding: true}
	case model.ModeSelfCheck, model.ModeSelfCheckReask:
		return Requirements{QA: true}
	default:
		return Requirements{Embedding: true, QA: true}
	}
}

// BuildCapabilities creates the configured adapters. A nil source is built
// from the transcript configuration.
func BuildCapabilities(ctx context.Context, cfg *model.Config, req Requirements, source transcript.Source) (Capabilities, error) {
	caps := Capabilities{Source: source}

	if caps.Source == nil {
		s, err := transcript.NewSource(cfg.Transcript, cfg.Proxy)
		if err != nil {
			return Capabilities{}, fmt.Errorf("transcript source: %w", err)
		}
		caps.Source = s
	}

	if req.Embedding {
		var memo cache.Cache
		if cfg.Cache.Enabled {
			memo = cache.New(cfg.Cache)
		}

		var limiter *worker.Limiter
		if cfg.Embedding.RequestsPerSecond > 0 {
			limiter = worker.NewLimiter(cfg.Embedding.RequestsPerSecond, cfg.Embedding.Burst)
		}

		embedder, err := embed.Build(ctx, cfg, memo, limiter)
		if err != nil {
			return Capabilities{}, fmt.Errorf("embedding provider: %w", err)
		}
		caps.Embedder = embedder
	}

	if req.QA {
		var limiter *worker.Limiter
		if cfg.LLM.RequestsPerSecond > 0 {
			limiter = worker.NewLimiter(cfg.LLM.RequestsPerSecond, cfg.LLM.Burst)
		}

		qa, err := llm.Build(cfg, caps.Source, limiter)
		if err != nil {
			return Capabilities{}, fmt.Errorf("QA client: %w", err)
		}
		caps.QA = qa
	}

	return caps, nil
}

// Pipeline orchestrates grounding runs over one transcript at a time.
// It holds no per-run state and may be shared across goroutines.
type Pipeline struct {
	source   transcript.Source
	embedder embed.Provider
	qa       llm.QAClient
	engine   *grounding.CitationEngine
	checker  *grounding.SelfChecker
	reasker  *grounding.Reasker
	verifier *grounding.ChainOfVerification
	scorer   *score.Scorer
	renderer *Renderer
	segOpts  segment.Options
	config   *model.Config
}

// New creates a pipeline over already built capabilities
func New(cfg *model.Config, caps Capabilities) *Pipeline {
	p := &Pipeline{
		source:   caps.Source,
		embedder: caps.Embedder,
		qa:       caps.QA,
		scorer:   score.NewScorer(),
		renderer: NewRenderer(),
		segOpts: segment.Options{
			ParagraphSize: cfg.Segmentation.ParagraphSize,
			WindowSize:    cfg.Segmentation.WindowSize,
		},
		config: cfg,
	}

	if caps.Embedder != nil {
		p.engine = grounding.NewCitationEngine(caps.Embedder, cfg.Thresholds, cfg.TopK)
	}
	if caps.QA != nil {
		p.checker = grounding.NewSelfChecker(caps.QA, qaModel(cfg))
		p.reasker = grounding.NewReasker(caps.QA, qaModel(cfg))
		if tasker, ok := caps.QA.(llm.Tasker); ok {
			p.verifier = grounding.NewChainOfVerification(tasker, qaModel(cfg), cfg.LLM.SummaryPrompt)
		}
	}

	return p
}

// NewPipeline validates the configuration and builds the capabilities a mode needs
func NewPipeline(ctx context.Context, cfg *model.Config, mode model.Mode) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	caps, err := BuildCapabilities(ctx, cfg, RequirementsFor(mode), nil)
	if err != nil {
		return nil, err
	}

	return New(cfg, caps), nil
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// LeMUR takes the model per request; chat providers are bound to theirs at construction
func qaModel(cfg *model.Config) string {
	switch cfg.LLM.Provider {
	case "lemur", "assemblyai":
		return cfg.LLM.Model
	}
	return ""
}

// Index fetches, segments and embeds a transcript
func (p *Pipeline) Index(ctx context.Context, transcriptID string) (*grounding.Index, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}

	text, err := p.source.Text(ctx, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("transcript %s: %w", transcriptID, err)
	}

	seg := segment.SegmentWith(text, p.segOpts)
	slog.DebugContext(ctx, "segmented transcript",
		"sentences", len(seg.Sentences),
		"paragraphs", len(seg.Paragraphs),
		"chunks", len(seg.Chunks))

	ix, err := grounding.BuildIndex(ctx, p.embedder, seg, p.config.Concurrency.EmbedParallel)
	if err != nil {
		return nil, fmt.Errorf("index transcript %s: %w", transcriptID, err)
	}
	return ix, nil
}

type indexFunc func() (*grounding.Index, error)

// CitationCheck grounds each claim against the transcript by embedding similarity
func (p *Pipeline) CitationCheck(ctx context.Context, claims []model.Claim, transcriptID string) ([]model.CitationResult, error) {
	return p.checkClaims(ctx, claims, func() (*grounding.Index, error) { return p.Index(ctx, transcriptID) })
}

func (p *Pipeline) checkClaims(ctx context.Context, claims []model.Claim, index indexFunc) ([]model.CitationResult, error) {
	ix, err := index()
	if err != nil {
		return nil, err
	}
	return p.engine.CheckClaims(ctx, claims, ix)
}

// LLMSelfCheck asks the LLM whether each claim is supported by the transcript
func (p *Pipeline) LLMSelfCheck(ctx context.Context, claims []model.Claim, transcriptID string) ([]model.SelfCheckVerdict, error) {
	if p.checker == nil {
		return nil, fmt.Errorf("no QA client configured")
	}
	return p.checker.Check(ctx, claims, transcriptID)
}

// SelfCheckWithReask self-checks the claims and regenerates failures once
func (p *Pipeline) SelfCheckWithReask(ctx context.Context, transcriptID string, claims []model.Claim) (grounding.ReaskResult, error) {
	result, _, err := p.checkAndReask(ctx, transcriptID, claims)
	return result, err
}

func (p *Pipeline) checkAndReask(ctx context.Context, transcriptID string, claims []model.Claim) (grounding.ReaskResult, []model.SelfCheckVerdict, error) {
	if p.checker == nil {
		return grounding.ReaskResult{}, nil, fmt.Errorf("no QA client configured")
	}
	return grounding.SelfCheckWithReask(ctx, p.checker, p.reasker, claims, transcriptID)
}

// FilterSummary drops summary sentences without textual support
func (p *Pipeline) FilterSummary(ctx context.Context, transcriptID, summary string) (grounding.SummaryResult, error) {
	return p.filterSummary(ctx, summary, func() (*grounding.Index, error) { return p.Index(ctx, transcriptID) })
}

func (p *Pipeline) filterSummary(ctx context.Context, summary string, index indexFunc) (grounding.SummaryResult, error) {
	ix, err := index()
	if err != nil {
		return grounding.SummaryResult{}, err
	}
	return grounding.FilterSummary(ctx, p.engine, summary, ix)
}

// VerifySummary runs the chain of verification. An empty initial summary is
// generated from the transcript first.
func (p *Pipeline) VerifySummary(ctx context.Context, transcriptID, initial string) (model.Verification, error) {
	if p.verifier == nil {
		return model.Verification{}, fmt.Errorf("QA client cannot run free-form tasks")
	}
	return p.verifier.Run(ctx, transcriptID, initial)
}

// RunInput is one grounding request
type RunInput struct {
	TranscriptID string
	Mode         model.Mode
	Claims       []model.Claim    // Answered claims to verify
	Questions    []model.Question // Answered first when Claims is empty
	Summary      string           // Checked sentence by sentence in summary and all modes; the initial summary in cov mode
}

// Run executes the strategies selected by the input mode and scores the result
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*model.Report, error) {
	if in.TranscriptID == "" {
		return nil, fmt.Errorf("transcript ID is required")
	}
	if _, ok := model.ParseMode(string(in.Mode)); !ok {
		return nil, fmt.Errorf("unknown mode: %q", in.Mode)
	}

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}
	ctx = logging.WithTranscriptID(ctx, in.TranscriptID)

	report := &model.Report{
		RunID:        runID,
		TranscriptID: in.TranscriptID,
		Mode:         in.Mode,
		StartedAt:    time.Now().UTC(),
		Thresholds:   p.config.Thresholds,
		Claims:       in.Claims,
	}

	switch {
	case in.Mode == model.ModeVerifySummary:
		// the summary to check comes out of the chain
	case in.Mode == model.ModeSummaryFilter:
		if in.Summary == "" {
			return nil, fmt.Errorf("summary mode needs a summary")
		}
	case len(report.Claims) == 0:
		switch {
		case len(in.Questions) > 0:
			claims, err := p.Answer(ctx, in.TranscriptID, in.Questions)
			if err != nil {
				return nil, fmt.Errorf("answer questions: %w", err)
			}
			report.Claims = claims
		case in.Summary == "" || in.Mode != model.ModeCitationAndSelf:
			return nil, fmt.Errorf("no claims or questions to check")
		}
	}

	slog.InfoContext(ctx, "grounding run started", "mode", in.Mode, "claims", len(report.Claims))

	// Citation and summary checks in one run share a single embedded index
	var ix *grounding.Index
	index := func() (*grounding.Index, error) {
		if ix != nil {
			return ix, nil
		}
		var err error
		ix, err = p.Index(ctx, in.TranscriptID)
		return ix, err
	}

	if in.Mode == model.ModeCitation || in.Mode == model.ModeCitationAndSelf {
		citations, err := p.checkClaims(ctx, report.Claims, index)
		if err != nil {
			return nil, fmt.Errorf("citation check: %w", err)
		}
		report.Citations = citations
	}

	switch in.Mode {
	case model.ModeSelfCheck:
		verdicts, err := p.LLMSelfCheck(ctx, report.Claims, in.TranscriptID)
		if err != nil {
			return nil, fmt.Errorf("self-check: %w", err)
		}
		report.Verdicts = verdicts

	case model.ModeSelfCheckReask, model.ModeCitationAndSelf:
		result, verdicts, err := p.checkAndReask(ctx, in.TranscriptID, report.Claims)
		if err != nil {
			return nil, fmt.Errorf("self-check with re-ask: %w", err)
		}
		report.Verdicts = verdicts
		report.FinalClaims = result.Claims
		report.Reasked = result.Reasked
	}

	summary := in.Summary
	if in.Mode == model.ModeVerifySummary {
		v, err := p.VerifySummary(ctx, in.TranscriptID, in.Summary)
		if err != nil {
			return nil, fmt.Errorf("chain of verification: %w", err)
		}
		report.Verification = &v
		summary = v.FinalSummary
	}

	if summary != "" && (in.Mode == model.ModeSummaryFilter || in.Mode == model.ModeCitationAndSelf || in.Mode == model.ModeVerifySummary) {
		result, err := p.filterSummary(ctx, summary, index)
		if err != nil {
			return nil, fmt.Errorf("summary filter: %w", err)
		}
		report.Summary = &model.SummaryFilter{
			Original: summary,
			Filtered: result.Text(),
			Kept:     result.Kept,
			Dropped:  result.Filtered,
		}
		if in.Mode != model.ModeCitationAndSelf {
			report.Citations = result.Results
		}
	}

	report.Score = p.scorer.Calculate(report)
	report.FinishedAt = time.Now().UTC()

	slog.InfoContext(ctx, "grounding run finished",
		"grounded_ratio", report.Score.GroundedRatio,
		"self_check_rate", report.Score.SelfCheckRate,
		"duration", report.FinishedAt.Sub(report.StartedAt))

	return report, nil
}
