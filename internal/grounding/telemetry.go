package grounding

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/groundcheck/internal/model"
)

// Package-level tracer and meter; no-op unless the host installs providers.
var (
	tracer = otel.Tracer("groundcheck.grounding")
	meter  = otel.Meter("groundcheck.grounding")
)

var (
	claimsEvaluated     metric.Int64Counter
	claimsGrounded      metric.Int64Counter
	degenerateClaims    metric.Int64Counter
	verdictsTotal       metric.Int64Counter
	reasksTotal         metric.Int64Counter
	similarityHistogram metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		if claimsEvaluated, err = meter.Int64Counter(
			"grounding_claims_evaluated_total",
			metric.WithDescription("Claims scored by the citation engine"),
		); err != nil {
			metricsErr = err
			return
		}

		if claimsGrounded, err = meter.Int64Counter(
			"grounding_claims_grounded_total",
			metric.WithDescription("Claims passing the citation check by selected granularity"),
		); err != nil {
			metricsErr = err
			return
		}

		if degenerateClaims, err = meter.Int64Counter(
			"grounding_degenerate_claims_total",
			metric.WithDescription("Claims that could not be scored"),
		); err != nil {
			metricsErr = err
			return
		}

		if verdictsTotal, err = meter.Int64Counter(
			"grounding_self_check_verdicts_total",
			metric.WithDescription("Self-check verdicts by outcome"),
		); err != nil {
			metricsErr = err
			return
		}

		if reasksTotal, err = meter.Int64Counter(
			"grounding_reasked_claims_total",
			metric.WithDescription("Claims regenerated by the re-ask round"),
		); err != nil {
			metricsErr = err
			return
		}

		similarityHistogram, err = meter.Float64Histogram(
			"grounding_best_similarity",
			metric.WithDescription("Best similarity per claim and granularity"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func recordCitation(ctx context.Context, result model.CitationResult, best map[model.Granularity]float64) {
	if err := initMetrics(); err != nil {
		return
	}

	claimsEvaluated.Add(ctx, 1)
	for g, sim := range best {
		similarityHistogram.Record(ctx, sim, metric.WithAttributes(attribute.String("granularity", string(g))))
	}
	if result.GroundingThresholdPassed {
		selected := string(result.Citation.Granularity)
		if selected == "" {
			selected = "none"
		}
		claimsGrounded.Add(ctx, 1, metric.WithAttributes(attribute.String("granularity", selected)))
	}
}

func recordDegenerate(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	claimsEvaluated.Add(ctx, 1)
	degenerateClaims.Add(ctx, 1)
}

func recordVerdicts(ctx context.Context, verdicts []model.SelfCheckVerdict) {
	if err := initMetrics(); err != nil {
		return
	}

	for _, v := range verdicts {
		outcome := "no"
		switch {
		case v.Malformed:
			outcome = "malformed"
		case v.GroundingThresholdPassed:
			outcome = "yes"
		}
		verdictsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func recordReask(ctx context.Context, count int) {
	if err := initMetrics(); err != nil {
		return
	}
	reasksTotal.Add(ctx, int64(count))
}
