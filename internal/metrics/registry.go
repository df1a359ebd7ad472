package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the engine
type Registry struct {
	meter metric.Meter

	// Evaluation Metrics
	EvaluationDuration       metric.Float64Histogram
	EvaluationSuccessCounter metric.Int64Counter
	EvaluationFailureCounter metric.Int64Counter

	// Scoring Metrics
	ScoreHistogram      metric.Int64Histogram
	DeductionCounter    metric.Int64Counter
	ConfidenceHistogram metric.Float64Histogram

	// Detection Metrics
	FindingCounter metric.Int64Counter

	// Decision Metrics
	DecisionCounter     metric.Int64Counter
	SuggestedAmountDrop metric.Float64Histogram
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{
		meter: otel.Meter(meterName),
	}

	if err := r.initEvaluationMetrics(); err != nil {
		return nil, err
	}

	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initDecisionMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) initEvaluationMetrics() error {
	var err error

	r.EvaluationDuration, err = r.meter.Float64Histogram(
		"cre.evaluation.duration",
		metric.WithDescription("End-to-end case evaluation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return err
	}

	r.EvaluationSuccessCounter, err = r.meter.Int64Counter(
		"cre.evaluation.success_total",
		metric.WithDescription("Total number of evaluations completed"),
	)
	if err != nil {
		return err
	}

	r.EvaluationFailureCounter, err = r.meter.Int64Counter(
		"cre.evaluation.failure_total",
		metric.WithDescription("Total number of evaluations that returned an error"),
	)

	return err
}

func (r *Registry) initScoringMetrics() error {
	var err error

	r.ScoreHistogram, err = r.meter.Int64Histogram(
		"cre.scoring.final_score",
		metric.WithDescription("Distribution of final risk scores"),
		metric.WithExplicitBucketBoundaries(0, 10, 20, 30, 40, 50, 60, 70, 85, 100),
	)
	if err != nil {
		return err
	}

	r.DeductionCounter, err = r.meter.Int64Counter(
		"cre.scoring.deduction_total",
		metric.WithDescription("Total deductions applied, by variable and rule"),
	)
	if err != nil {
		return err
	}

	r.ConfidenceHistogram, err = r.meter.Float64Histogram(
		"cre.scoring.confidence",
		metric.WithDescription("Distribution of confidence levels"),
		metric.WithExplicitBucketBoundaries(0.30, 0.40, 0.50, 0.60, 0.70, 0.80, 0.85, 0.90, 1.0),
	)
	if err != nil {
		return err
	}

	r.FindingCounter, err = r.meter.Int64Counter(
		"cre.detection.finding_total",
		metric.WithDescription("Total suspicious patterns detected, by pattern and severity"),
	)

	return err
}

func (r *Registry) initDecisionMetrics() error {
	var err error

	r.DecisionCounter, err = r.meter.Int64Counter(
		"cre.decision.total",
		metric.WithDescription("Total decisions issued, by verdict and risk band"),
	)
	if err != nil {
		return err
	}

	r.SuggestedAmountDrop, err = r.meter.Float64Histogram(
		"cre.decision.suggested_amount_ratio",
		metric.WithDescription("Suggested amount as a fraction of the requested amount"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 0.75, 1.0, 1.5, 2.0),
	)

	return err
}

// RecordEvaluation records evaluation outcome metrics
func (r *Registry) RecordEvaluation(ctx context.Context, durationMS float64, success bool) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}

	r.EvaluationDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))

	if success {
		r.EvaluationSuccessCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		r.EvaluationFailureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordScore records the final score and confidence for a completed case
func (r *Registry) RecordScore(ctx context.Context, score int, confidence float64, band string) {
	attrs := []attribute.KeyValue{
		attribute.String("band", band),
	}

	r.ScoreHistogram.Record(ctx, int64(score), metric.WithAttributes(attrs...))
	r.ConfidenceHistogram.Record(ctx, confidence, metric.WithAttributes(attrs...))
}

// RecordDeduction records a single applied deduction
func (r *Registry) RecordDeduction(ctx context.Context, variable, ruleID string, points int) {
	r.DeductionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variable", variable),
		attribute.String("rule_id", ruleID),
		attribute.Int("points", points),
	))
}

// RecordFinding records a detected suspicious pattern
func (r *Registry) RecordFinding(ctx context.Context, pattern, severity string) {
	r.FindingCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pattern", pattern),
		attribute.String("severity", severity),
	))
}

// RecordDecision records the issued verdict
func (r *Registry) RecordDecision(ctx context.Context, verdict, band string, suggestedRatio float64) {
	attrs := []attribute.KeyValue{
		attribute.String("verdict", verdict),
		attribute.String("band", band),
	}

	r.DecisionCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	if suggestedRatio > 0 {
		r.SuggestedAmountDrop.Record(ctx, suggestedRatio, metric.WithAttributes(attrs...))
	}
}
