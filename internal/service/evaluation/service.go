package evaluation

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/davidleathers/credit-risk-engine/internal/domain/applicant"
	"github.com/davidleathers/credit-risk-engine/internal/domain/errors"
	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
	"github.com/davidleathers/credit-risk-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/credit-risk-engine/internal/metrics"
	"github.com/davidleathers/credit-risk-engine/internal/service/labor"
	"github.com/davidleathers/credit-risk-engine/internal/service/narrative"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

// Service runs a case through the full pipeline: pattern detection,
// deduction scoring, confidence estimation, the decision matrix, and
// narrative assembly. It holds no per-case state and is safe for concurrent
// use.
type Service struct {
	detector  *ledger.Detector
	engine    *scoring.Engine
	estimator *underwriting.Estimator
	matrix    *underwriting.Matrix
	labor     *labor.Calculator

	validate *validator.Validate
	logger   *slog.Logger
	registry *metrics.Registry
	tracer   trace.Tracer
}

// NewService creates an evaluation service. The metrics registry may be nil,
// in which case no metrics are recorded.
func NewService(
	detector *ledger.Detector,
	engine *scoring.Engine,
	estimator *underwriting.Estimator,
	matrix *underwriting.Matrix,
	logger *slog.Logger,
	registry *metrics.Registry,
) *Service {
	return &Service{
		detector:  detector,
		engine:    engine,
		estimator: estimator,
		matrix:    matrix,
		labor:     labor.NewCalculator(),
		validate:  validator.New(),
		logger:    logger,
		registry:  registry,
		tracer:    telemetry.Tracer("evaluation"),
	}
}

// Evaluate runs one case end to end. The same request always produces the
// same result.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "evaluation.Evaluate",
		trace.WithAttributes(attribute.String("case_id", req.CaseID.String())))
	defer span.End()

	result, err := s.evaluate(ctx, req)

	if s.registry != nil {
		s.registry.RecordEvaluation(ctx, float64(time.Since(start).Microseconds())/1000.0, err == nil)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.WithContext(ctx, s.logger).Error("evaluation failed",
			"case_id", req.CaseID, "error", err)
		return nil, err
	}

	telemetry.WithContext(ctx, s.logger).Info("case evaluated",
		"case_id", req.CaseID,
		"score", result.Score.FinalScore,
		"band", string(result.Score.Band),
		"confidence", result.Confidence.Score,
		"verdict", string(result.Decision.Verdict),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewValidationError("INVALID_REQUEST", "request failed validation").WithCause(err)
	}
	if err := req.Loan.Validate(); err != nil {
		return nil, err
	}

	// Pattern detection over the transaction ledger.
	deposits := salaryDepositAmounts(req.Ledger)
	findings := s.detector.DetectAll(req.Ledger, req.Profile.DeclaredSalary, deposits)
	s.recordFindings(ctx, findings)

	// Net income: mean of observed salary deposits when present, the
	// declared salary otherwise.
	netIncome, observedSalary := resolveNetIncome(req, deposits)

	severance, err := s.resolveSeverance(req, netIncome)
	if err != nil {
		return nil, err
	}

	score, err := s.engine.Score(scoring.Input{
		Profile:                req.Profile,
		Loan:                   req.Loan,
		Bureau:                 req.Bureau,
		Findings:               findings,
		NetIncome:              netIncome,
		MonthlyExpenses:        monthlyExpenses(req.Profile),
		Severance:              severance,
		InterviewInconsistency: req.InterviewInconsistency,
		LocationMismatch:       req.LocationMismatch,
		AsOf:                   req.AsOf,
	})
	if err != nil {
		return nil, err
	}
	s.recordDeductions(ctx, score)

	signals := req.Signals
	signals.DeclaredSalary = req.Profile.DeclaredSalary
	if observedSalary != nil {
		signals.ObservedSalary = *observedSalary
		signals.HasDetectedSalary = true
	}
	signals.HasAccountData = !req.Ledger.IsEmpty()
	signals.HasBureauScore = req.Bureau != nil
	signals.HasEmploymentDate = req.Profile.EmploymentStartDate != nil
	signals.DeductionCount = len(score.Deductions)

	confidence := s.estimator.Estimate(signals)

	capacity := s.resolveCapacity(req, netIncome)
	decision, err := s.matrix.Decide(score, confidence, req.Loan, capacity)
	if err != nil {
		return nil, err
	}
	s.recordDecision(ctx, req, decision, score, confidence)

	lang := req.Language
	if lang == "" {
		lang = narrative.LanguageSpanish
	}
	text := narrative.NewAssembler(lang).Assemble(req.Profile.FullName, score, decision)

	return &Result{
		CaseID:     req.CaseID,
		AsOf:       req.AsOf,
		Findings:   findings,
		Score:      score,
		Confidence: confidence,
		Decision:   decision,
		Narrative:  text,
	}, nil
}

// resolveSeverance prefers the externally supplied amount; otherwise it
// computes the statutory entitlement from tenure when the employment start
// date is known. With neither, the severance rules simply do not apply.
func (s *Service) resolveSeverance(req Request, netIncome decimal.Decimal) (*values.Money, error) {
	if req.Severance != nil {
		return req.Severance, nil
	}
	if req.Profile.EmploymentStartDate == nil {
		return nil, nil
	}

	monthly := req.Profile.DeclaredSalary
	if !monthly.IsPositive() && netIncome.IsPositive() {
		monthly = values.MustNewMoney(netIncome, req.Loan.Amount.Currency())
	}
	if !monthly.IsPositive() {
		return nil, nil
	}

	ent, err := s.labor.Entitlement(*req.Profile.EmploymentStartDate, req.AsOf, monthly)
	if err != nil {
		return nil, err
	}
	total := ent.Total
	return &total, nil
}

// resolveCapacity derives free monthly cash for counter-offers when the
// caller did not supply it: net income minus expenses, floored at zero.
func (s *Service) resolveCapacity(req Request, netIncome decimal.Decimal) values.Money {
	currency := req.Loan.Amount.Currency()
	if req.PaymentCapacity != nil {
		return *req.PaymentCapacity
	}
	if !netIncome.IsPositive() {
		return values.Zero(currency)
	}

	expenses := netIncome.Mul(s.engine.Policy().EstimatedExpenseRatio)
	if req.Profile.MonthlyExpenses != nil {
		expenses = req.Profile.MonthlyExpenses.Amount()
	}

	free := netIncome.Sub(expenses)
	if free.IsNegative() {
		return values.Zero(currency)
	}
	return values.MustNewMoney(free, currency)
}

func (s *Service) recordFindings(ctx context.Context, findings ledger.Findings) {
	if s.registry == nil {
		return
	}
	for _, f := range findings.Detected() {
		s.registry.RecordFinding(ctx, string(f.Pattern), f.Severity.String())
	}
}

func (s *Service) recordDeductions(ctx context.Context, score *scoring.Result) {
	if s.registry == nil {
		return
	}
	for _, d := range score.Deductions {
		s.registry.RecordDeduction(ctx, d.Variable.Letter(), d.RuleID, d.Points)
	}
}

func (s *Service) recordDecision(ctx context.Context, req Request, d underwriting.Decision, score *scoring.Result, confidence underwriting.ConfidenceResult) {
	if s.registry == nil {
		return
	}

	s.registry.RecordScore(ctx, score.FinalScore, confidence.Score, string(score.Band))

	ratio := 0.0
	if d.SuggestedAmount != nil && req.Loan.Amount.IsPositive() {
		ratio, _ = d.SuggestedAmount.Ratio(req.Loan.Amount).Float64()
	}
	s.registry.RecordDecision(ctx, string(d.Verdict), string(d.Band), ratio)
}

// salaryDepositAmounts extracts the amounts of salary-category credits in
// ledger order.
func salaryDepositAmounts(l ledger.Ledger) []values.Money {
	txns := l.SalaryDeposits()
	out := make([]values.Money, 0, len(txns))
	for _, t := range txns {
		out = append(out, t.Amount)
	}
	return out
}

// resolveNetIncome returns the monthly net income as a decimal plus, when
// salary deposits were observed, their mean as Money for cross-validation.
func resolveNetIncome(req Request, deposits []values.Money) (decimal.Decimal, *values.Money) {
	if len(deposits) == 0 {
		return req.Profile.DeclaredSalary.Amount(), nil
	}

	sum := decimal.Zero
	for _, d := range deposits {
		sum = sum.Add(d.Amount())
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(deposits))))

	observed := values.MustNewMoney(mean, deposits[0].Currency())
	return mean, &observed
}

func monthlyExpenses(p applicant.Profile) *decimal.Decimal {
	if p.MonthlyExpenses == nil {
		return nil
	}
	amt := p.MonthlyExpenses.Amount()
	return &amt
}
