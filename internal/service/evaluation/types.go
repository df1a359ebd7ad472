package evaluation

import (
	"time"

	"github.com/google/uuid"

	"github.com/davidleathers/credit-risk-engine/internal/domain/applicant"
	"github.com/davidleathers/credit-risk-engine/internal/domain/ledger"
	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/domain/values"
	"github.com/davidleathers/credit-risk-engine/internal/service/narrative"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

// Request is one complete case submitted for evaluation. Optional facts are
// pointers; a missing fact degrades confidence, never the risk score.
type Request struct {
	CaseID uuid.UUID `json:"case_id" validate:"required"`

	// AsOf anchors every date computation in the evaluation. The engine
	// never reads the wall clock, so re-running a case reproduces the
	// original result exactly.
	AsOf time.Time `json:"as_of" validate:"required"`

	Profile applicant.Profile       `json:"profile"`
	Loan    applicant.LoanRequest   `json:"loan"`
	Bureau  *applicant.BureauRecord `json:"bureau,omitempty"`
	Ledger  ledger.Ledger           `json:"ledger"`

	// Severance overrides the internally computed labor-benefit amount.
	// When nil and the employment start date is known, the statutory
	// entitlement is computed from tenure.
	Severance *values.Money `json:"severance,omitempty"`

	// PaymentCapacity overrides the derived free monthly cash used for
	// counter-offers. When nil it is net income minus expenses.
	PaymentCapacity *values.Money `json:"payment_capacity,omitempty"`

	Signals underwriting.DataQualitySignals `json:"signals"`

	InterviewInconsistency bool `json:"interview_inconsistency"`
	LocationMismatch       bool `json:"location_mismatch"`

	Language narrative.Language `json:"language,omitempty"`
}

// Result is the full evaluation output: findings, score with its audit
// trail, confidence breakdown, decision, and the analyst narrative.
type Result struct {
	CaseID uuid.UUID `json:"case_id"`
	AsOf   time.Time `json:"as_of"`

	Findings   ledger.Findings               `json:"findings"`
	Score      *scoring.Result               `json:"score"`
	Confidence underwriting.ConfidenceResult `json:"confidence"`
	Decision   underwriting.Decision         `json:"decision"`
	Narrative  string                        `json:"narrative"`
}
