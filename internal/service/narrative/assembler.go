package narrative

import (
	"fmt"
	"strings"

	"github.com/davidleathers/credit-risk-engine/internal/domain/scoring"
	"github.com/davidleathers/credit-risk-engine/internal/service/underwriting"
)

// Language selects the narrative language
type Language string

const (
	LanguageSpanish Language = "es"
	LanguageEnglish Language = "en"
)

type templates struct {
	summary          string
	breakdownHeader  string
	breakdownItem    string
	deductionsHeader string
	deductionItem    string
	noDeductions     string
	approve          string
	review           string
	reject           string
	suggestedAmount  string
	variableNames    map[scoring.Variable]string
	bands            map[scoring.RiskBand]string
}

var templatesES = templates{
	summary:          "El solicitante %s presenta un perfil de riesgo %s con un score de %d/100.",
	breakdownHeader:  "\n## Desglose por Variable\n",
	breakdownItem:    "- **Variable %s (%s):** %d/%d puntos",
	deductionsHeader: "\n## Deducciones Aplicadas\n",
	deductionItem:    "- **%s** (%s): %s -> **-%d puntos**",
	noDeductions:     "\nNo se aplicaron deducciones. Perfil financiero excelente.",
	approve:          "\n## Recomendacion\n\n**APROBAR** - El perfil cumple con los criterios de riesgo aceptable. Score de %d/100 indica riesgo %s.",
	review:           "\n## Recomendacion\n\n**REVISION MANUAL** - El perfil presenta riesgo %s. Se recomienda revision por analista senior.",
	reject:           "\n## Recomendacion\n\n**RECHAZAR** - El perfil presenta riesgo %s con score de %d/100.",
	suggestedAmount:  "\nMonto sugerido: %s (plazo sin cambios).",
	variableNames: map[scoring.Variable]string{
		scoring.VariableCreditHistory:   "Historial Crediticio",
		scoring.VariablePaymentCapacity: "Capacidad de Pago",
		scoring.VariableStability:       "Estabilidad",
		scoring.VariableCollateral:      "Garantia",
		scoring.VariablePaymentMorality: "Moral de Pago",
	},
	bands: map[scoring.RiskBand]string{
		scoring.RiskBandLow:      "BAJO",
		scoring.RiskBandMedium:   "MEDIO",
		scoring.RiskBandHigh:     "ALTO",
		scoring.RiskBandCritical: "CRITICO",
	},
}

var templatesEN = templates{
	summary:          "Applicant %s presents a %s risk profile with a score of %d/100.",
	breakdownHeader:  "\n## Score Breakdown\n",
	breakdownItem:    "- **Variable %s (%s):** %d/%d points",
	deductionsHeader: "\n## Deductions Applied\n",
	deductionItem:    "- **%s** (%s): %s -> **-%d points**",
	noDeductions:     "\nNo deductions applied. Excellent financial profile.",
	approve:          "\n## Recommendation\n\n**APPROVE** - Profile meets acceptable risk criteria. Score of %d/100 indicates %s risk.",
	review:           "\n## Recommendation\n\n**MANUAL REVIEW** - Profile presents %s risk. Senior analyst review recommended.",
	reject:           "\n## Recommendation\n\n**REJECT** - Profile presents %s risk with a score of %d/100.",
	suggestedAmount:  "\nSuggested amount: %s (term unchanged).",
	variableNames: map[scoring.Variable]string{
		scoring.VariableCreditHistory:   "Credit History",
		scoring.VariablePaymentCapacity: "Payment Capacity",
		scoring.VariableStability:       "Stability",
		scoring.VariableCollateral:      "Collateral",
		scoring.VariablePaymentMorality: "Payment Morality",
	},
	bands: map[scoring.RiskBand]string{
		scoring.RiskBandLow:      "LOW",
		scoring.RiskBandMedium:   "MEDIUM",
		scoring.RiskBandHigh:     "HIGH",
		scoring.RiskBandCritical: "CRITICAL",
	},
}

// Assembler renders score and decision results into a human-readable report
// by pure template assembly. No text generation beyond formatting.
type Assembler struct {
	tpl templates
}

// NewAssembler creates an assembler for the given language, defaulting to
// Spanish.
func NewAssembler(lang Language) *Assembler {
	if lang == LanguageEnglish {
		return &Assembler{tpl: templatesEN}
	}
	return &Assembler{tpl: templatesES}
}

// Assemble renders the full report: executive summary, per-variable
// breakdown, deduction citations, and recommendation.
func (a *Assembler) Assemble(applicantName string, score *scoring.Result, decision underwriting.Decision) string {
	var b strings.Builder

	fmt.Fprintf(&b, a.tpl.summary, applicantName, a.tpl.bands[score.Band], score.FinalScore)
	b.WriteString("\n")

	b.WriteString(a.tpl.breakdownHeader)
	for _, v := range scoring.VariableOrder {
		fmt.Fprintf(&b, a.tpl.breakdownItem, v.Letter(), a.tpl.variableNames[v], score.Breakdown.ForVariable(v), v.MaxPoints())
		b.WriteString("\n")
	}

	if len(score.Deductions) == 0 {
		b.WriteString(a.tpl.noDeductions)
		b.WriteString("\n")
	} else {
		b.WriteString(a.tpl.deductionsHeader)
		for _, d := range score.Deductions {
			fmt.Fprintf(&b, a.tpl.deductionItem, d.Flag, d.RuleID, d.Evidence, d.Points)
			b.WriteString("\n")
		}
	}

	b.WriteString(a.recommendation(score, decision))
	b.WriteString("\n")

	return b.String()
}

func (a *Assembler) recommendation(score *scoring.Result, decision underwriting.Decision) string {
	band := a.tpl.bands[score.Band]

	switch decision.Verdict {
	case underwriting.VerdictApproved, underwriting.VerdictApprovedPendingReview:
		return fmt.Sprintf(a.tpl.approve, score.FinalScore, band)
	case underwriting.VerdictRejected:
		return fmt.Sprintf(a.tpl.reject, band, score.FinalScore)
	default:
		out := fmt.Sprintf(a.tpl.review, band)
		if decision.SuggestedAmount != nil {
			out += fmt.Sprintf(a.tpl.suggestedAmount, *decision.SuggestedAmount)
		}
		return out
	}
}
