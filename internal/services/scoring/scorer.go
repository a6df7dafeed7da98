package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"scoring-engine/internal/models"
)

// Scorer binds a ScoringConfig so callers can score without passing it each time.
// It holds no state between calls.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer creates a scorer for the given config.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the config the scorer evaluates.
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score evaluates the application against the bound config.
func (s *Scorer) Score(app models.LoanApplication) models.LoanDecision {
	return Score(app, s.cfg)
}

// Score computes the decision for one application. It is a pure function:
// the same input and config always produce the same decision, and any finite
// input yields a decision. Range checks belong to the caller.
func Score(app models.LoanApplication, cfg ScoringConfig) models.LoanDecision {
	total := 0
	factors := make([]string, 0, len(cfg.Order))

	for _, rule := range cfg.Order {
		outcome, fired := evaluate(rule, app, cfg)
		if !fired {
			continue
		}
		total += outcome.Points
		if outcome.Factor != "" {
			factors = append(factors, outcome.Factor)
		}
	}

	if cfg.MaxFactors > 0 && len(factors) > cfg.MaxFactors {
		factors = factors[:cfg.MaxFactors]
	}

	return models.LoanDecision{
		Approved:          total >= cfg.ApprovalThreshold,
		ConfidencePercent: confidence(total, cfg.Confidence),
		RiskScore:         risk(total, cfg.Risk),
		TotalScore:        total,
		Factors:           factors,
		Preset:            cfg.Name,
	}
}

// evaluate returns the outcome of one rule and whether the rule applied at all.
// Optional inputs that were not supplied skip their rule.
func evaluate(rule RuleName, app models.LoanApplication, cfg ScoringConfig) (Outcome, bool) {
	switch rule {
	case RuleAge:
		switch {
		case app.Age < cfg.Age.Min:
			return cfg.Age.Young, true
		case app.Age > cfg.Age.Max:
			return cfg.Age.Old, true
		default:
			return cfg.Age.InRange, true
		}

	case RuleIncome:
		return cfg.Income.match(app.AnnualIncome), true

	case RuleCreditScore:
		return cfg.CreditScore.match(float64(app.CreditScore)), true

	case RuleLoanToIncome:
		return loanToIncome(app.LoanAmount, app.AnnualIncome, cfg.LoanToIncome), true

	case RuleEducation:
		if app.Education == models.EducationGraduate {
			return cfg.Education.Graduate, true
		}
		return cfg.Education.NotGraduate, true

	case RuleEmployment:
		if app.Employment == models.EmploymentSalaried {
			return cfg.Employment.Salaried, true
		}
		return cfg.Employment.SelfEmployed, true

	case RuleMaritalStatus:
		switch app.MaritalStatus {
		case models.MaritalMarried:
			return cfg.MaritalStatus.Married, true
		case models.MaritalSingle:
			return cfg.MaritalStatus.Single, true
		}
		return Outcome{}, false

	case RulePropertyArea:
		switch app.PropertyArea {
		case models.PropertyUrban:
			return cfg.PropertyArea.Urban, true
		case models.PropertySemiurban:
			return cfg.PropertyArea.Semiurban, true
		}
		return cfg.PropertyArea.Rural, true

	case RuleDependents:
		return cfg.Dependents.match(float64(app.Dependents.Count())), true

	case RuleLoanTerm:
		return cfg.LoanTerm.match(float64(app.LoanTermMonths)), true

	case RuleExistingLoan:
		if app.HasExistingLoan == nil {
			return Outcome{}, false
		}
		if *app.HasExistingLoan {
			return cfg.ExistingLoan.Existing, true
		}
		return cfg.ExistingLoan.None, true
	}

	return Outcome{}, false
}

// loanToIncome compares loan/income exactly so a ratio sitting on a tier boundary
// (e.g. 150000/50000) lands in the lower tier. A non-positive or non-finite income
// behaves like an unbounded ratio.
func loanToIncome(amount, income float64, table MaxTierTable) Outcome {
	if !(income > 0) || math.IsInf(income, 0) || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return table.Otherwise
	}

	ratio := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(income))
	for _, tier := range table.Tiers {
		if ratio.LessThanOrEqual(decimal.NewFromFloat(tier.Max)) {
			return tier.Outcome
		}
	}
	return table.Otherwise
}

func confidence(total int, c ConfidenceCurve) int {
	v := c.Base + (float64(total)-c.Pivot)*c.Slope
	return roundHalfUp(clamp(v, c.Floor, c.Ceiling))
}

func risk(total int, r RiskCurve) int {
	return roundHalfUp(clamp(r.Base-float64(total), r.Floor, r.Ceiling))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// roundHalfUp rounds .5 toward positive infinity, matching the display rounding of the forms.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
