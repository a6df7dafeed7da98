// Package scoring implements the deterministic loan scoring engine.
//
// The engine is a single evaluation loop driven by a ScoringConfig data table.
// Historical rule sets are kept as named presets rather than separate code paths.
package scoring

import (
	"errors"
	"fmt"
)

// RuleName identifies one independently evaluated scoring rule.
type RuleName string

const (
	RuleAge           RuleName = "age"
	RuleIncome        RuleName = "income"
	RuleCreditScore   RuleName = "credit_score"
	RuleLoanToIncome  RuleName = "loan_to_income"
	RuleEducation     RuleName = "education"
	RuleEmployment    RuleName = "employment"
	RuleMaritalStatus RuleName = "marital_status"
	RulePropertyArea  RuleName = "property_area"
	RuleDependents    RuleName = "dependents"
	RuleLoanTerm      RuleName = "loan_term"
	RuleExistingLoan  RuleName = "existing_loan"
)

// CanonicalOrder is the evaluation order of the canonical rule set. It also fixes factor order.
var CanonicalOrder = []RuleName{
	RuleAge,
	RuleIncome,
	RuleCreditScore,
	RuleLoanToIncome,
	RuleEducation,
	RuleEmployment,
	RuleMaritalStatus,
	RulePropertyArea,
	RuleDependents,
	RuleLoanTerm,
	RuleExistingLoan,
}

// Config errors
var (
	ErrUnknownPreset   = errors.New("unknown scoring preset")
	ErrInvalidConfig   = errors.New("invalid scoring config")
	ErrDuplicatePreset = errors.New("scoring preset already registered")
)

// Outcome is what a rule branch contributes: signed points and an optional factor.
// An empty factor adds points without a factor entry.
type Outcome struct {
	Points int    `json:"points" yaml:"points"`
	Factor string `json:"factor,omitempty" yaml:"factor"`
}

// MinTier fires when the value is at least Min.
type MinTier struct {
	Min     float64 `json:"min" yaml:"min"`
	Outcome `yaml:",inline"`
}

// MinTierTable is an if/else-if chain over descending thresholds.
type MinTierTable struct {
	Tiers     []MinTier `json:"tiers" yaml:"tiers"`
	Otherwise Outcome   `json:"otherwise" yaml:"otherwise"`
}

func (t MinTierTable) match(v float64) Outcome {
	for _, tier := range t.Tiers {
		if v >= tier.Min {
			return tier.Outcome
		}
	}
	return t.Otherwise
}

// MaxTier fires when the value is at most Max.
type MaxTier struct {
	Max     float64 `json:"max" yaml:"max"`
	Outcome `yaml:",inline"`
}

// MaxTierTable is an if/else-if chain over ascending ceilings.
type MaxTierTable struct {
	Tiers     []MaxTier `json:"tiers" yaml:"tiers"`
	Otherwise Outcome   `json:"otherwise" yaml:"otherwise"`
}

func (t MaxTierTable) match(v float64) Outcome {
	for _, tier := range t.Tiers {
		if v <= tier.Max {
			return tier.Outcome
		}
	}
	return t.Otherwise
}

// AgeBand scores the applicant's age against an inclusive optimal range.
type AgeBand struct {
	Min     int     `json:"min" yaml:"min"`
	Max     int     `json:"max" yaml:"max"`
	InRange Outcome `json:"in_range" yaml:"in_range"`
	Young   Outcome `json:"young" yaml:"young"`
	Old     Outcome `json:"old" yaml:"old"`
}

// EducationRule scores the education level.
type EducationRule struct {
	Graduate    Outcome `json:"graduate" yaml:"graduate"`
	NotGraduate Outcome `json:"not_graduate" yaml:"not_graduate"`
}

// EmploymentRule scores the employment type.
type EmploymentRule struct {
	Salaried     Outcome `json:"salaried" yaml:"salaried"`
	SelfEmployed Outcome `json:"self_employed" yaml:"self_employed"`
}

// MaritalRule scores the marital status when it was supplied.
type MaritalRule struct {
	Married Outcome `json:"married" yaml:"married"`
	Single  Outcome `json:"single" yaml:"single"`
}

// PropertyRule scores the property location.
type PropertyRule struct {
	Urban     Outcome `json:"urban" yaml:"urban"`
	Semiurban Outcome `json:"semiurban" yaml:"semiurban"`
	Rural     Outcome `json:"rural" yaml:"rural"`
}

// ExistingLoanRule scores the existing-loan flag when it was supplied.
type ExistingLoanRule struct {
	None     Outcome `json:"none" yaml:"none"`
	Existing Outcome `json:"existing" yaml:"existing"`
}

// ConfidenceCurve maps the total score to a display confidence:
// round(clamp(Base + (total-Pivot)*Slope, Floor, Ceiling)).
type ConfidenceCurve struct {
	Base    float64 `json:"base" yaml:"base"`
	Pivot   float64 `json:"pivot" yaml:"pivot"`
	Slope   float64 `json:"slope" yaml:"slope"`
	Floor   float64 `json:"floor" yaml:"floor"`
	Ceiling float64 `json:"ceiling" yaml:"ceiling"`
}

// RiskCurve maps the total score to a risk score: round(clamp(Base - total, Floor, Ceiling)).
type RiskCurve struct {
	Base    float64 `json:"base" yaml:"base"`
	Floor   float64 `json:"floor" yaml:"floor"`
	Ceiling float64 `json:"ceiling" yaml:"ceiling"`
}

// ScoringConfig is the data table the scorer evaluates. A rule is active iff it appears in Order.
type ScoringConfig struct {
	Name              string          `json:"name" yaml:"name"`
	Description       string          `json:"description,omitempty" yaml:"description"`
	ApprovalThreshold int             `json:"approval_threshold" yaml:"approval_threshold"`
	MaxFactors        int             `json:"max_factors" yaml:"max_factors"`
	Confidence        ConfidenceCurve `json:"confidence" yaml:"confidence"`
	Risk              RiskCurve       `json:"risk" yaml:"risk"`
	Order             []RuleName      `json:"order" yaml:"order"`

	Age           AgeBand          `json:"age" yaml:"age"`
	Income        MinTierTable     `json:"income" yaml:"income"`
	CreditScore   MinTierTable     `json:"credit_score" yaml:"credit_score"`
	LoanToIncome  MaxTierTable     `json:"loan_to_income" yaml:"loan_to_income"`
	Education     EducationRule    `json:"education" yaml:"education"`
	Employment    EmploymentRule   `json:"employment" yaml:"employment"`
	MaritalStatus MaritalRule      `json:"marital_status" yaml:"marital_status"`
	PropertyArea  PropertyRule     `json:"property_area" yaml:"property_area"`
	Dependents    MaxTierTable     `json:"dependents" yaml:"dependents"`
	LoanTerm      MaxTierTable     `json:"loan_term" yaml:"loan_term"`
	ExistingLoan  ExistingLoanRule `json:"existing_loan" yaml:"existing_loan"`
}

// Enabled reports whether the rule takes part in evaluation.
func (c ScoringConfig) Enabled(rule RuleName) bool {
	for _, r := range c.Order {
		if r == rule {
			return true
		}
	}
	return false
}

// Validate rejects structurally broken configs. It does not judge the weights themselves.
func (c ScoringConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.MaxFactors <= 0 {
		return fmt.Errorf("%w: max_factors must be positive", ErrInvalidConfig)
	}
	if c.Confidence.Floor > c.Confidence.Ceiling {
		return fmt.Errorf("%w: confidence floor above ceiling", ErrInvalidConfig)
	}
	if c.Risk.Floor > c.Risk.Ceiling {
		return fmt.Errorf("%w: risk floor above ceiling", ErrInvalidConfig)
	}
	if len(c.Order) == 0 {
		return fmt.Errorf("%w: order must list at least one rule", ErrInvalidConfig)
	}

	known := make(map[RuleName]bool, len(CanonicalOrder))
	for _, r := range CanonicalOrder {
		known[r] = true
	}
	seen := make(map[RuleName]bool, len(c.Order))
	for _, r := range c.Order {
		if !known[r] {
			return fmt.Errorf("%w: unknown rule %q", ErrInvalidConfig, r)
		}
		if seen[r] {
			return fmt.Errorf("%w: rule %q listed twice", ErrInvalidConfig, r)
		}
		seen[r] = true
	}

	if c.Enabled(RuleAge) && c.Age.Min > c.Age.Max {
		return fmt.Errorf("%w: age band min above max", ErrInvalidConfig)
	}

	for name, table := range map[RuleName]MinTierTable{
		RuleIncome:      c.Income,
		RuleCreditScore: c.CreditScore,
	} {
		for i := 1; i < len(table.Tiers); i++ {
			if table.Tiers[i].Min >= table.Tiers[i-1].Min {
				return fmt.Errorf("%w: %s tiers must be strictly descending", ErrInvalidConfig, name)
			}
		}
	}

	for name, table := range map[RuleName]MaxTierTable{
		RuleLoanToIncome: c.LoanToIncome,
		RuleDependents:   c.Dependents,
		RuleLoanTerm:     c.LoanTerm,
	} {
		for i := 1; i < len(table.Tiers); i++ {
			if table.Tiers[i].Max <= table.Tiers[i-1].Max {
				return fmt.Errorf("%w: %s tiers must be strictly ascending", ErrInvalidConfig, name)
			}
		}
	}

	return nil
}
