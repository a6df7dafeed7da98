package scoring

import (
	"fmt"
	"sort"
	"sync"
)

// Built-in preset names.
const (
	PresetCanonical = "canonical"
	PresetVariantA  = "variant-a"
	PresetVariantB  = "variant-b"
)

// DefaultApprovalThreshold is the total score at which an application is approved.
const DefaultApprovalThreshold = 50

// Canonical returns the canonical superset rule table.
func Canonical() ScoringConfig {
	return ScoringConfig{
		Name:              PresetCanonical,
		Description:       "Canonical rule set: four-tier income, five-tier credit, loan term and existing-loan rules",
		ApprovalThreshold: DefaultApprovalThreshold,
		MaxFactors:        6,
		Confidence:        ConfidenceCurve{Base: 50, Pivot: 50, Slope: 0.8, Floor: 50, Ceiling: 95},
		Risk:              RiskCurve{Base: 100, Floor: 5, Ceiling: 95},
		Order:             append([]RuleName(nil), CanonicalOrder...),

		Age: AgeBand{
			Min:     25,
			Max:     55,
			InRange: Outcome{15, "Optimal age range for loan approval"},
			Young:   Outcome{-10, "Age outside optimal range"},
			Old:     Outcome{-10, "Age outside optimal range"},
		},
		Income: MinTierTable{
			Tiers: []MinTier{
				{100000, Outcome{25, "High annual income"}},
				{50000, Outcome{15, "Good annual income"}},
				{30000, Outcome{5, "Moderate annual income"}},
			},
			Otherwise: Outcome{-15, "Low annual income"},
		},
		CreditScore: MinTierTable{
			Tiers: []MinTier{
				{750, Outcome{30, "Excellent credit score"}},
				{700, Outcome{20, "Good credit score"}},
				{650, Outcome{10, "Fair credit score"}},
				{600, Outcome{-5, "Below average credit score"}},
			},
			Otherwise: Outcome{-20, "Poor credit score"},
		},
		LoanToIncome: MaxTierTable{
			Tiers: []MaxTier{
				{3, Outcome{15, "Low loan-to-income ratio"}},
				{5, Outcome{5, "Moderate loan-to-income ratio"}},
				{8, Outcome{-5, "High loan-to-income ratio"}},
			},
			Otherwise: Outcome{-15, "Very high loan-to-income ratio"},
		},
		Education: EducationRule{
			Graduate:    Outcome{10, "Graduate education level"},
			NotGraduate: Outcome{-5, "Non-graduate education level"},
		},
		Employment: EmploymentRule{
			Salaried:     Outcome{10, "Stable salaried employment"},
			SelfEmployed: Outcome{5, "Self-employed status"},
		},
		MaritalStatus: MaritalRule{
			Married: Outcome{5, "Married status provides stability"},
		},
		PropertyArea: PropertyRule{
			Urban:     Outcome{5, "Urban property location"},
			Semiurban: Outcome{3, "Semi-urban property location"},
			Rural:     Outcome{1, "Rural property location"},
		},
		Dependents: MaxTierTable{
			Tiers: []MaxTier{
				{0, Outcome{5, "No dependents"}},
				{2, Outcome{2, "Few dependents"}},
			},
			Otherwise: Outcome{-5, "Many dependents"},
		},
		LoanTerm: MaxTierTable{
			Tiers: []MaxTier{
				{180, Outcome{5, "Short loan term"}},
				{360, Outcome{2, "Standard loan term"}},
			},
			Otherwise: Outcome{-3, "Long loan term"},
		},
		ExistingLoan: ExistingLoanRule{
			None:     Outcome{10, "No existing loans"},
			Existing: Outcome{-10, "Existing loan obligations"},
		},
	}
}

// VariantA reproduces the standalone eligibility predictor. It is the canonical
// table without the existing-loan rule, which that form never asked about.
func VariantA() ScoringConfig {
	cfg := Canonical()
	cfg.Name = PresetVariantA
	cfg.Description = "Eligibility predictor rule set (no existing-loan question)"
	cfg.Order = without(cfg.Order, RuleExistingLoan)
	return cfg
}

// VariantB reproduces the simpler loan eligibility form: three income tiers, four
// credit tiers, no education penalty, no marital or loan term rules.
func VariantB() ScoringConfig {
	return ScoringConfig{
		Name:              PresetVariantB,
		Description:       "Loan form rule set: simplified tiers, existing-loan question, top five factors",
		ApprovalThreshold: DefaultApprovalThreshold,
		MaxFactors:        5,
		Confidence:        ConfidenceCurve{Base: 50, Pivot: 50, Slope: 1, Floor: 10, Ceiling: 95},
		Risk:              RiskCurve{Base: 100, Floor: 5, Ceiling: 95},
		Order: []RuleName{
			RuleAge,
			RuleIncome,
			RuleCreditScore,
			RuleLoanToIncome,
			RuleEducation,
			RuleEmployment,
			RuleDependents,
			RulePropertyArea,
			RuleExistingLoan,
		},

		Age: AgeBand{
			Min:     25,
			Max:     60,
			InRange: Outcome{15, "Optimal age range"},
			Young:   Outcome{-10, "Young age may affect approval"},
			Old:     Outcome{-5, "Advanced age consideration"},
		},
		Income: MinTierTable{
			Tiers: []MinTier{
				{50000, Outcome{25, "Strong income level"}},
				{30000, Outcome{15, "Moderate income level"}},
			},
			Otherwise: Outcome{-15, "Low income may affect approval"},
		},
		CreditScore: MinTierTable{
			Tiers: []MinTier{
				{750, Outcome{30, "Excellent credit score"}},
				{650, Outcome{20, "Good credit score"}},
				{550, Outcome{5, "Fair credit score"}},
			},
			Otherwise: Outcome{-20, "Poor credit score"},
		},
		LoanToIncome: MaxTierTable{
			Tiers: []MaxTier{
				{3, Outcome{15, "Favorable loan-to-income ratio"}},
				{5, Outcome{5, "Moderate loan-to-income ratio"}},
			},
			Otherwise: Outcome{-15, "High loan-to-income ratio"},
		},
		Education: EducationRule{
			Graduate: Outcome{10, "Graduate education"},
		},
		Employment: EmploymentRule{
			Salaried:     Outcome{10, "Stable salaried employment"},
			SelfEmployed: Outcome{5, "Self-employed status"},
		},
		PropertyArea: PropertyRule{
			Urban: Outcome{5, "Urban property location"},
		},
		Dependents: MaxTierTable{
			Tiers: []MaxTier{
				{2, Outcome{5, "Manageable dependents"}},
			},
			Otherwise: Outcome{-5, "High number of dependents"},
		},
		ExistingLoan: ExistingLoanRule{
			None:     Outcome{10, "No existing loans"},
			Existing: Outcome{-10, "Existing loan obligations"},
		},
	}
}

func without(order []RuleName, drop RuleName) []RuleName {
	out := make([]RuleName, 0, len(order))
	for _, r := range order {
		if r != drop {
			out = append(out, r)
		}
	}
	return out
}

// Preset returns a built-in preset by name.
func Preset(name string) (ScoringConfig, error) {
	switch name {
	case PresetCanonical, "":
		return Canonical(), nil
	case PresetVariantA:
		return VariantA(), nil
	case PresetVariantB:
		return VariantB(), nil
	}
	return ScoringConfig{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
}

// Registry holds the built-in presets plus any loaded from rule files.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]ScoringConfig
}

// NewRegistry creates a registry seeded with the built-in presets.
func NewRegistry() *Registry {
	r := &Registry{presets: make(map[string]ScoringConfig)}
	for _, cfg := range []ScoringConfig{Canonical(), VariantA(), VariantB()} {
		r.presets[cfg.Name] = cfg
	}
	return r
}

// Register validates and adds a preset. Built-in and already loaded names cannot be replaced.
func (r *Registry) Register(cfg ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.presets[cfg.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePreset, cfg.Name)
	}
	r.presets[cfg.Name] = cfg
	return nil
}

// Get returns the preset with the given name. An empty name selects the canonical preset.
func (r *Registry) Get(name string) (ScoringConfig, error) {
	if name == "" {
		name = PresetCanonical
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.presets[name]
	if !ok {
		return ScoringConfig{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return cfg, nil
}

// Names lists the registered presets in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.presets))
	for name := range r.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered preset ordered by name.
func (r *Registry) All() []ScoringConfig {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ScoringConfig, 0, len(names))
	for _, name := range names {
		out = append(out, r.presets[name])
	}
	return out
}
