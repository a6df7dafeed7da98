package scoring_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoring-engine/internal/models"
	"scoring-engine/internal/services/scoring"
)

func boolPtr(b bool) *bool { return &b }

// strongApplicant is the "approve" scenario from the loan forms.
func strongApplicant() models.LoanApplication {
	return models.LoanApplication{
		Age:            30,
		AnnualIncome:   80000,
		CreditScore:    760,
		LoanAmount:     150000,
		LoanTermMonths: 120,
		Education:      models.EducationGraduate,
		Employment:     models.EmploymentSalaried,
		MaritalStatus:  models.MaritalMarried,
		PropertyArea:   models.PropertyUrban,
		Dependents:     models.Dependents0,
	}
}

// weakApplicant is the "reject" scenario from the loan forms.
func weakApplicant() models.LoanApplication {
	return models.LoanApplication{
		Age:            22,
		AnnualIncome:   20000,
		CreditScore:    550,
		LoanAmount:     100000,
		LoanTermMonths: 360,
		Education:      models.EducationNotGraduate,
		Employment:     models.EmploymentSelfEmployed,
		PropertyArea:   models.PropertyRural,
		Dependents:     models.Dependents3OrMore,
	}
}

// borderlineApplicant totals exactly 50 under the canonical preset.
func borderlineApplicant() models.LoanApplication {
	return models.LoanApplication{
		Age:            30,
		AnnualIncome:   40000,
		CreditScore:    660,
		LoanAmount:     100000,
		LoanTermMonths: 240,
		Education:      models.EducationNotGraduate,
		Employment:     models.EmploymentSelfEmployed,
		PropertyArea:   models.PropertyRural,
		Dependents:     models.Dependents1,
	}
}

func TestScore_StrongApplicantApproved(t *testing.T) {
	decision := scoring.Score(strongApplicant(), scoring.Canonical())

	assert.True(t, decision.Approved)
	assert.Equal(t, 115, decision.TotalScore)
	assert.Equal(t, 95, decision.ConfidencePercent)
	assert.Equal(t, 5, decision.RiskScore)
	assert.Equal(t, scoring.PresetCanonical, decision.Preset)
	assert.Equal(t, []string{
		"Optimal age range for loan approval",
		"Good annual income",
		"Excellent credit score",
		"Low loan-to-income ratio",
		"Graduate education level",
		"Stable salaried employment",
	}, decision.Factors)
}

func TestScore_WeakApplicantRejected(t *testing.T) {
	decision := scoring.Score(weakApplicant(), scoring.Canonical())

	assert.False(t, decision.Approved)
	assert.Equal(t, -42, decision.TotalScore)
	assert.Equal(t, 50, decision.ConfidencePercent)
	assert.Equal(t, 95, decision.RiskScore)
	assert.Greater(t, decision.RiskScore, 60)
	// 100000 / 20000 is exactly 5 and must stay in the moderate tier.
	assert.Contains(t, decision.Factors, "Moderate loan-to-income ratio")
	assert.Equal(t, "Age outside optimal range", decision.Factors[0])
}

func TestScore_ApprovalBoundary(t *testing.T) {
	decision := scoring.Score(borderlineApplicant(), scoring.Canonical())

	assert.Equal(t, 50, decision.TotalScore)
	assert.True(t, decision.Approved, "a total of exactly 50 is approved")
	assert.Equal(t, 50, decision.ConfidencePercent)
	assert.Equal(t, 50, decision.RiskScore)
}

func TestScore_ThresholdUsesGreaterOrEqual(t *testing.T) {
	tests := []struct {
		points   int
		approved bool
	}{
		{48, false},
		{49, false},
		{50, true},
		{51, true},
	}

	for _, tt := range tests {
		cfg := scoring.Canonical()
		cfg.Order = []scoring.RuleName{scoring.RuleIncome}
		cfg.Income = scoring.MinTierTable{Otherwise: scoring.Outcome{Points: tt.points}}

		decision := scoring.Score(strongApplicant(), cfg)

		assert.Equal(t, tt.points, decision.TotalScore)
		assert.Equal(t, tt.approved, decision.Approved, "total %d", tt.points)
		assert.Empty(t, decision.Factors, "outcomes without a factor add no entry")
	}
}

func TestScore_CreditScoreMonotonic(t *testing.T) {
	app := borderlineApplicant()
	cfg := scoring.Canonical()

	var prevTotal, prevRisk int
	for i, credit := range []int{550, 600, 650, 700, 750} {
		app.CreditScore = credit
		d := scoring.Score(app, cfg)

		if i > 0 {
			assert.Greater(t, d.TotalScore, prevTotal, "credit %d", credit)
			assert.Less(t, d.RiskScore, prevRisk, "credit %d", credit)
		}
		prevTotal, prevRisk = d.TotalScore, d.RiskScore
	}
}

func TestScore_ClampBounds(t *testing.T) {
	cfg := scoring.Canonical()

	for _, points := range []int{-100000, -500, -1, 0, 49, 50, 51, 500, 100000} {
		cfg.Order = []scoring.RuleName{scoring.RuleIncome}
		cfg.Income = scoring.MinTierTable{Otherwise: scoring.Outcome{Points: points}}

		d := scoring.Score(strongApplicant(), cfg)

		assert.GreaterOrEqual(t, d.ConfidencePercent, 50)
		assert.LessOrEqual(t, d.ConfidencePercent, 95)
		assert.GreaterOrEqual(t, d.RiskScore, 5)
		assert.LessOrEqual(t, d.RiskScore, 95)
	}
}

func TestScore_Deterministic(t *testing.T) {
	for _, app := range []models.LoanApplication{strongApplicant(), weakApplicant(), borderlineApplicant()} {
		first := scoring.Score(app, scoring.Canonical())
		second := scoring.Score(app, scoring.Canonical())
		assert.Equal(t, first, second)
	}
}

func TestScore_ConcurrentCalls(t *testing.T) {
	scorer := scoring.NewScorer(scoring.Canonical())
	want := scorer.Score(strongApplicant())

	var wg sync.WaitGroup
	results := make([]models.LoanDecision, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = scorer.Score(strongApplicant())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestScore_FactorsCapped(t *testing.T) {
	cfg := scoring.Canonical()
	cfg.MaxFactors = 3

	d := scoring.Score(strongApplicant(), cfg)

	assert.Len(t, d.Factors, 3)
	assert.Equal(t, 115, d.TotalScore, "truncating factors must not change the total")
}

func TestScore_FewerFactorsThanCap(t *testing.T) {
	cfg := scoring.Canonical()
	cfg.Order = []scoring.RuleName{scoring.RuleAge, scoring.RuleIncome}

	d := scoring.Score(strongApplicant(), cfg)

	assert.Len(t, d.Factors, 2)
}

func TestScore_OptionalRulesSkippedWhenNotSupplied(t *testing.T) {
	app := strongApplicant()
	app.MaritalStatus = models.MaritalUnknown
	app.HasExistingLoan = nil

	cfg := scoring.Canonical()
	cfg.MaxFactors = 20

	d := scoring.Score(app, cfg)

	assert.Equal(t, 110, d.TotalScore)
	assert.NotContains(t, d.Factors, "Married status provides stability")
	assert.NotContains(t, d.Factors, "No existing loans")
	assert.NotContains(t, d.Factors, "Existing loan obligations")
}

func TestScore_ExistingLoanRule(t *testing.T) {
	cfg := scoring.Canonical()
	cfg.MaxFactors = 20

	app := strongApplicant()
	app.HasExistingLoan = boolPtr(false)
	without := scoring.Score(app, cfg)

	app.HasExistingLoan = boolPtr(true)
	with := scoring.Score(app, cfg)

	assert.Equal(t, 125, without.TotalScore)
	assert.Equal(t, 105, with.TotalScore)
	assert.Equal(t, "No existing loans", without.Factors[len(without.Factors)-1])
	assert.Equal(t, "Existing loan obligations", with.Factors[len(with.Factors)-1])
}

func TestScore_RuleTiers(t *testing.T) {
	cfg := scoring.Canonical()

	tests := []struct {
		name   string
		rule   scoring.RuleName
		mutate func(a *models.LoanApplication)
		points int
		factor string
	}{
		{"age lower bound", scoring.RuleAge, func(a *models.LoanApplication) { a.Age = 25 }, 15, "Optimal age range for loan approval"},
		{"age upper bound", scoring.RuleAge, func(a *models.LoanApplication) { a.Age = 55 }, 15, "Optimal age range for loan approval"},
		{"age young", scoring.RuleAge, func(a *models.LoanApplication) { a.Age = 24 }, -10, "Age outside optimal range"},
		{"age old", scoring.RuleAge, func(a *models.LoanApplication) { a.Age = 56 }, -10, "Age outside optimal range"},
		{"income high", scoring.RuleIncome, func(a *models.LoanApplication) { a.AnnualIncome = 100000 }, 25, "High annual income"},
		{"income good", scoring.RuleIncome, func(a *models.LoanApplication) { a.AnnualIncome = 50000 }, 15, "Good annual income"},
		{"income moderate", scoring.RuleIncome, func(a *models.LoanApplication) { a.AnnualIncome = 30000 }, 5, "Moderate annual income"},
		{"income low", scoring.RuleIncome, func(a *models.LoanApplication) { a.AnnualIncome = 29999.99 }, -15, "Low annual income"},
		{"credit excellent", scoring.RuleCreditScore, func(a *models.LoanApplication) { a.CreditScore = 750 }, 30, "Excellent credit score"},
		{"credit good", scoring.RuleCreditScore, func(a *models.LoanApplication) { a.CreditScore = 749 }, 20, "Good credit score"},
		{"credit fair", scoring.RuleCreditScore, func(a *models.LoanApplication) { a.CreditScore = 650 }, 10, "Fair credit score"},
		{"credit below average", scoring.RuleCreditScore, func(a *models.LoanApplication) { a.CreditScore = 600 }, -5, "Below average credit score"},
		{"credit poor", scoring.RuleCreditScore, func(a *models.LoanApplication) { a.CreditScore = 599 }, -20, "Poor credit score"},
		{"ratio exactly 3", scoring.RuleLoanToIncome, func(a *models.LoanApplication) { a.LoanAmount, a.AnnualIncome = 150000, 50000 }, 15, "Low loan-to-income ratio"},
		{"ratio 8", scoring.RuleLoanToIncome, func(a *models.LoanApplication) { a.LoanAmount, a.AnnualIncome = 400000, 50000 }, -5, "High loan-to-income ratio"},
		{"ratio above 8", scoring.RuleLoanToIncome, func(a *models.LoanApplication) { a.LoanAmount, a.AnnualIncome = 400001, 50000 }, -15, "Very high loan-to-income ratio"},
		{"ratio zero income", scoring.RuleLoanToIncome, func(a *models.LoanApplication) { a.AnnualIncome = 0 }, -15, "Very high loan-to-income ratio"},
		{"not graduate", scoring.RuleEducation, func(a *models.LoanApplication) { a.Education = models.EducationNotGraduate }, -5, "Non-graduate education level"},
		{"self employed", scoring.RuleEmployment, func(a *models.LoanApplication) { a.Employment = models.EmploymentSelfEmployed }, 5, "Self-employed status"},
		{"semiurban", scoring.RulePropertyArea, func(a *models.LoanApplication) { a.PropertyArea = models.PropertySemiurban }, 3, "Semi-urban property location"},
		{"rural", scoring.RulePropertyArea, func(a *models.LoanApplication) { a.PropertyArea = models.PropertyRural }, 1, "Rural property location"},
		{"two dependents", scoring.RuleDependents, func(a *models.LoanApplication) { a.Dependents = models.Dependents2 }, 2, "Few dependents"},
		{"three plus dependents", scoring.RuleDependents, func(a *models.LoanApplication) { a.Dependents = models.Dependents3OrMore }, -5, "Many dependents"},
		{"term 180", scoring.RuleLoanTerm, func(a *models.LoanApplication) { a.LoanTermMonths = 180 }, 5, "Short loan term"},
		{"term 360", scoring.RuleLoanTerm, func(a *models.LoanApplication) { a.LoanTermMonths = 360 }, 2, "Standard loan term"},
		{"term 480", scoring.RuleLoanTerm, func(a *models.LoanApplication) { a.LoanTermMonths = 480 }, -3, "Long loan term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := strongApplicant()
			tt.mutate(&app)

			single := cfg
			single.Order = []scoring.RuleName{tt.rule}

			d := scoring.Score(app, single)

			assert.Equal(t, tt.points, d.TotalScore)
			assert.Equal(t, []string{tt.factor}, d.Factors)
		})
	}
}

func TestPresets_VariantB(t *testing.T) {
	cfg, err := scoring.Preset(scoring.PresetVariantB)
	require.NoError(t, err)

	strong := scoring.Score(strongApplicant(), cfg)
	assert.True(t, strong.Approved)
	assert.Equal(t, 115, strong.TotalScore)
	assert.Equal(t, 95, strong.ConfidencePercent)
	assert.Equal(t, []string{
		"Optimal age range",
		"Strong income level",
		"Excellent credit score",
		"Favorable loan-to-income ratio",
		"Graduate education",
	}, strong.Factors)

	weak := weakApplicant()
	weak.HasExistingLoan = boolPtr(true)
	d := scoring.Score(weak, cfg)

	assert.False(t, d.Approved)
	assert.Equal(t, -25, d.TotalScore)
	assert.Equal(t, 10, d.ConfidencePercent)
	assert.Equal(t, 95, d.RiskScore)
	assert.Equal(t, []string{
		"Young age may affect approval",
		"Low income may affect approval",
		"Fair credit score",
		"Moderate loan-to-income ratio",
		"Self-employed status",
	}, d.Factors)
}

func TestPresets_VariantBAdvancedAge(t *testing.T) {
	app := strongApplicant()
	app.Age = 61

	cfg := scoring.VariantB()
	cfg.Order = []scoring.RuleName{scoring.RuleAge}

	d := scoring.Score(app, cfg)

	assert.Equal(t, -5, d.TotalScore)
	assert.Equal(t, []string{"Advanced age consideration"}, d.Factors)
}

func TestPresets_VariantAIgnoresExistingLoan(t *testing.T) {
	app := strongApplicant()
	app.HasExistingLoan = boolPtr(true)

	a := scoring.Score(app, scoring.VariantA())
	canonical := scoring.Score(strongApplicant(), scoring.Canonical())

	assert.Equal(t, canonical.TotalScore, a.TotalScore)
	assert.Equal(t, scoring.PresetVariantA, a.Preset)
}

func TestPreset_Unknown(t *testing.T) {
	_, err := scoring.Preset("bogus")
	assert.ErrorIs(t, err, scoring.ErrUnknownPreset)
}

func TestPresets_AreValid(t *testing.T) {
	for _, cfg := range []scoring.ScoringConfig{scoring.Canonical(), scoring.VariantA(), scoring.VariantB()} {
		assert.NoError(t, cfg.Validate(), cfg.Name)
	}
}

func TestValidate_RejectsBrokenConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *scoring.ScoringConfig)
	}{
		{"no name", func(c *scoring.ScoringConfig) { c.Name = "" }},
		{"zero max factors", func(c *scoring.ScoringConfig) { c.MaxFactors = 0 }},
		{"confidence floor above ceiling", func(c *scoring.ScoringConfig) { c.Confidence.Floor = 99 }},
		{"risk floor above ceiling", func(c *scoring.ScoringConfig) { c.Risk.Floor = 99 }},
		{"empty order", func(c *scoring.ScoringConfig) { c.Order = nil }},
		{"unknown rule", func(c *scoring.ScoringConfig) { c.Order = append(c.Order, "zodiac") }},
		{"duplicate rule", func(c *scoring.ScoringConfig) { c.Order = append(c.Order, scoring.RuleAge) }},
		{"inverted age band", func(c *scoring.ScoringConfig) { c.Age.Min, c.Age.Max = 60, 20 }},
		{"ascending income tiers", func(c *scoring.ScoringConfig) {
			c.Income.Tiers[0], c.Income.Tiers[1] = c.Income.Tiers[1], c.Income.Tiers[0]
		}},
		{"descending ratio tiers", func(c *scoring.ScoringConfig) {
			c.LoanToIncome.Tiers[0], c.LoanToIncome.Tiers[1] = c.LoanToIncome.Tiers[1], c.LoanToIncome.Tiers[0]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := scoring.Canonical()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), scoring.ErrInvalidConfig)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := scoring.NewRegistry()

	assert.Equal(t, []string{"canonical", "variant-a", "variant-b"}, r.Names())

	cfg, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, scoring.PresetCanonical, cfg.Name)

	custom := scoring.Canonical()
	custom.Name = "strict"
	custom.ApprovalThreshold = 80
	require.NoError(t, r.Register(custom))

	got, err := r.Get("strict")
	require.NoError(t, err)
	assert.False(t, scoring.Score(borderlineApplicant(), got).Approved)
	assert.Len(t, r.All(), 4)

	assert.ErrorIs(t, r.Register(custom), scoring.ErrDuplicatePreset)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, scoring.ErrUnknownPreset)
}
