package models

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validApplication() LoanApplication {
	return LoanApplication{
		Age:            30,
		AnnualIncome:   80000,
		CreditScore:    760,
		LoanAmount:     150000,
		LoanTermMonths: 120,
		Education:      EducationGraduate,
		Employment:     EmploymentSalaried,
		PropertyArea:   PropertyUrban,
		Dependents:     Dependents0,
	}
}

func TestValidateLoanApplication(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *LoanApplication)
		wantErr error
	}{
		{"valid", func(a *LoanApplication) {}, nil},
		{"min age", func(a *LoanApplication) { a.Age = MinAge }, nil},
		{"max age", func(a *LoanApplication) { a.Age = MaxAge }, nil},
		{"too young", func(a *LoanApplication) { a.Age = 17 }, ErrInvalidAge},
		{"too old", func(a *LoanApplication) { a.Age = 81 }, ErrInvalidAge},
		{"nan income", func(a *LoanApplication) { a.AnnualIncome = math.NaN() }, ErrInvalidIncome},
		{"infinite income", func(a *LoanApplication) { a.AnnualIncome = math.Inf(1) }, ErrInvalidIncome},
		{"credit floor", func(a *LoanApplication) { a.CreditScore = MinCreditScore }, nil},
		{"credit ceiling", func(a *LoanApplication) { a.CreditScore = 851 }, ErrInvalidCreditScore},
		{"zero loan", func(a *LoanApplication) { a.LoanAmount = 0 }, ErrInvalidLoanAmount},
		{"negative term", func(a *LoanApplication) { a.LoanTermMonths = -12 }, ErrInvalidLoanTerm},
		{"free term", func(a *LoanApplication) { a.LoanTermMonths = 240 }, nil},
		{"education", func(a *LoanApplication) { a.Education = "" }, ErrInvalidEducation},
		{"employment", func(a *LoanApplication) { a.Employment = "Retired" }, ErrInvalidEmployment},
		{"marital", func(a *LoanApplication) { a.MaritalStatus = "Widowed" }, ErrInvalidMaritalStatus},
		{"property", func(a *LoanApplication) { a.PropertyArea = "" }, ErrInvalidPropertyArea},
		{"dependents", func(a *LoanApplication) { a.Dependents = "4" }, ErrInvalidDependents},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApplication()
			tt.mutate(&app)
			err := ValidateLoanApplication(&app)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmailInput(t *testing.T) {
	assert.NoError(t, ValidateEmailInput(&EmailInput{Subject: "hi"}))
	assert.NoError(t, ValidateEmailInput(&EmailInput{Content: "body", Sender: "a@b.com"}))
	assert.ErrorIs(t, ValidateEmailInput(&EmailInput{Subject: "  ", Content: ""}), ErrEmptyEmail)
	assert.ErrorIs(t, ValidateEmailInput(&EmailInput{Subject: "hi", Sender: "not-an-email"}), ErrInvalidSender)
}

func TestValidateRecipient(t *testing.T) {
	assert.NoError(t, ValidateRecipient(" someone@example.com "))
	assert.ErrorIs(t, ValidateRecipient(""), ErrInvalidRecipient)
	assert.ErrorIs(t, ValidateRecipient("someone@localhost"), ErrInvalidRecipient)
}

func TestDependentsCount(t *testing.T) {
	assert.Equal(t, 0, Dependents0.Count())
	assert.Equal(t, 2, Dependents2.Count())
	assert.Equal(t, 4, Dependents3OrMore.Count())
	assert.Equal(t, 0, Dependents("junk").Count())
}

func TestNormalizers(t *testing.T) {
	assert.Equal(t, EducationNotGraduate, NormalizeEducation("Not Graduate"))
	assert.Equal(t, EducationGraduate, NormalizeEducation(" graduate "))
	assert.Equal(t, EmploymentSelfEmployed, NormalizeEmploymentType("self_employed"))
	assert.Equal(t, EmploymentSalaried, NormalizeEmploymentType("Salaried"))
	assert.Equal(t, MaritalMarried, NormalizeMaritalStatus("Yes"))
	assert.Equal(t, MaritalSingle, NormalizeMaritalStatus("no"))
	assert.Equal(t, MaritalUnknown, NormalizeMaritalStatus(""))
	assert.Equal(t, PropertySemiurban, NormalizePropertyArea("Semi-urban"))
}

func TestNewRecords(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("IST", 5*3600+1800))

	loan := NewLoanRecord(validApplication(), LoanDecision{Approved: true}, now)
	email := NewEmailRecord(EmailInput{Subject: "x"}, EmailClassification{}, now)

	for _, id := range []string{loan.ID, email.ID} {
		parsed, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	}
	assert.NotEqual(t, loan.ID, email.ID)
	assert.Equal(t, time.UTC, loan.CreatedAt.Location())
	assert.True(t, loan.CreatedAt.Equal(now))
}

func TestRecordKind(t *testing.T) {
	assert.True(t, RecordKindLoan.IsValid())
	assert.True(t, RecordKindEmail.IsValid())
	assert.False(t, RecordKind("digits").IsValid())
}
