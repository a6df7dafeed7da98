// Package utils provides utility functions for the scoring engine.
package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"scoring-engine/internal/models"
)

// FormValue accepts a JSON string, number, boolean or null and keeps its text.
// The browser forms post every field as a string; API clients send typed values.
type FormValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return errors.New("form value must be a string, number or boolean")
	}
	*v = FormValue(data)
	return nil
}

func (v FormValue) String() string {
	return strings.TrimSpace(string(v))
}

// LoanForm is a loan application as submitted by the eligibility forms.
type LoanForm struct {
	Age            FormValue `json:"age"`
	Income         FormValue `json:"income"`
	CreditScore    FormValue `json:"creditScore"`
	LoanAmount     FormValue `json:"loanAmount"`
	LoanTerm       FormValue `json:"loanTerm"`
	Education      FormValue `json:"education"`
	Employment     FormValue `json:"employment"`
	EmploymentType FormValue `json:"employmentType"`
	Married        FormValue `json:"married"`
	PropertyArea   FormValue `json:"propertyArea"`
	Dependents     FormValue `json:"dependents"`
	ExistingLoan   FormValue `json:"existingLoan"`
}

// ParseLoanForm converts form fields into a validated LoanApplication.
func ParseLoanForm(f LoanForm) (models.LoanApplication, error) {
	var app models.LoanApplication
	var err error

	if app.Age, err = parseInt(f.Age.String()); err != nil {
		return app, fmt.Errorf("invalid age: %w", err)
	}
	if app.AnnualIncome, err = parseFloat(f.Income.String()); err != nil {
		return app, fmt.Errorf("invalid income: %w", err)
	}
	if app.CreditScore, err = parseInt(f.CreditScore.String()); err != nil {
		return app, fmt.Errorf("invalid creditScore: %w", err)
	}
	if app.LoanAmount, err = parseFloat(f.LoanAmount.String()); err != nil {
		return app, fmt.Errorf("invalid loanAmount: %w", err)
	}
	if app.LoanTermMonths, err = parseInt(f.LoanTerm.String()); err != nil {
		return app, fmt.Errorf("invalid loanTerm: %w", err)
	}

	employment := f.Employment.String()
	if employment == "" {
		employment = f.EmploymentType.String()
	}

	app.Education = models.NormalizeEducation(f.Education.String())
	app.Employment = models.NormalizeEmploymentType(employment)
	app.MaritalStatus = models.NormalizeMaritalStatus(f.Married.String())
	app.PropertyArea = models.NormalizePropertyArea(f.PropertyArea.String())
	app.Dependents = NormalizeDependents(f.Dependents.String())

	if app.HasExistingLoan, err = parseOptionalBool(f.ExistingLoan.String()); err != nil {
		return app, fmt.Errorf("invalid existingLoan: %w", err)
	}

	if err := models.ValidateLoanApplication(&app); err != nil {
		return app, err
	}
	return app, nil
}

// NormalizeDependents maps counts of three or more to "3+".
func NormalizeDependents(s string) models.Dependents {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "+") {
		if n, err := strconv.Atoi(strings.TrimSuffix(s, "+")); err == nil && n >= 3 {
			return models.Dependents3OrMore
		}
		return models.Dependents(s)
	}
	if n, err := parseInt(s); err == nil {
		switch {
		case n >= 3:
			return models.Dependents3OrMore
		case n >= 0:
			return models.Dependents(strconv.Itoa(n))
		}
	}
	return models.Dependents(s)
}

// parseOptionalBool reads Yes/No style answers. Blank means not supplied.
func parseOptionalBool(s string) (*bool, error) {
	var v bool
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "yes", "y", "true", "1":
		v = true
	case "no", "n", "false", "0":
		v = false
	default:
		return nil, fmt.Errorf("%q is not a yes/no answer", s)
	}
	return &v, nil
}
