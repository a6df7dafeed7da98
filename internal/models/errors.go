// Package models defines the data structures for the scoring engine.
package models

import (
	"errors"
	"math"
	"strings"
)

// Common errors
var (
	ErrInvalidAge           = errors.New("age must be between 18 and 80")
	ErrInvalidIncome        = errors.New("annual income must be a positive number")
	ErrInvalidCreditScore   = errors.New("credit score must be between 300 and 850")
	ErrInvalidLoanAmount    = errors.New("loan amount must be a positive number")
	ErrInvalidLoanTerm      = errors.New("loan term must be a positive number of months")
	ErrInvalidEducation     = errors.New("invalid education level")
	ErrInvalidEmployment    = errors.New("invalid employment type")
	ErrInvalidMaritalStatus = errors.New("invalid marital status")
	ErrInvalidPropertyArea  = errors.New("invalid property area")
	ErrInvalidDependents    = errors.New("dependents must be one of 0, 1, 2, 3+")
	ErrEmptyEmail           = errors.New("subject or content is required")
	ErrInvalidSender        = errors.New("sender must be an email address")
	ErrInvalidRecipient     = errors.New("recipient must be an email address")
	ErrRecordNotFound       = errors.New("record not found")
)

// Application limits accepted by the loan forms.
const (
	MinAge         = 18
	MaxAge         = 80
	MinCreditScore = 300
	MaxCreditScore = 850
)

// ValidateLoanApplication rejects out-of-domain input before it reaches the scorer.
func ValidateLoanApplication(a *LoanApplication) error {
	if a.Age < MinAge || a.Age > MaxAge {
		return ErrInvalidAge
	}

	if !isPositiveFinite(a.AnnualIncome) {
		return ErrInvalidIncome
	}

	if a.CreditScore < MinCreditScore || a.CreditScore > MaxCreditScore {
		return ErrInvalidCreditScore
	}

	if !isPositiveFinite(a.LoanAmount) {
		return ErrInvalidLoanAmount
	}

	if a.LoanTermMonths <= 0 {
		return ErrInvalidLoanTerm
	}

	if !a.Education.IsValid() {
		return ErrInvalidEducation
	}

	if !a.Employment.IsValid() {
		return ErrInvalidEmployment
	}

	if !a.MaritalStatus.IsValid() {
		return ErrInvalidMaritalStatus
	}

	if !a.PropertyArea.IsValid() {
		return ErrInvalidPropertyArea
	}

	if !a.Dependents.IsValid() {
		return ErrInvalidDependents
	}

	return nil
}

// ValidateEmailInput checks that there is something to classify.
// An empty sender is allowed; the domain check is then skipped.
func ValidateEmailInput(in *EmailInput) error {
	if strings.TrimSpace(in.Subject) == "" && strings.TrimSpace(in.Content) == "" {
		return ErrEmptyEmail
	}

	if in.Sender != "" && !isValidEmail(in.Sender) {
		return ErrInvalidSender
	}

	return nil
}

// ValidateRecipient checks a notification address.
func ValidateRecipient(email string) error {
	if !isValidEmail(strings.TrimSpace(email)) {
		return ErrInvalidRecipient
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// isValidEmail performs basic email validation.
func isValidEmail(email string) bool {
	atIndex := strings.Index(email, "@")
	if atIndex <= 0 || atIndex == len(email)-1 {
		return false
	}

	// Must have a dot after @
	dotIndex := strings.LastIndex(email, ".")
	if dotIndex <= atIndex+1 || dotIndex == len(email)-1 {
		return false
	}

	return true
}

// NormalizeEducation converts form spellings to an Education value.
func NormalizeEducation(s string) Education {
	switch normalizeToken(s) {
	case "graduate", "grad", "yes":
		return EducationGraduate
	case "notgraduate", "nongraduate", "undergraduate", "no":
		return EducationNotGraduate
	}
	return Education(strings.TrimSpace(s))
}

// NormalizeEmploymentType converts form spellings to an EmploymentType value.
func NormalizeEmploymentType(s string) EmploymentType {
	switch normalizeToken(s) {
	case "salaried", "employed", "fulltime", "salary":
		return EmploymentSalaried
	case "selfemployed", "business", "businessowner", "freelancer", "entrepreneur":
		return EmploymentSelfEmployed
	}
	return EmploymentType(strings.TrimSpace(s))
}

// NormalizeMaritalStatus accepts "Married"/"Single" as well as the "Yes"/"No"
// answers of a "Married?" form field. Blank means not supplied.
func NormalizeMaritalStatus(s string) MaritalStatus {
	switch normalizeToken(s) {
	case "":
		return MaritalUnknown
	case "married", "yes":
		return MaritalMarried
	case "single", "unmarried", "no":
		return MaritalSingle
	}
	return MaritalStatus(strings.TrimSpace(s))
}

// NormalizePropertyArea converts form spellings to a PropertyArea value.
func NormalizePropertyArea(s string) PropertyArea {
	switch normalizeToken(s) {
	case "urban":
		return PropertyUrban
	case "semiurban":
		return PropertySemiurban
	case "rural":
		return PropertyRural
	}
	return PropertyArea(strings.TrimSpace(s))
}

// normalizeToken lowercases and strips separators so "Self-Employed" == "self_employed".
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
