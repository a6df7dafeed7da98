// Package models defines the data structures for the scoring engine.
package models

import (
	"strconv"
)

// Education represents the applicant's education level.
type Education string

const (
	EducationGraduate    Education = "Graduate"
	EducationNotGraduate Education = "NotGraduate"
)

// IsValid checks if the education level is known.
func (e Education) IsValid() bool {
	return e == EducationGraduate || e == EducationNotGraduate
}

// EmploymentType represents how the applicant earns their income.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "Salaried"
	EmploymentSelfEmployed EmploymentType = "SelfEmployed"
)

// IsValid checks if the employment type is known.
func (e EmploymentType) IsValid() bool {
	return e == EmploymentSalaried || e == EmploymentSelfEmployed
}

// MaritalStatus is optional; the empty value means it was not supplied.
type MaritalStatus string

const (
	MaritalUnknown MaritalStatus = ""
	MaritalMarried MaritalStatus = "Married"
	MaritalSingle  MaritalStatus = "Single"
)

// IsValid checks if the marital status is known or absent.
func (m MaritalStatus) IsValid() bool {
	return m == MaritalUnknown || m == MaritalMarried || m == MaritalSingle
}

// PropertyArea represents where the financed property is located.
type PropertyArea string

const (
	PropertyUrban     PropertyArea = "Urban"
	PropertySemiurban PropertyArea = "Semiurban"
	PropertyRural     PropertyArea = "Rural"
)

// IsValid checks if the property area is known.
func (p PropertyArea) IsValid() bool {
	return p == PropertyUrban || p == PropertySemiurban || p == PropertyRural
}

// Dependents is the form value for the number of dependents: "0", "1", "2" or "3+".
type Dependents string

const (
	Dependents0       Dependents = "0"
	Dependents1       Dependents = "1"
	Dependents2       Dependents = "2"
	Dependents3OrMore Dependents = "3+"
)

// dependentsOpenEnd is the count used for the "3+" option.
const dependentsOpenEnd = 4

// IsValid checks if the dependents value is one of the form options.
func (d Dependents) IsValid() bool {
	switch d {
	case Dependents0, Dependents1, Dependents2, Dependents3OrMore:
		return true
	}
	return false
}

// Count maps the form value to a number. "3+" counts as 4.
func (d Dependents) Count() int {
	if d == Dependents3OrMore {
		return dependentsOpenEnd
	}
	n, err := strconv.Atoi(string(d))
	if err != nil {
		return 0
	}
	return n
}

// CommonLoanTerms are the loan terms offered by the application form, in months.
var CommonLoanTerms = []int{12, 24, 36, 48, 60, 84, 120}

// LoanApplication is the input of a single scoring call.
type LoanApplication struct {
	Age             int            `json:"age"`
	AnnualIncome    float64        `json:"annual_income"`
	CreditScore     int            `json:"credit_score"`
	LoanAmount      float64        `json:"loan_amount"`
	LoanTermMonths  int            `json:"loan_term_months"`
	Education       Education      `json:"education"`
	Employment      EmploymentType `json:"employment"`
	MaritalStatus   MaritalStatus  `json:"marital_status,omitempty"`
	PropertyArea    PropertyArea   `json:"property_area"`
	Dependents      Dependents     `json:"dependents"`
	HasExistingLoan *bool          `json:"has_existing_loan,omitempty"`
}

// LoanDecision is the output of a scoring call.
type LoanDecision struct {
	Approved          bool     `json:"approved"`
	ConfidencePercent int      `json:"confidence_percent"`
	RiskScore         int      `json:"risk_score"`
	TotalScore        int      `json:"total_score"`
	Factors           []string `json:"factors"`
	Preset            string   `json:"preset,omitempty"`
}
