// Package utils provides utility functions for the scoring engine.
package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scoring-engine/internal/models"
)

// CSVParser errors
var (
	ErrEmptyCSV       = errors.New("CSV content is empty")
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoDataRows     = errors.New("CSV file contains no data rows")
)

// RequiredColumns defines the columns that must be present in the CSV.
var RequiredColumns = []string{
	"age",
	"annual_income",
	"credit_score",
	"loan_amount",
	"loan_term",
	"education",
	"employment",
	"property_area",
	"dependents",
}

// ColumnAliases maps alternative column names to standard names.
var ColumnAliases = map[string]string{
	// age aliases
	"applicant_age": "age",
	"age_years":     "age",

	// income aliases
	"income":           "annual_income",
	"annualincome":     "annual_income",
	"annual income":    "annual_income",
	"applicantincome":  "annual_income",
	"applicant_income": "annual_income",
	"yearly_income":    "annual_income",
	"monthly_income":   "annual_income", // Will multiply by 12
	"monthlyincome":    "annual_income",
	"monthly income":   "annual_income",
	"monthly_salary":   "annual_income",

	// credit_score aliases
	"creditscore":  "credit_score",
	"credit score": "credit_score",
	"cibil":        "credit_score",
	"cibil_score":  "credit_score",
	"cibilscore":   "credit_score",

	// loan_amount aliases
	"loanamount":  "loan_amount",
	"loan amount": "loan_amount",
	"amount":      "loan_amount",

	// loan_term aliases
	"loanterm":         "loan_term",
	"loan term":        "loan_term",
	"loan_amount_term": "loan_term",
	"term":             "loan_term",
	"term_months":      "loan_term",

	// employment aliases
	"employment_type": "employment",
	"employmenttype":  "employment",
	"self_employed":   "employment", // Yes/No column
	"selfemployed":    "employment",

	// property_area aliases
	"propertyarea":  "property_area",
	"property area": "property_area",
	"area":          "property_area",

	// optional married / existing_loan aliases
	"marital_status": "married",
	"existingloan":   "existing_loan",
	"existing loan":  "existing_loan",
	"has_loan":       "existing_loan",
}

// CSVParser handles parsing of loan application CSV files.
type CSVParser struct {
	columnMapping   map[string]int
	originalHeaders map[string]string // Maps normalized column name to original header
}

// NewCSVParser creates a new CSV parser instance.
func NewCSVParser() *CSVParser {
	return &CSVParser{
		columnMapping:   make(map[string]int),
		originalHeaders: make(map[string]string),
	}
}

// ParsedApplication is one valid CSV row.
type ParsedApplication struct {
	Line        int
	Application models.LoanApplication
}

// ParseApplications parses CSV content into validated applications.
// Invalid rows are reported with their line number and skipped.
func (p *CSVParser) ParseApplications(content string) ([]ParsedApplication, []error) {
	if strings.TrimSpace(content) == "" {
		return nil, []error{ErrEmptyCSV}
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read header: %w", err)}
	}

	// Build column mapping
	if err := p.buildColumnMapping(header); err != nil {
		return nil, []error{err}
	}

	var apps []ParsedApplication
	var parseErrors []error
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		if isBlankRecord(record) {
			continue
		}

		app, err := p.parseRow(record)
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}

		apps = append(apps, ParsedApplication{Line: lineNum, Application: app})
	}

	if len(apps) == 0 {
		return nil, append([]error{ErrNoDataRows}, parseErrors...)
	}

	return apps, parseErrors
}

// buildColumnMapping creates a mapping of standard column names to their indices.
func (p *CSVParser) buildColumnMapping(header []string) error {
	p.columnMapping = make(map[string]int)
	p.originalHeaders = make(map[string]string)

	for i, col := range header {
		normalized := normalizeHeader(col)
		original := normalized

		// Apply alias if exists
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}

		p.columnMapping[normalized] = i
		p.originalHeaders[normalized] = original
	}

	var missing []string
	for _, required := range RequiredColumns {
		if _, ok := p.columnMapping[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return nil
}

// parseRow turns one record into a form and runs it through the form parser.
func (p *CSVParser) parseRow(record []string) (models.LoanApplication, error) {
	value := func(column string) FormValue {
		idx, ok := p.columnMapping[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return FormValue(strings.TrimSpace(record[idx]))
	}

	form := LoanForm{
		Age:          value("age"),
		Income:       value("annual_income"),
		CreditScore:  value("credit_score"),
		LoanAmount:   value("loan_amount"),
		LoanTerm:     value("loan_term"),
		Education:    value("education"),
		Employment:   value("employment"),
		Married:      value("married"),
		PropertyArea: value("property_area"),
		Dependents:   value("dependents"),
		ExistingLoan: value("existing_loan"),
	}

	// Monthly figures are converted to annual income
	if strings.Contains(p.originalHeaders["annual_income"], "monthly") {
		monthly, err := parseFloat(form.Income.String())
		if err != nil {
			return models.LoanApplication{}, fmt.Errorf("invalid income: %w", err)
		}
		form.Income = FormValue(strconv.FormatFloat(monthly*12, 'f', -1, 64))
	}

	// A self_employed column holds Yes/No rather than an employment type
	if strings.Contains(p.originalHeaders["employment"], "self") {
		if yes, err := parseOptionalBool(form.Employment.String()); err == nil && yes != nil {
			if *yes {
				form.Employment = FormValue(models.EmploymentSelfEmployed)
			} else {
				form.Employment = FormValue(models.EmploymentSalaried)
			}
		}
	}

	return ParseLoanForm(form)
}

func normalizeHeader(col string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseFloat parses a string to float64, handling common formats.
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	// Remove commas and currency symbols
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)

	return strconv.ParseFloat(s, 64)
}

// parseInt parses a string to int, handling common formats.
func parseInt(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty value")
	}

	// Remove commas
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Handle float strings (e.g., "750.0")
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		return int(f), nil
	}

	return strconv.Atoi(s)
}

// ValidateCSVStructure performs a quick validation of CSV structure without full parsing.
func ValidateCSVStructure(content string) *CSVValidationResult {
	result := &CSVValidationResult{
		Columns:        []string{},
		MissingColumns: []string{},
		Errors:         []string{},
	}

	if strings.TrimSpace(content) == "" {
		result.Errors = append(result.Errors, "empty file")
		return result
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read header: %v", err))
		return result
	}

	normalizedColumns := make(map[string]bool)
	for _, col := range header {
		normalized := normalizeHeader(col)
		if alias, ok := ColumnAliases[normalized]; ok {
			normalized = alias
		}
		normalizedColumns[normalized] = true
		result.Columns = append(result.Columns, col)
	}

	for _, required := range RequiredColumns {
		if !normalizedColumns[required] {
			result.MissingColumns = append(result.MissingColumns, required)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row error: %v", err))
			continue
		}
		if !isBlankRecord(record) {
			result.RowCount++
		}
	}

	result.Valid = len(result.MissingColumns) == 0 && result.RowCount > 0

	return result
}

// CSVValidationResult contains the results of CSV validation.
type CSVValidationResult struct {
	Valid          bool     `json:"valid"`
	RowCount       int      `json:"row_count"`
	Columns        []string `json:"columns"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}
