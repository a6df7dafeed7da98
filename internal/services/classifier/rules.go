// Package classifier implements the weighted text-pattern e-mail classifier.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternRule adds Weight for every match of Pattern and flags Description once.
type PatternRule struct {
	Pattern     *regexp.Regexp
	Weight      int
	Description string
}

// NewPatternRule compiles expr case-insensitively.
func NewPatternRule(expr string, weight int, description string) (PatternRule, error) {
	if strings.TrimSpace(description) == "" {
		return PatternRule{}, fmt.Errorf("pattern %q: description is required", expr)
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return PatternRule{}, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return PatternRule{Pattern: re, Weight: weight, Description: description}, nil
}

func mustRule(expr string, weight int, description string) PatternRule {
	r, err := NewPatternRule(expr, weight, description)
	if err != nil {
		panic(err)
	}
	return r
}

// Flag labels produced by the built-in checks.
const (
	FlagSuspiciousDomain = "Suspicious sender domain"
	FlagCapitalization   = "Excessive capitalization"
	FlagPunctuation      = "Excessive punctuation"
	FlagURLs             = "Multiple suspicious URLs"
)

// PatternRuleTable is everything the classifier evaluates. Rules are applied in order.
type PatternRuleTable struct {
	Rules []PatternRule

	SuspiciousDomains      []string
	TrustedDomains         []string
	SuspiciousDomainPoints int
	TrustedDomainPoints    int

	CapsRatioThreshold float64
	CapsPoints         int

	// PunctuationPoints is added per run of two or more '!' or '?'.
	PunctuationPoints int

	URLThreshold int
	URLPoints    int

	// SpamThreshold is exclusive: a raw score must exceed it.
	SpamThreshold int
}

// DefaultRules returns the standard rule table.
func DefaultRules() PatternRuleTable {
	return PatternRuleTable{
		Rules: []PatternRule{
			// high risk
			mustRule(`\b(viagra|cialis|levitra)\b`, 8, "Pharmaceutical spam"),
			mustRule(`\b(lottery|winner|congratulations|claim.*prize)\b`, 7, "Lottery/Prize scam"),
			mustRule(`\b(urgent|act now|limited time|expires|hurry)\b`, 6, "Urgency manipulation"),
			mustRule(`\b(free money|make money|earn \$|get rich)\b`, 7, "Financial scam"),
			mustRule(`\b(click here|visit now|download now)\b`, 5, "Suspicious call-to-action"),

			// medium risk
			mustRule(`\b(deal|offer|discount|sale|50% off)\b`, 3, "Promotional content"),
			mustRule(`\b(subscribe|unsubscribe|opt-out)\b`, 2, "Subscription-related"),
			mustRule(`\b(credit|loan|debt|mortgage)\b`, 4, "Financial services"),
			mustRule(`\b(weight loss|lose weight|diet pill)\b`, 5, "Health/Weight loss"),
			mustRule(`\b(casino|gambling|poker|slots)\b`, 6, "Gambling content"),

			// low risk
			mustRule(`\b(newsletter|update|notification)\b`, 1, "Newsletter content"),
			mustRule(`\b(meeting|conference|webinar)\b`, -1, "Business communication"),
			mustRule(`\b(invoice|receipt|payment|order)\b`, -2, "Transaction-related"),
		},
		SuspiciousDomains:      []string{"tempmail.com", "guerrillamail.com", "10minutemail.com", "mailinator.com"},
		TrustedDomains:         []string{"gmail.com", "outlook.com", "yahoo.com", "company.com", "edu", "gov"},
		SuspiciousDomainPoints: 5,
		TrustedDomainPoints:    -2,
		CapsRatioThreshold:     0.3,
		CapsPoints:             3,
		PunctuationPoints:      2,
		URLThreshold:           3,
		URLPoints:              4,
		SpamThreshold:          5,
	}
}
