package classifier

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"scoring-engine/internal/models"
)

var (
	punctuationRun = regexp.MustCompile(`[!?]{2,}`)
	urlPattern     = regexp.MustCompile(`(?i)https?://\S+`)
)

const (
	minConfidence = 50
	maxConfidence = 95
)

// Classifier binds a rule table. It holds no mutable state.
type Classifier struct {
	rules PatternRuleTable
}

// New creates a classifier for the given table.
func New(rules PatternRuleTable) *Classifier {
	return &Classifier{rules: rules}
}

// Rules returns the bound table.
func (c *Classifier) Rules() PatternRuleTable {
	return c.rules
}

// Classify evaluates one message against the bound table.
func (c *Classifier) Classify(in models.EmailInput) models.EmailClassification {
	return Classify(in.Subject, in.Sender, in.Content, c.rules)
}

// Classify scores a message. Any strings, including empty ones, produce a result.
func Classify(subject, sender, content string, rules PatternRuleTable) models.EmailClassification {
	text := subject + " " + content
	blob := strings.ToLower(text)

	score := 0
	var flags flagSet

	for _, rule := range rules.Rules {
		if rule.Pattern == nil {
			continue
		}
		if n := len(rule.Pattern.FindAllStringIndex(blob, -1)); n > 0 {
			score += rule.Weight * n
			flags.add(rule.Description)
		}
	}

	if domain := senderDomain(sender); domain != "" {
		switch {
		case containsAny(domain, rules.SuspiciousDomains):
			score += rules.SuspiciousDomainPoints
			flags.add(FlagSuspiciousDomain)
		case containsAny(domain, rules.TrustedDomains):
			score += rules.TrustedDomainPoints
		}
	}

	if capsRatio(text) > rules.CapsRatioThreshold {
		score += rules.CapsPoints
		flags.add(FlagCapitalization)
	}

	if runs := len(punctuationRun.FindAllStringIndex(blob, -1)); runs > 0 {
		score += runs * rules.PunctuationPoints
		flags.add(FlagPunctuation)
	}

	if urls := len(urlPattern.FindAllStringIndex(blob, -1)); urls > rules.URLThreshold {
		score += rules.URLPoints
		flags.add(FlagURLs)
	}

	return models.EmailClassification{
		IsSpam:            score > rules.SpamThreshold,
		ConfidencePercent: confidence(score),
		FlaggedPatterns:   flags.list(),
		RawScore:          score,
	}
}

// senderDomain returns the lowercased text between the first and second '@'.
func senderDomain(sender string) string {
	parts := strings.Split(sender, "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func containsAny(domain string, entries []string) bool {
	for _, e := range entries {
		if e != "" && strings.Contains(domain, strings.ToLower(e)) {
			return true
		}
	}
	return false
}

// capsRatio counts ASCII capitals over the rune length of the original text.
func capsRatio(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	upper := 0
	for i := 0; i < len(text); i++ {
		if text[i] >= 'A' && text[i] <= 'Z' {
			upper++
		}
	}
	return float64(upper) / float64(n)
}

func confidence(score int) int {
	v := math.Abs(float64(score)) * 10
	v = math.Min(maxConfidence, math.Max(minConfidence, v))
	return int(math.Floor(v + 0.5))
}

// flagSet keeps descriptions unique in first-seen order.
type flagSet struct {
	seen  map[string]struct{}
	order []string
}

func (f *flagSet) add(desc string) {
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	if _, ok := f.seen[desc]; ok {
		return
	}
	f.seen[desc] = struct{}{}
	f.order = append(f.order, desc)
}

func (f *flagSet) list() []string {
	if f.order == nil {
		return []string{}
	}
	return f.order
}
