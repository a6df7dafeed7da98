// Package ruleset loads scoring presets and the e-mail pattern table from a YAML file.
package ruleset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"scoring-engine/internal/services/classifier"
	"scoring-engine/internal/services/scoring"
)

// RuleSet is the parsed content of a rules file.
type RuleSet struct {
	Presets  []scoring.ScoringConfig
	Patterns classifier.PatternRuleTable
}

type file struct {
	ScoringPresets []yaml.Node      `yaml:"scoring_presets"`
	Classifier     *classifierBlock `yaml:"classifier"`
}

type presetHeader struct {
	Name string `yaml:"name"`
	Base string `yaml:"base"`
}

type ruleEntry struct {
	Pattern     string `yaml:"pattern"`
	Weight      int    `yaml:"weight"`
	Description string `yaml:"description"`
}

type classifierBlock struct {
	// ReplaceRules drops the default patterns instead of appending to them.
	ReplaceRules      bool        `yaml:"replace_rules"`
	Rules             []ruleEntry `yaml:"rules"`
	SuspiciousDomains []string    `yaml:"suspicious_domains"`
	TrustedDomains    []string    `yaml:"trusted_domains"`

	SuspiciousDomainPoints *int     `yaml:"suspicious_domain_points"`
	TrustedDomainPoints    *int     `yaml:"trusted_domain_points"`
	CapsRatioThreshold     *float64 `yaml:"caps_ratio_threshold"`
	CapsPoints             *int     `yaml:"caps_points"`
	PunctuationPoints      *int     `yaml:"punctuation_points"`
	URLThreshold           *int     `yaml:"url_threshold"`
	URLPoints              *int     `yaml:"url_points"`
	SpamThreshold          *int     `yaml:"spam_threshold"`
}

// Default returns the built-in rule set: no extra presets and the default pattern table.
func Default() *RuleSet {
	return &RuleSet{Patterns: classifier.DefaultRules()}
}

// Load reads a rules file. An empty path or a missing file yields the defaults.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes rules from YAML. Each preset starts from its base preset
// (canonical when unset) and overrides only the keys it lists.
func Parse(data []byte) (*RuleSet, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	rs := Default()

	for i := range f.ScoringPresets {
		cfg, err := decodePreset(&f.ScoringPresets[i])
		if err != nil {
			return nil, err
		}
		rs.Presets = append(rs.Presets, cfg)
	}

	if f.Classifier != nil {
		table, err := f.Classifier.apply(rs.Patterns)
		if err != nil {
			return nil, err
		}
		rs.Patterns = table
	}

	return rs, nil
}

func decodePreset(node *yaml.Node) (scoring.ScoringConfig, error) {
	var head presetHeader
	if err := node.Decode(&head); err != nil {
		return scoring.ScoringConfig{}, fmt.Errorf("preset at line %d: %w", node.Line, err)
	}
	if head.Name == "" {
		return scoring.ScoringConfig{}, fmt.Errorf("preset at line %d: name is required", node.Line)
	}

	cfg, err := scoring.Preset(head.Base)
	if err != nil {
		return scoring.ScoringConfig{}, fmt.Errorf("preset %s: %w", head.Name, err)
	}
	cfg.Description = ""

	if err := node.Decode(&cfg); err != nil {
		return scoring.ScoringConfig{}, fmt.Errorf("preset %s: %w", head.Name, err)
	}
	if err := cfg.Validate(); err != nil {
		return scoring.ScoringConfig{}, fmt.Errorf("preset %s: %w", head.Name, err)
	}
	return cfg, nil
}

func (b *classifierBlock) apply(table classifier.PatternRuleTable) (classifier.PatternRuleTable, error) {
	rules := make([]classifier.PatternRule, 0, len(table.Rules)+len(b.Rules))
	if !b.ReplaceRules {
		rules = append(rules, table.Rules...)
	}
	for _, e := range b.Rules {
		r, err := classifier.NewPatternRule(e.Pattern, e.Weight, e.Description)
		if err != nil {
			return table, err
		}
		rules = append(rules, r)
	}
	table.Rules = rules

	if b.SuspiciousDomains != nil {
		table.SuspiciousDomains = b.SuspiciousDomains
	}
	if b.TrustedDomains != nil {
		table.TrustedDomains = b.TrustedDomains
	}

	setInt(&table.SuspiciousDomainPoints, b.SuspiciousDomainPoints)
	setInt(&table.TrustedDomainPoints, b.TrustedDomainPoints)
	setInt(&table.CapsPoints, b.CapsPoints)
	setInt(&table.PunctuationPoints, b.PunctuationPoints)
	setInt(&table.URLThreshold, b.URLThreshold)
	setInt(&table.URLPoints, b.URLPoints)
	setInt(&table.SpamThreshold, b.SpamThreshold)
	if b.CapsRatioThreshold != nil {
		table.CapsRatioThreshold = *b.CapsRatioThreshold
	}

	return table, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// RegisterPresets adds the loaded presets to the registry.
func (rs *RuleSet) RegisterPresets(reg *scoring.Registry) error {
	for _, cfg := range rs.Presets {
		if err := reg.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}
