package classifier

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// PathRule fires when a directory segment of a file path matches Segment
type PathRule struct {
	Name    string
	Segment *regexp.Regexp
}

// PatternRule fires when Pattern matches somewhere in the inspected text
type PatternRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// RuleSet is the heuristic's rule table. It is built once and only read afterwards,
// so a single RuleSet can be shared by concurrent classifications.
type RuleSet struct {
	Paths    []PathRule
	Keywords []string
	Patterns []PatternRule
	// Names are matched against declaration and decorator names found in syntax trees.
	Names []PatternRule
}

var defaultKeywords = []string{
	"controller",
	"service",
	"repository",
	"model",
	"validator",
	"middleware",
	"handler",
	"processor",
	"calculate",
	"compute",
	"validate",
	"transform",
	"process",
	"business",
	"logic",
	"rule",
	"workflow",
	"policy",
}

func defaultPatterns() []PatternRule {
	return []PatternRule{
		{Name: "business-verb", Pattern: regexp.MustCompile(`\b(get|set|update|delete|create|process|validate)\w*\b`)},
		{Name: "domain-phrase", Pattern: regexp.MustCompile(`\b(business|domain)\s*(logic|rule|workflow|process)\b`)},
		{Name: "layer-name", Pattern: regexp.MustCompile(`(?i)\b(service|controller|repository|model)\b`)},
		{Name: "layer-annotation", Pattern: regexp.MustCompile(`@(Controller|Service|Repository|Entity|Injectable)`)},
		{Name: "layer-inheritance", Pattern: regexp.MustCompile(`extends\s+(Base)?(Controller|Service|Repository|Model)`)},
	}
}

// DefaultRules returns the built-in rule table
func DefaultRules() *RuleSet {
	return &RuleSet{
		Paths: []PathRule{
			{Name: "services", Segment: regexp.MustCompile(`^services?$`)},
			{Name: "controllers", Segment: regexp.MustCompile(`^controllers?$`)},
			{Name: "models", Segment: regexp.MustCompile(`^models?$`)},
			{Name: "repositories", Segment: regexp.MustCompile(`^(repository|repositories)$`)},
			{Name: "domain", Segment: regexp.MustCompile(`^domain$`)},
			{Name: "business", Segment: regexp.MustCompile(`^business$`)},
			{Name: "core", Segment: regexp.MustCompile(`^core$`)},
		},
		Keywords: append([]string(nil), defaultKeywords...),
		Patterns: defaultPatterns(),
		Names:    defaultPatterns(),
	}
}

type ruleFile struct {
	Paths    []ruleEntry `yaml:"paths"`
	Keywords []string    `yaml:"keywords"`
	Patterns []ruleEntry `yaml:"patterns"`
	Names    []ruleEntry `yaml:"names"`
}

type ruleEntry struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// LoadRules reads a YAML rule table. Sections left out of the file keep their
// defaults; names default to the lexical patterns when omitted.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rules := DefaultRules()

	if len(file.Paths) > 0 {
		rules.Paths = make([]PathRule, 0, len(file.Paths))
		for _, entry := range file.Paths {
			re, err := compileEntry("paths", entry)
			if err != nil {
				return nil, err
			}
			rules.Paths = append(rules.Paths, PathRule{Name: entry.Name, Segment: re})
		}
	}

	if len(file.Keywords) > 0 {
		rules.Keywords = file.Keywords
	}

	if len(file.Patterns) > 0 {
		patterns, err := compileEntries("patterns", file.Patterns)
		if err != nil {
			return nil, err
		}
		rules.Patterns = patterns
		if len(file.Names) == 0 {
			rules.Names = patterns
		}
	}

	if len(file.Names) > 0 {
		names, err := compileEntries("names", file.Names)
		if err != nil {
			return nil, err
		}
		rules.Names = names
	}

	return rules, nil
}

func compileEntries(section string, entries []ruleEntry) ([]PatternRule, error) {
	rules := make([]PatternRule, 0, len(entries))
	for _, entry := range entries {
		re, err := compileEntry(section, entry)
		if err != nil {
			return nil, err
		}
		rules = append(rules, PatternRule{Name: entry.Name, Pattern: re})
	}
	return rules, nil
}

func compileEntry(section string, entry ruleEntry) (*regexp.Regexp, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("rule in %s has no name", section)
	}
	re, err := regexp.Compile(entry.Pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s rule %q: %w", section, entry.Name, err)
	}
	return re, nil
}
