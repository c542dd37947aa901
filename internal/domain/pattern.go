package domain

import (
	"fmt"
	"regexp"
)

// PatternSpec is the uncompiled form of a measurement pattern as it appears
// in configuration.
type PatternSpec struct {
	Kind string `json:"kind"`
	Expr string `json:"pattern"`
}

// Pattern pairs a measurement kind with its compiled expression.
type Pattern struct {
	Kind string
	Expr *regexp.Regexp
}

// PatternSet is an ordered list of patterns. Slice order is match priority:
// ExtractOne returns the first pattern that matches, so two sets with the
// same patterns in a different order are different sets.
type PatternSet []Pattern

// CompilePatterns compiles an ordered list of pattern specs. Every expression
// must carry at least one capturing group for the numeric literal; duplicate
// kinds are rejected because the means grid keys columns by kind.
func CompilePatterns(specs []PatternSpec) (PatternSet, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("compile patterns: at least one pattern is required")
	}

	set := make(PatternSet, 0, len(specs))
	seen := make(map[string]struct{}, len(specs))
	for _, spec := range specs {
		if spec.Kind == "" {
			return nil, fmt.Errorf("compile patterns: pattern %q has no kind", spec.Expr)
		}
		if _, dup := seen[spec.Kind]; dup {
			return nil, fmt.Errorf("compile patterns: duplicate kind %q", spec.Kind)
		}
		re, err := regexp.Compile(spec.Expr)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", spec.Kind, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("compile pattern %q: expression has no capturing group", spec.Kind)
		}
		seen[spec.Kind] = struct{}{}
		set = append(set, Pattern{Kind: spec.Kind, Expr: re})
	}
	return set, nil
}

// DefaultPatternSpecs are the stock patterns used when no PATTERNS_FILE is
// configured: millimetres of rainfall and degrees Celsius.
func DefaultPatternSpecs() []PatternSpec {
	return []PatternSpec{
		{Kind: "Rainfall", Expr: `(\d+(\.\d+)?)\s?mm`},
		{Kind: "Temperature", Expr: `(\d+(\.\d+)?)\s?C`},
	}
}
