package walker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// formulaFileDoc is the on-disk shape of a user formula preset file.
type formulaFileDoc struct {
	Formulas []formulaEntry `yaml:"formulas"`
}

type formulaEntry struct {
	Name           string `yaml:"name"`
	Kind           string `yaml:"kind"`
	SlowSeconds    int    `yaml:"slow_seconds"`
	FastSeconds    int    `yaml:"fast_seconds"`
	Sets           int    `yaml:"sets"`
	StartsWithFast bool   `yaml:"starts_with_fast"`
}

// LoadFormulaFile reads user-defined formulas from a YAML file. Every entry
// must validate; a single bad entry fails the whole file so the user notices
// instead of silently losing a preset.
func LoadFormulaFile(path string) ([]Formula, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read formula file: %w", err)
	}

	var doc formulaFileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse formula file %s: %w", path, err)
	}

	formulas := make([]Formula, 0, len(doc.Formulas))
	for i, entry := range doc.Formulas {
		kind, err := parsePatternKind(entry.Kind)
		if err != nil {
			return nil, fmt.Errorf("formula file %s entry %d: %w", path, i+1, err)
		}
		f := Formula{
			Name:           entry.Name,
			Kind:           kind,
			SlowSeconds:    entry.SlowSeconds,
			FastSeconds:    entry.FastSeconds,
			Sets:           entry.Sets,
			StartsWithFast: entry.StartsWithFast,
		}
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("formula file %s entry %d: %w", path, i+1, err)
		}
		formulas = append(formulas, f)
	}
	return formulas, nil
}

func parsePatternKind(s string) (PatternKind, error) {
	switch s {
	case "", "interval":
		return PatternInterval, nil
	case "circuit":
		return PatternCircuit, nil
	default:
		return PatternInterval, fmt.Errorf("unknown pattern kind %q (want interval or circuit)", s)
	}
}
