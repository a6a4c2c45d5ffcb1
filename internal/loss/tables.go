// Package loss converts detections into financial impact. All weighting
// lives in an embedded table file so the numbers can be reviewed without
// reading code.
package loss

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Tables holds the financial weighting data.
type Tables struct {
	IndustryMultipliers map[string]float64 `yaml:"industry_multipliers"`
	TypeWeights         map[string]float64 `yaml:"type_weights"`
	FixRates            map[string]float64 `yaml:"fix_rates"`
	HardToQuantify      []string           `yaml:"hard_to_quantify"`

	hardToQuantify map[string]bool
}

// LoadTables parses the embedded weighting tables.
func LoadTables() (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
		return nil, fmt.Errorf("parse loss tables: %w", err)
	}
	if len(t.IndustryMultipliers) == 0 || len(t.TypeWeights) == 0 || len(t.FixRates) == 0 {
		return nil, fmt.Errorf("loss tables incomplete")
	}
	t.hardToQuantify = make(map[string]bool, len(t.HardToQuantify))
	for _, name := range t.HardToQuantify {
		t.hardToQuantify[name] = true
	}
	return &t, nil
}

// IndustryMultiplier returns the multiplier for an industry, defaulting
// to the GENERAL row for unknown industries.
func (t *Tables) IndustryMultiplier(industry string) float64 {
	if m, ok := t.IndustryMultipliers[industry]; ok {
		return m
	}
	return t.IndustryMultipliers["GENERAL"]
}

// TypeWeight returns the weight for an inefficiency type, defaulting to 1.
func (t *Tables) TypeWeight(ineffType string) float64 {
	if w, ok := t.TypeWeights[ineffType]; ok {
		return w
	}
	return 1.0
}

// FixRate returns the expected recovery fraction for a type, defaulting
// to 0.5 for unlisted types.
func (t *Tables) FixRate(ineffType string) float64 {
	if r, ok := t.FixRates[ineffType]; ok {
		return r
	}
	return 0.5
}

// IsHardToQuantify reports whether monetary estimates for the type carry
// structural uncertainty.
func (t *Tables) IsHardToQuantify(ineffType string) bool {
	return t.hardToQuantify[ineffType]
}
