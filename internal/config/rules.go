package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"advisor/internal/dispatch"
)

// LoadRules reads the orchestration ruleset from a YAML file. An empty path
// returns the built-in default ruleset with no error; a bad or missing file
// returns the defaults alongside the error so the caller can log and
// continue (a broken rules file must never stop the advisor).
func LoadRules(path string) (dispatch.Rules, error) {
	if path == "" {
		return dispatch.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return dispatch.DefaultRules(), fmt.Errorf("reading rules file: %w", err)
	}

	var rules dispatch.Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return dispatch.DefaultRules(), fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	// A rules file may override only the trigger table; missing signal
	// fields fall back to the defaults so pattern grouping keeps working.
	if len(rules.SignalFields) == 0 {
		rules.SignalFields = dispatch.DefaultRules().SignalFields
	}
	return rules, nil
}

// SaveRules writes a ruleset as YAML, mainly for scaffolding a starter
// rules file.
func SaveRules(path string, rules dispatch.Rules) error {
	data, err := yaml.Marshal(rules)
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing rules file: %w", err)
	}
	return nil
}
