package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
)

// Rules are the game-system knobs of a session
type Rules struct {
	MaxActionsPerDay     int                 `yaml:"max_actions_per_day"`
	Critical             dice.CriticalPolicy `yaml:"critical"`
	BaseTargetNumber     int                 `yaml:"base_target_number"`
	NPCBatch             bool                `yaml:"npc_batch"`
	MinutesPerDay        int                 `yaml:"minutes_per_day"`
	DefaultActionMinutes int                 `yaml:"default_action_minutes"`
}

// DefaultRules returns the rules used when no rules file is configured
func DefaultRules() *Rules {
	return &Rules{
		MaxActionsPerDay:     entities.DefaultMaxActionsPerDay,
		Critical:             dice.DefaultCriticalPolicy(),
		BaseTargetNumber:     combat.DefaultBaseTargetNumber,
		NPCBatch:             true,
		MinutesPerDay:        exploration.DefaultMinutesPerDay,
		DefaultActionMinutes: exploration.DefaultActionMinutes,
	}
}

// LoadRules reads the YAML rules document at path
func LoadRules(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rules: open %q: %w", path, err)
	}
	defer f.Close()

	rules, err := LoadRulesFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("rules: parse %q: %w", path, err)
	}
	return rules, nil
}

// LoadRulesFromReader decodes rules over the defaults; keys left out keep their default
func LoadRulesFromReader(r io.Reader) (*Rules, error) {
	rules := DefaultRules()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(rules); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("rules: decode yaml: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// Validate returns every problem found, joined
func (r *Rules) Validate() error {
	var errs []error
	if r.MaxActionsPerDay < 1 {
		errs = append(errs, fmt.Errorf("max_actions_per_day must be at least 1, got %d", r.MaxActionsPerDay))
	}
	if err := r.Critical.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("critical: %w", err))
	}
	if r.BaseTargetNumber < 1 {
		errs = append(errs, fmt.Errorf("base_target_number must be positive, got %d", r.BaseTargetNumber))
	}
	if r.MinutesPerDay < 1 {
		errs = append(errs, fmt.Errorf("minutes_per_day must be positive, got %d", r.MinutesPerDay))
	}
	if r.DefaultActionMinutes < 1 {
		errs = append(errs, fmt.Errorf("default_action_minutes must be positive, got %d", r.DefaultActionMinutes))
	}
	return errors.Join(errs...)
}

// TrackerOptions converts the time budget into exploration preview options
func (r *Rules) TrackerOptions() *exploration.Options {
	return &exploration.Options{
		DefaultActionMinutes: r.DefaultActionMinutes,
		MinutesPerDay:        r.MinutesPerDay,
	}
}
