package dice

import (
	"fmt"
)

// Outcome is the result of comparing a roll against a target number
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeFailure         Outcome = "failure"
	OutcomeCriticalSuccess Outcome = "criticalSuccess"
	OutcomeCriticalFailure Outcome = "criticalFailure"
)

// IsSuccess reports whether the outcome counts as a success
func (o Outcome) IsSuccess() bool {
	return o == OutcomeSuccess || o == OutcomeCriticalSuccess
}

// CriticalMode selects when natural results become criticals
type CriticalMode string

const (
	// CriticalSingleDie applies criticals only to single-die rolls
	CriticalSingleDie CriticalMode = "single_die_only"
	// CriticalAllDice applies criticals when every die shows its max (or 1)
	CriticalAllDice CriticalMode = "all_dice"
	// CriticalDisabled never produces criticals
	CriticalDisabled CriticalMode = "disabled"
)

// CriticalPolicy is the configurable check policy. Game systems disagree here.
type CriticalPolicy struct {
	Mode CriticalMode `yaml:"mode"`
	// TieIsSuccess makes a total equal to the target number succeed
	TieIsSuccess bool `yaml:"tie_is_success"`
}

// DefaultCriticalPolicy criticals on single dice only and counts ties as success
func DefaultCriticalPolicy() CriticalPolicy {
	return CriticalPolicy{
		Mode:         CriticalSingleDie,
		TieIsSuccess: true,
	}
}

// Validate checks the policy mode
func (p CriticalPolicy) Validate() error {
	switch p.Mode {
	case CriticalSingleDie, CriticalAllDice, CriticalDisabled:
		return nil
	default:
		return fmt.Errorf("unknown critical mode %q", p.Mode)
	}
}

// Check compares result against target under policy
func Check(result *RollResult, target int, policy CriticalPolicy) Outcome {
	if crit, ok := critical(result, policy.Mode); ok {
		return crit
	}

	if result.Total > target || (policy.TieIsSuccess && result.Total == target) {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

func critical(result *RollResult, mode CriticalMode) (Outcome, bool) {
	if result == nil || len(result.Rolls) == 0 {
		return "", false
	}

	switch mode {
	case CriticalSingleDie:
		if len(result.Rolls) != 1 {
			return "", false
		}
	case CriticalAllDice:
	default:
		return "", false
	}

	allMax, allMin := true, true
	for _, roll := range result.Rolls {
		if roll != result.Sides {
			allMax = false
		}
		if roll != 1 {
			allMin = false
		}
	}

	switch {
	case allMax:
		return OutcomeCriticalSuccess, true
	case allMin:
		return OutcomeCriticalFailure, true
	}
	return "", false
}
