package exploration

import (
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

const (
	// DefaultActionMinutes is used when an action does not state its time
	DefaultActionMinutes = 60

	// DefaultMinutesPerDay models an 8-hour active day
	DefaultMinutesPerDay = 8 * 60
)

// Source names where a previewed action came from
type Source struct {
	Type entities.RequirementType
	ID   string
}

// PreviewAction is a deduplicated exploration action with its owner
type PreviewAction struct {
	Action  *entities.ExplorationAction
	Source  Source
	Minutes int
}

// Preview is the aggregate estimate for a set of requirements
type Preview struct {
	TotalActions  int
	ActionsByType map[entities.ExplorationActionType]int
	TotalMinutes  int
	EstimatedDays int
	Actions       []PreviewAction

	// Unresolved lists referenced ids that were not in the supplied collections
	Unresolved []Source
}

// Options tunes the estimate
type Options struct {
	DefaultActionMinutes int
	MinutesPerDay        int
}

// Tracker computes exploration previews
type Tracker struct {
	defaultMinutes int
	minutesPerDay  int
}

// NewTracker creates a tracker. A nil opts uses the defaults.
func NewTracker(opts *Options) *Tracker {
	t := &Tracker{
		defaultMinutes: DefaultActionMinutes,
		minutesPerDay:  DefaultMinutesPerDay,
	}
	if opts != nil {
		if opts.DefaultActionMinutes > 0 {
			t.defaultMinutes = opts.DefaultActionMinutes
		}
		if opts.MinutesPerDay > 0 {
			t.minutesPerDay = opts.MinutesPerDay
		}
	}
	return t
}

// Preview aggregates the exploration actions referenced by requirements.
// Sources are visited events first, then quests, then enemies; the first
// occurrence of an action id wins. Nothing passed in is modified.
func (t *Tracker) Preview(requirements []*entities.MilestoneRequirement, events []*entities.TimelineEvent, quests []*entities.Quest, enemies []*entities.EnemyCharacter) *Preview {
	p := &Preview{ActionsByType: make(map[entities.ExplorationActionType]int)}
	seen := make(map[string]bool)

	add := func(src Source, actions []*entities.ExplorationAction) {
		for _, a := range actions {
			if a == nil || seen[a.ID] {
				continue
			}
			seen[a.ID] = true

			minutes := a.Prerequisites.TimeRequired
			if minutes <= 0 {
				minutes = t.defaultMinutes
			}
			p.Actions = append(p.Actions, PreviewAction{Action: a, Source: src, Minutes: minutes})
			p.ActionsByType[a.ActionType]++
			p.TotalMinutes += minutes
		}
	}

	eventsByID := make(map[string]*entities.TimelineEvent, len(events))
	for _, e := range events {
		if e != nil {
			eventsByID[e.ID] = e
		}
	}
	questsByID := make(map[string]*entities.Quest, len(quests))
	for _, q := range quests {
		if q != nil {
			questsByID[q.ID] = q
		}
	}
	enemiesByID := make(map[string]*entities.EnemyCharacter, len(enemies))
	for _, e := range enemies {
		if e != nil {
			enemiesByID[e.ID] = e
		}
	}

	for _, req := range ofType(requirements, entities.RequirementEvents) {
		for _, id := range req.EventIDs {
			src := Source{Type: entities.RequirementEvents, ID: id}
			if e, ok := eventsByID[id]; ok {
				add(src, e.ExplorationActions)
			} else {
				p.Unresolved = append(p.Unresolved, src)
			}
		}
	}
	for _, req := range ofType(requirements, entities.RequirementQuests) {
		for _, id := range req.QuestIDs {
			src := Source{Type: entities.RequirementQuests, ID: id}
			if q, ok := questsByID[id]; ok {
				add(src, q.ExplorationActions)
			} else {
				p.Unresolved = append(p.Unresolved, src)
			}
		}
	}
	for _, req := range ofType(requirements, entities.RequirementEnemies) {
		for _, er := range req.EnemyRequirements {
			src := Source{Type: entities.RequirementEnemies, ID: er.EnemyID}
			if e, ok := enemiesByID[er.EnemyID]; ok {
				add(src, e.ExplorationActions)
			} else {
				p.Unresolved = append(p.Unresolved, src)
			}
		}
	}

	p.TotalActions = len(p.Actions)
	p.EstimatedDays = ceilDiv(p.TotalMinutes, t.minutesPerDay)
	return p
}

// PreviewMilestone previews one milestone of campaign
func (t *Tracker) PreviewMilestone(campaign *entities.Campaign, milestone *entities.Milestone) *Preview {
	return t.Preview(milestone.Requirements, campaign.Events, campaign.Quests, campaign.Enemies)
}

func ofType(requirements []*entities.MilestoneRequirement, typ entities.RequirementType) []*entities.MilestoneRequirement {
	var out []*entities.MilestoneRequirement
	for _, r := range requirements {
		if r != nil && r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
