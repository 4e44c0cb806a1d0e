package badge

import (
	"sort"
	"sync"

	"github.com/osse101/LabRewards_Go/internal/domain"
)

// Predicate decides a special badge condition from a user's stats
type Predicate func(stats *domain.ActivityStats) bool

// Registry maps special condition names to predicates. Unknown names never pass.
type Registry struct {
	mu    sync.RWMutex
	preds map[string]Predicate
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{preds: make(map[string]Predicate)}
}

// DefaultRegistry returns a registry with the built-in special conditions
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(ConditionMarathonWeek, func(s *domain.ActivityStats) bool {
		return s.WeeklyHours >= MarathonWeekHours
	})
	r.Register(ConditionPerfectWeek, func(s *domain.ActivityStats) bool {
		return s.ConsecutiveDays >= 7
	})
	r.Register(ConditionPolymath, func(s *domain.ActivityStats) bool {
		return s.Projects >= PolymathProjects && s.CompletedTasks >= PolymathTasks
	})
	return r
}

// Register adds or replaces a named predicate
func (r *Registry) Register(name string, p Predicate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preds[name] = p
}

// Lookup returns the predicate for name
func (r *Registry) Lookup(name string) (Predicate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.preds[name]
	return p, ok
}

// Names lists registered conditions in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.preds))
	for name := range r.preds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate reports whether stats satisfy every criterion. An empty list never
// passes; such badges are granted manually.
func Evaluate(criteria []domain.BadgeCriterion, stats *domain.ActivityStats, registry *Registry) bool {
	if len(criteria) == 0 || stats == nil {
		return false
	}
	for _, c := range criteria {
		if !criterionMet(c, stats, registry) {
			return false
		}
	}
	return true
}

func criterionMet(c domain.BadgeCriterion, s *domain.ActivityStats, registry *Registry) bool {
	switch c.Kind {
	case domain.CriterionMinPoints:
		return s.Points >= c.Value
	case domain.CriterionMinTasks:
		return s.CompletedTasks >= c.Value
	case domain.CriterionMinProjects:
		return s.Projects >= c.Value
	case domain.CriterionMinWorkSessions:
		return s.WorkSessions >= c.Value
	case domain.CriterionMinWeeklyHours:
		return s.WeeklyHours >= float64(c.Value)
	case domain.CriterionMinConsecutiveDays:
		return int64(s.ConsecutiveDays) >= c.Value
	case domain.CriterionSpecial:
		if registry == nil {
			return false
		}
		p, ok := registry.Lookup(c.Condition)
		return ok && p(s)
	}
	return false
}
