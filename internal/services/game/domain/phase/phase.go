// Package phase tracks the game phase and its rule effects.
//
// Phases only advance. By default each phase is followed by the next one in
// declaration order; a phase may instead name its successors, which allows
// branching progressions.
package phase

import (
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

// Trigger advances the game into a phase when a train of TrainType is bought
// from the IPO for the Count-th time.
type Trigger struct {
	TrainType string `json:"train_type,omitempty" yaml:"train_type"`
	Count     int    `json:"count,omitempty" yaml:"count"`
}

// Phase is one stage of the game with its rule parameters.
type Phase struct {
	Name            string   `json:"name" yaml:"name"`
	Trigger         Trigger  `json:"trigger" yaml:"trigger"`
	Next            []string `json:"next,omitempty" yaml:"next"`
	TrainLimit      int      `json:"train_limit" yaml:"train_limit"`
	OperatingRounds int      `json:"operating_rounds" yaml:"operating_rounds"`
	TileColors      []string `json:"tile_colors,omitempty" yaml:"tile_colors"`
	PrivateSales    bool     `json:"private_sales,omitempty" yaml:"private_sales"`
	ClosePrivates   bool     `json:"close_privates,omitempty" yaml:"close_privates"`
}

// AllowsTileColor reports whether tiles of color may be laid in the phase.
func (p Phase) AllowsTileColor(color string) bool {
	return len(p.TileColors) == 0 || slices.Contains(p.TileColors, color)
}

// Transition describes a phase change.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Passed lists the phases entered on the way, ending with To.
	Passed []string `json:"passed"`
}

// Manager holds the phase list and the current phase.
type Manager struct {
	Phases  []Phase  `json:"phases"`
	Current string   `json:"current"`
	Reached []string `json:"reached"`
}

// New validates phases and starts at the first one.
func New(phases []Phase) (*Manager, error) {
	if len(phases) == 0 {
		return nil, apperrors.Configuration("at least one phase is required")
	}
	names := make(map[string]bool, len(phases))
	for _, p := range phases {
		if p.Name == "" {
			return nil, apperrors.Configuration("phase name is required")
		}
		if names[p.Name] {
			return nil, apperrors.Configuration("duplicate phase %q", p.Name)
		}
		if p.TrainLimit < 0 || p.OperatingRounds < 0 {
			return nil, apperrors.Configuration("phase %q has negative limits", p.Name)
		}
		names[p.Name] = true
	}
	for _, p := range phases {
		for _, next := range p.Next {
			if !names[next] {
				return nil, apperrors.Configuration("phase %q names unknown successor %q", p.Name, next)
			}
			if next == p.Name {
				return nil, apperrors.Configuration("phase %q names itself as successor", p.Name)
			}
		}
	}
	m := &Manager{Phases: slices.Clone(phases), Current: phases[0].Name}
	m.Reached = []string{m.Current}
	return m, nil
}

// Phase returns the named phase.
func (m *Manager) Phase(name string) (Phase, bool) {
	for _, p := range m.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return Phase{}, false
}

// CurrentPhase returns the current phase.
func (m *Manager) CurrentPhase() Phase {
	p, _ := m.Phase(m.Current)
	return p
}

// IsLast reports whether the current phase has no successors.
func (m *Manager) IsLast() bool {
	return len(m.successors(m.Current)) == 0
}

// HasReachedPhase reports whether name is the current phase or was passed.
func (m *Manager) HasReachedPhase(name string) bool {
	return slices.Contains(m.Reached, name)
}

func (m *Manager) successors(name string) []string {
	for i, p := range m.Phases {
		if p.Name != name {
			continue
		}
		if len(p.Next) > 0 {
			return p.Next
		}
		if i+1 < len(m.Phases) {
			return []string{m.Phases[i+1].Name}
		}
		return nil
	}
	return nil
}

// path returns the phases visited going from the current phase to target,
// excluding the current phase, or nil when target is unreachable.
func (m *Manager) path(target string) []string {
	prev := map[string]string{m.Current: ""}
	queue := []string{m.Current}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == target {
			var out []string
			for n := target; n != m.Current; n = prev[n] {
				out = append(out, n)
			}
			slices.Reverse(out)
			return out
		}
		for _, next := range m.successors(name) {
			if _, seen := prev[next]; seen || m.HasReachedPhase(next) {
				continue
			}
			prev[next] = name
			queue = append(queue, next)
		}
	}
	return nil
}

// SetPhase moves forward to name. Moving to the current phase is a no-op.
func (m *Manager) SetPhase(name string) (Transition, error) {
	if _, ok := m.Phase(name); !ok {
		return Transition{}, apperrors.IllegalState("unknown phase %q", name)
	}
	if name == m.Current {
		return Transition{From: m.Current, To: m.Current}, nil
	}
	if m.HasReachedPhase(name) {
		return Transition{}, apperrors.IllegalState("phase %q already passed", name)
	}
	passed := m.path(name)
	if passed == nil {
		return Transition{}, apperrors.IllegalState("phase %q is not reachable from %q", name, m.Current)
	}
	tr := Transition{From: m.Current, To: name, Passed: passed}
	m.Reached = append(m.Reached, passed...)
	m.Current = name
	return tr, nil
}

// OnTrainBought advances the phase when a purchase matches a trigger of a
// reachable phase. count is the number of trains of the type bought so far.
func (m *Manager) OnTrainBought(trainType string, count int) (Transition, bool, error) {
	for _, p := range m.Phases {
		if p.Trigger.TrainType != trainType || m.HasReachedPhase(p.Name) {
			continue
		}
		need := max(p.Trigger.Count, 1)
		if count < need {
			continue
		}
		if m.path(p.Name) == nil {
			continue
		}
		tr, err := m.SetPhase(p.Name)
		if err != nil {
			return Transition{}, false, err
		}
		return tr, true, nil
	}
	return Transition{}, false, nil
}

// Clone returns a deep copy.
func (m *Manager) Clone() *Manager {
	if m == nil {
		return nil
	}
	out := &Manager{
		Phases:  slices.Clone(m.Phases),
		Current: m.Current,
		Reached: slices.Clone(m.Reached),
	}
	return out
}
