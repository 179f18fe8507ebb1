// Package train tracks train types, purchases and rusting.
package train

import (
	"slices"

	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
)

// ID identifies a physical train.
type ID string

// Type describes one kind of train in the depot.
type Type struct {
	Name     string `json:"name" yaml:"name"`
	Cost     int    `json:"cost" yaml:"cost"`
	Quantity int    `json:"quantity" yaml:"quantity"`
	Distance int    `json:"distance,omitempty" yaml:"distance"`
	// RustedBy names the type whose first purchase scraps every train of this type.
	RustedBy string `json:"rusted_by,omitempty" yaml:"rusted_by"`
}

// Train is a physical train of a type.
type Train struct {
	ID   ID     `json:"id"`
	Type string `json:"type"`
}

// Manager holds the ordered train types and purchase history.
type Manager struct {
	Types  []Type          `json:"types"`
	Bought map[string]int  `json:"bought"`
	Rusted map[string]bool `json:"rusted"`
}

// NewManager validates the train types and returns a manager.
func NewManager(types []Type) (*Manager, error) {
	if len(types) == 0 {
		return nil, apperrors.Configuration("at least one train type is required")
	}
	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		if typ.Name == "" {
			return nil, apperrors.Configuration("train type name is required")
		}
		if seen[typ.Name] {
			return nil, apperrors.Configuration("duplicate train type %q", typ.Name)
		}
		if typ.Cost <= 0 {
			return nil, apperrors.Configuration("train type %q cost must be positive", typ.Name)
		}
		if typ.Quantity <= 0 {
			return nil, apperrors.Configuration("train type %q quantity must be positive", typ.Name)
		}
		seen[typ.Name] = true
	}
	for _, typ := range types {
		if typ.RustedBy != "" && !seen[typ.RustedBy] {
			return nil, apperrors.Configuration("train type %q rusted by unknown type %q", typ.Name, typ.RustedBy)
		}
	}
	return &Manager{
		Types:  slices.Clone(types),
		Bought: make(map[string]int),
		Rusted: make(map[string]bool),
	}, nil
}

// Type returns the named train type.
func (m *Manager) Type(name string) (Type, bool) {
	for _, typ := range m.Types {
		if typ.Name == name {
			return typ, true
		}
	}
	return Type{}, false
}

// Index returns the depot position of a type, or -1.
func (m *Manager) Index(name string) int {
	for i, typ := range m.Types {
		if typ.Name == name {
			return i
		}
	}
	return -1
}

// NextAvailable returns the first type in depot order with trains left in the
// IPO. available maps type name to the number of trains still in the IPO.
func (m *Manager) NextAvailable(available map[string]int) (Type, bool) {
	for _, typ := range m.Types {
		if available[typ.Name] > 0 {
			return typ, true
		}
	}
	return Type{}, false
}

// RecordPurchase counts a new train bought from the IPO. It returns the
// purchase count for the type and the types rusted by its first purchase.
func (m *Manager) RecordPurchase(typeName string) (int, []string) {
	m.Bought[typeName]++
	count := m.Bought[typeName]
	if count != 1 {
		return count, nil
	}
	var rusted []string
	for _, typ := range m.Types {
		if typ.RustedBy == typeName && !m.Rusted[typ.Name] {
			m.Rusted[typ.Name] = true
			rusted = append(rusted, typ.Name)
		}
	}
	return count, rusted
}

// IsRusted reports whether a type has been rusted.
func (m *Manager) IsRusted(name string) bool {
	return m.Rusted[name]
}

// Clone returns a deep copy.
func (m *Manager) Clone() *Manager {
	if m == nil {
		return nil
	}
	out := &Manager{
		Types:  slices.Clone(m.Types),
		Bought: make(map[string]int, len(m.Bought)),
		Rusted: make(map[string]bool, len(m.Rusted)),
	}
	for k, v := range m.Bought {
		out.Bought[k] = v
	}
	for k, v := range m.Rusted {
		out.Rusted[k] = v
	}
	return out
}
