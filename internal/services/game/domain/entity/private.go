package entity

// SpecialKind identifies the right granted by a special property.
type SpecialKind string

const (
	// SpecialFreeTileLay lays a tile on the property's hex without cost.
	SpecialFreeTileLay SpecialKind = "free_tile_lay"
	// SpecialExtraTileLay grants one more tile lay on the property's hex.
	SpecialExtraTileLay SpecialKind = "extra_tile_lay"
	// SpecialFreeToken places a station token on the property's hex without cost.
	SpecialFreeToken SpecialKind = "free_token"
	// SpecialExchange exchanges the private for a share of another company.
	SpecialExchange SpecialKind = "exchange_for_share"
)

// SpecialProperty is an extra right attached to a private company.
type SpecialProperty struct {
	ID        string      `json:"id"`
	Kind      SpecialKind `json:"kind"`
	Hex       string      `json:"hex,omitempty"`
	Company   CompanyID   `json:"company,omitempty"`
	Exercised bool        `json:"exercised"`
}

// UsableInStockRound reports whether the property is exercised by a player in a stock round.
func (s SpecialProperty) UsableInStockRound() bool {
	return s.Kind == SpecialExchange
}

// UsableInOperatingRound reports whether the property is exercised by a company in an operating round.
func (s SpecialProperty) UsableInOperatingRound() bool {
	switch s.Kind {
	case SpecialFreeTileLay, SpecialExtraTileLay, SpecialFreeToken:
		return true
	default:
		return false
	}
}

// Closing is the closing predicate of a private company.
type Closing struct {
	IfAllExercised bool `json:"if_all_exercised,omitempty"`
	IfAnyExercised bool `json:"if_any_exercised,omitempty"`
	// AtEndOfORTurn defers an exercised-triggered close to the end of the owning
	// company's operating turn.
	AtEndOfORTurn bool `json:"at_end_of_or_turn,omitempty"`
	// AtPhase closes the private when the named phase is reached.
	AtPhase string `json:"at_phase,omitempty"`
}

// PrivateCompany is a fixed-income company held as a single certificate.
type PrivateCompany struct {
	ID           CompanyID         `json:"id"`
	Name         string            `json:"name"`
	FacePrice    int               `json:"face_price"`
	Revenue      int               `json:"revenue"`
	Specials     []SpecialProperty `json:"specials,omitempty"`
	Closing      Closing           `json:"closing"`
	BlockedHexes []string          `json:"blocked_hexes,omitempty"`
	Closed       bool              `json:"closed"`
}

// Special returns the special property with the given id.
func (p *PrivateCompany) Special(id string) (*SpecialProperty, bool) {
	for i := range p.Specials {
		if p.Specials[i].ID == id {
			return &p.Specials[i], true
		}
	}
	return nil, false
}

// AllExercised reports whether every special property has been used.
func (p PrivateCompany) AllExercised() bool {
	if len(p.Specials) == 0 {
		return false
	}
	for _, sp := range p.Specials {
		if !sp.Exercised {
			return false
		}
	}
	return true
}

// AnyExercised reports whether at least one special property has been used.
func (p PrivateCompany) AnyExercised() bool {
	for _, sp := range p.Specials {
		if sp.Exercised {
			return true
		}
	}
	return false
}

// ShouldClose evaluates the exercised-based closing predicate. endOfOR is true
// when the check runs at the end of an operating turn.
func (p PrivateCompany) ShouldClose(endOfOR bool) bool {
	if p.Closed {
		return false
	}
	triggered := (p.Closing.IfAllExercised && p.AllExercised()) ||
		(p.Closing.IfAnyExercised && p.AnyExercised())
	if !triggered {
		return false
	}
	if p.Closing.AtEndOfORTurn && !endOfOR {
		return false
	}
	return true
}
