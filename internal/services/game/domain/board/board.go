// Package board is the contract between the rules engine and a map
// implementation.
//
// The engine does not know tile geometry. It records what was laid where and
// asks a Map whether a lay is legal and what it costs.
package board

import (
	"maps"
	"slices"

	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// Placement is a tile on a hex.
type Placement struct {
	Tile        string `json:"tile"`
	Color       string `json:"color"`
	Orientation int    `json:"orientation"`
}

// TileLay is a request to lay or upgrade a tile.
type TileLay struct {
	Company     entity.CompanyID
	Hex         string
	Tile        string
	Color       string
	Orientation int
	// Existing is the tile currently on the hex, if any.
	Existing *Placement
	// BlockedBy is the open private company reserving the hex, if any.
	BlockedBy entity.CompanyID
	// Free marks a lay granted by a special property.
	Free bool
}

// TokenLay is a request to place a station token.
type TokenLay struct {
	Company entity.CompanyID
	Hex     string
	// Tokens lists the companies already holding a token on the hex.
	Tokens []entity.CompanyID
	Free   bool
}

// Map decides tile and token legality and terrain costs.
type Map interface {
	CheckTileLay(lay TileLay) (cost int, err error)
	CheckTokenLay(lay TokenLay) (cost int, err error)
}

// Record is the engine's bookkeeping of laid tiles and tokens.
type Record struct {
	Tiles  map[string]Placement          `json:"tiles"`
	Tokens map[string][]entity.CompanyID `json:"tokens"`
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{
		Tiles:  make(map[string]Placement),
		Tokens: make(map[string][]entity.CompanyID),
	}
}

// TileAt returns the tile laid on hex.
func (r Record) TileAt(hex string) (*Placement, bool) {
	p, ok := r.Tiles[hex]
	if !ok {
		return nil, false
	}
	return &p, true
}

// TokensAt returns the companies with a token on hex.
func (r Record) TokensAt(hex string) []entity.CompanyID {
	return slices.Clone(r.Tokens[hex])
}

// HasToken reports whether company has a token on hex.
func (r Record) HasToken(hex string, company entity.CompanyID) bool {
	return slices.Contains(r.Tokens[hex], company)
}

// LayTile records a tile.
func (r *Record) LayTile(hex string, p Placement) {
	if r.Tiles == nil {
		r.Tiles = make(map[string]Placement)
	}
	r.Tiles[hex] = p
}

// PlaceToken records a station token.
func (r *Record) PlaceToken(hex string, company entity.CompanyID) {
	if r.Tokens == nil {
		r.Tokens = make(map[string][]entity.CompanyID)
	}
	r.Tokens[hex] = append(r.Tokens[hex], company)
}

// RemoveTokens removes every token of company, used when a company closes.
func (r *Record) RemoveTokens(company entity.CompanyID) {
	for hex, tokens := range r.Tokens {
		r.Tokens[hex] = slices.DeleteFunc(tokens, func(c entity.CompanyID) bool { return c == company })
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := Record{
		Tiles:  maps.Clone(r.Tiles),
		Tokens: make(map[string][]entity.CompanyID, len(r.Tokens)),
	}
	if out.Tiles == nil {
		out.Tiles = make(map[string]Placement)
	}
	for hex, tokens := range r.Tokens {
		out.Tokens[hex] = slices.Clone(tokens)
	}
	return out
}
