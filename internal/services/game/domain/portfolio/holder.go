package portfolio

import (
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
)

// Holder names a portfolio owner: a player, a public company or a bank area.
type Holder string

const (
	// IPO holds unsold shares of each public company and new trains.
	IPO Holder = "bank:ipo"
	// Pool holds shares sold back to the market and discarded trains.
	Pool Holder = "bank:pool"
	// Scrapyard holds rusted trains.
	Scrapyard Holder = "bank:scrapyard"
	// Bank holds the bank's cash and unsold private companies.
	Bank Holder = "bank"

	playerPrefix  = "player:"
	companyPrefix = "company:"
)

// PlayerHolder returns the holder of a player's portfolio.
func PlayerHolder(id entity.PlayerID) Holder {
	return Holder(playerPrefix + string(id))
}

// CompanyHolder returns the holder of a public company's treasury.
func CompanyHolder(id entity.CompanyID) Holder {
	return Holder(companyPrefix + string(id))
}

// Player returns the player behind the holder.
func (h Holder) Player() (entity.PlayerID, bool) {
	id, ok := strings.CutPrefix(string(h), playerPrefix)
	return entity.PlayerID(id), ok
}

// Company returns the public company behind the holder.
func (h Holder) Company() (entity.CompanyID, bool) {
	id, ok := strings.CutPrefix(string(h), companyPrefix)
	return entity.CompanyID(id), ok
}

// IsBank reports whether the holder is one of the bank areas.
func (h Holder) IsBank() bool {
	return h == IPO || h == Pool || h == Scrapyard || h == Bank
}
