package entity

// PlayerID identifies a player.
type PlayerID string

// CompanyID identifies a public or private company. Both kinds share one namespace.
type CompanyID string

// Player is a seat at the table.
type Player struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
	Seat int      `json:"seat"`
}

// CompanyStatus is the operating status of a public company.
type CompanyStatus string

const (
	// StatusNotStarted marks a company whose par price has not been set.
	StatusNotStarted CompanyStatus = "not_started"
	// StatusStarted marks a company with a par price and a stock market marker.
	StatusStarted CompanyStatus = "started"
	// StatusClosed marks a company removed from play.
	StatusClosed CompanyStatus = "closed"
)

// Capitalisation decides when a public company receives money for its IPO shares.
type Capitalisation string

const (
	// CapitalisationFull pays the full par value of all shares to the treasury on float.
	CapitalisationFull Capitalisation = "full"
	// CapitalisationIncremental pays each IPO purchase to the treasury.
	CapitalisationIncremental Capitalisation = "incremental"
)

// PublicCompany is a share company operated by its president.
type PublicCompany struct {
	ID             CompanyID      `json:"id"`
	Name           string         `json:"name"`
	FloatPercent   int            `json:"float_percent"`
	Capitalisation Capitalisation `json:"capitalisation"`
	Status         CompanyStatus  `json:"status"`
	Floated        bool           `json:"floated"`
	Operated       bool           `json:"operated"`
	President      PlayerID       `json:"president,omitempty"`
	ParPrice       int            `json:"par_price,omitempty"`
	HomeHex        string         `json:"home_hex,omitempty"`
	// TokenCosts lists the price of each station token after the home token.
	TokenCosts   []int `json:"token_costs,omitempty"`
	TokensTotal  int   `json:"tokens_total"`
	TokensPlaced int   `json:"tokens_placed"`
}

// Started reports whether the company has a par price.
func (c PublicCompany) Started() bool {
	return c.Status == StatusStarted
}

// TokensLeft returns the number of unplaced station tokens.
func (c PublicCompany) TokensLeft() int {
	left := c.TokensTotal - c.TokensPlaced
	if left < 0 {
		return 0
	}
	return left
}

// NextTokenCost returns the cost of the next station token.
func (c PublicCompany) NextTokenCost() int {
	if c.TokensLeft() == 0 {
		return 0
	}
	// The home token is placed for free when the company first operates.
	idx := c.TokensPlaced - 1
	if idx < 0 {
		return 0
	}
	if idx >= len(c.TokenCosts) {
		if len(c.TokenCosts) == 0 {
			return 0
		}
		return c.TokenCosts[len(c.TokenCosts)-1]
	}
	return c.TokenCosts[idx]
}
