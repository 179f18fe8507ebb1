package action

import (
	"fmt"
	"slices"
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Type identifies the kind of action.
type Type string

const (
	TypePass Type = "pass"
	TypeDone Type = "done"
	TypeSkip Type = "skip"

	TypeBuyStartItem Type = "buy_start_item"
	TypeBidStartItem Type = "bid_start_item"
	TypeSetPar       Type = "set_par"

	TypeStartCompany   Type = "start_company"
	TypeBuyCertificate Type = "buy_certificate"
	TypeSellShares     Type = "sell_shares"
	TypeUseSpecial     Type = "use_special"

	TypeLayTile     Type = "lay_tile"
	TypeLayToken    Type = "lay_token"
	TypeSetDividend Type = "set_dividend"
	TypeBuyTrain    Type = "buy_train"
	TypeBuyPrivate  Type = "buy_private"
)

// Allocation is a revenue distribution choice.
type Allocation string

const (
	// Payout distributes revenue to shareholders.
	Payout Allocation = "payout"
	// Withhold keeps revenue in the company treasury.
	Withhold Allocation = "withhold"
)

// Action is a player intent. Which fields apply depends on Type.
type Action struct {
	Type   Type            `json:"type"`
	Player entity.PlayerID `json:"player"`

	// Company is the public company acted on or operating.
	Company entity.CompanyID `json:"company,omitempty"`
	// Private is the private company bought or whose special is used.
	Private entity.CompanyID `json:"private,omitempty"`
	// Item is a start packet item.
	Item string `json:"item,omitempty"`
	// Special is a special property id.
	Special string `json:"special,omitempty"`

	Certificate certificate.ID   `json:"certificate,omitempty"`
	From        portfolio.Holder `json:"from,omitempty"`
	Train       train.ID         `json:"train,omitempty"`
	TrainType   string           `json:"train_type,omitempty"`

	Price     int   `json:"price,omitempty"`
	MinPrice  int   `json:"min_price,omitempty"`
	MaxPrice  int   `json:"max_price,omitempty"`
	ParPrices []int `json:"par_prices,omitempty"`

	Count    int `json:"count,omitempty"`
	MaxCount int `json:"max_count,omitempty"`

	Hex         string `json:"hex,omitempty"`
	Tile        string `json:"tile,omitempty"`
	TileColor   string `json:"tile_color,omitempty"`
	Orientation int    `json:"orientation,omitempty"`

	// Trains lists the trains run for revenue; Revenue is the declared total.
	Trains      []train.ID   `json:"trains,omitempty"`
	Revenue     int          `json:"revenue,omitempty"`
	Allocation  Allocation   `json:"allocation,omitempty"`
	Allocations []Allocation `json:"allocations,omitempty"`
	// Emergency marks a train purchase the president funds personally.
	Emergency bool `json:"emergency,omitempty"`
}

// String renders a short human description of the action.
func (a Action) String() string {
	var b strings.Builder
	b.WriteString(string(a.Type))
	add := func(key, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, " %s=%s", key, value)
	}
	add("player", string(a.Player))
	add("company", string(a.Company))
	add("private", string(a.Private))
	add("item", a.Item)
	add("special", a.Special)
	add("from", string(a.From))
	add("train", string(a.Train))
	add("train_type", a.TrainType)
	add("hex", a.Hex)
	add("tile", a.Tile)
	if a.Price != 0 {
		add("price", fmt.Sprint(a.Price))
	}
	if a.MinPrice != 0 || a.MaxPrice != 0 {
		add("price_range", fmt.Sprintf("%d-%d", a.MinPrice, a.MaxPrice))
	}
	if len(a.ParPrices) > 0 {
		add("par", strings.Trim(fmt.Sprint(a.ParPrices), "[]"))
	}
	if a.Count != 0 {
		add("count", fmt.Sprint(a.Count))
	}
	if a.MaxCount != 0 {
		add("max_count", fmt.Sprint(a.MaxCount))
	}
	if a.Revenue != 0 {
		add("revenue", fmt.Sprint(a.Revenue))
	}
	add("allocation", string(a.Allocation))
	if len(a.Allocations) > 0 {
		parts := make([]string, len(a.Allocations))
		for i, alloc := range a.Allocations {
			parts[i] = string(alloc)
		}
		add("allocations", strings.Join(parts, "|"))
	}
	if a.Emergency {
		add("emergency", "true")
	}
	return b.String()
}

// Match finds the template in possible that submitted satisfies and returns
// the submission normalised against it. Unset fixed fields of the submission
// take the template's value.
func Match(possible []Action, submitted Action) (Action, bool) {
	for _, tmpl := range possible {
		if normalized, ok := matches(tmpl, submitted); ok {
			return normalized, true
		}
	}
	return Action{}, false
}

func matches(tmpl, sub Action) (Action, bool) {
	if tmpl.Type != sub.Type || tmpl.Player != sub.Player {
		return Action{}, false
	}
	out := sub
	if !fixed(&out.Company, tmpl.Company) ||
		!fixed(&out.Private, tmpl.Private) ||
		!fixed(&out.Item, tmpl.Item) ||
		!fixed(&out.Special, tmpl.Special) ||
		!fixed(&out.Certificate, tmpl.Certificate) ||
		!fixed(&out.From, tmpl.From) ||
		!fixed(&out.Train, tmpl.Train) ||
		!fixed(&out.TrainType, tmpl.TrainType) ||
		!fixed(&out.Hex, tmpl.Hex) {
		return Action{}, false
	}
	if sub.Emergency != tmpl.Emergency {
		return Action{}, false
	}

	switch {
	case len(tmpl.ParPrices) > 0:
		if !slices.Contains(tmpl.ParPrices, sub.Price) {
			return Action{}, false
		}
	case tmpl.MinPrice != 0 || tmpl.MaxPrice != 0:
		if sub.Price < tmpl.MinPrice || (tmpl.MaxPrice > 0 && sub.Price > tmpl.MaxPrice) {
			return Action{}, false
		}
	default:
		if !fixed(&out.Price, tmpl.Price) {
			return Action{}, false
		}
	}

	if tmpl.MaxCount > 0 {
		if out.Count == 0 {
			out.Count = 1
		}
		if out.Count < 1 || out.Count > tmpl.MaxCount {
			return Action{}, false
		}
	} else if !fixed(&out.Count, tmpl.Count) {
		return Action{}, false
	}

	if len(tmpl.Allocations) > 0 {
		if !slices.Contains(tmpl.Allocations, sub.Allocation) {
			return Action{}, false
		}
		if sub.Revenue < 0 {
			return Action{}, false
		}
	}

	out.MinPrice, out.MaxPrice, out.ParPrices = 0, 0, nil
	out.MaxCount, out.Allocations = 0, nil
	return out, true
}

// fixed reports whether got agrees with want, filling got when unset. An
// empty want accepts any value.
func fixed[T comparable](got *T, want T) bool {
	var zero T
	if want == zero {
		return true
	}
	if *got == zero {
		*got = want
		return true
	}
	return *got == want
}
