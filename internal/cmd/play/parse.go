package play

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/louisbranch/stockrail/internal/services/game/domain/action"
	"github.com/louisbranch/stockrail/internal/services/game/domain/certificate"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/portfolio"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// parseAction turns an input line into an action. The line is either a JSON
// action or the 1-based number of a legal action followed by key=value
// arguments for the fields the template leaves open.
func parseAction(line string, possible []action.Action) (action.Action, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") {
		var a action.Action
		if err := json.Unmarshal([]byte(line), &a); err != nil {
			return action.Action{}, fmt.Errorf("decode action: %w", err)
		}
		return a, nil
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return action.Action{}, fmt.Errorf("empty input")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 || n > len(possible) {
		return action.Action{}, fmt.Errorf("choose an action between 1 and %d", len(possible))
	}
	args := make(map[string]string, len(fields)-1)
	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return action.Action{}, fmt.Errorf("argument %q is not key=value", f)
		}
		args[strings.ToLower(key)] = value
	}
	return fill(possible[n-1], args)
}

// fill completes a template with args and checks the open choices.
func fill(tmpl action.Action, args map[string]string) (action.Action, error) {
	a := tmpl
	a.MinPrice, a.MaxPrice, a.ParPrices = 0, 0, nil
	a.MaxCount, a.Allocations = 0, nil

	for key, value := range args {
		var err error
		switch key {
		case "price":
			a.Price, err = strconv.Atoi(value)
		case "count":
			a.Count, err = strconv.Atoi(value)
		case "revenue":
			a.Revenue, err = strconv.Atoi(value)
		case "orientation":
			a.Orientation, err = strconv.Atoi(value)
		case "allocation":
			a.Allocation = action.Allocation(value)
		case "company":
			a.Company = entity.CompanyID(value)
		case "private":
			a.Private = entity.CompanyID(value)
		case "item":
			a.Item = value
		case "special":
			a.Special = value
		case "certificate":
			a.Certificate = certificate.ID(value)
		case "from":
			a.From = portfolio.Holder(value)
		case "train":
			a.Train = train.ID(value)
		case "train_type":
			a.TrainType = value
		case "hex":
			a.Hex = value
		case "tile":
			a.Tile = value
		case "color":
			a.TileColor = value
		default:
			return action.Action{}, fmt.Errorf("unknown argument %q", key)
		}
		if err != nil {
			return action.Action{}, fmt.Errorf("argument %s: %w", key, err)
		}
	}

	switch {
	case len(tmpl.ParPrices) > 0:
		if len(tmpl.ParPrices) == 1 && a.Price == 0 {
			a.Price = tmpl.ParPrices[0]
		}
		if !slices.Contains(tmpl.ParPrices, a.Price) {
			return action.Action{}, fmt.Errorf("price must be one of %v", tmpl.ParPrices)
		}
	case tmpl.MinPrice != 0 || tmpl.MaxPrice != 0:
		if a.Price == 0 && tmpl.MinPrice == tmpl.MaxPrice {
			a.Price = tmpl.MinPrice
		}
		if a.Price == 0 {
			return action.Action{}, fmt.Errorf("price=%d..%d is required", tmpl.MinPrice, tmpl.MaxPrice)
		}
	}
	if len(tmpl.Allocations) > 0 && a.Allocation == "" {
		if len(tmpl.Allocations) > 1 {
			return action.Action{}, fmt.Errorf("allocation is required, one of %v", tmpl.Allocations)
		}
		a.Allocation = tmpl.Allocations[0]
	}
	return a, nil
}
