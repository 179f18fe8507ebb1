// Package revenue is the contract between the rules engine and a route
// revenue calculator.
package revenue

import (
	apperrors "github.com/louisbranch/stockrail/internal/platform/errors"
	"github.com/louisbranch/stockrail/internal/services/game/domain/entity"
	"github.com/louisbranch/stockrail/internal/services/game/domain/train"
)

// Run is a company's completed train run.
type Run struct {
	Company entity.CompanyID
	Trains  []train.Train
	// Declared is the revenue the president claims for the run.
	Declared int
}

// Calculator returns the revenue of a run.
type Calculator interface {
	Revenue(run Run) (int, error)
}

// Func adapts a function to Calculator.
type Func func(run Run) (int, error)

// Revenue calls f.
func (f Func) Revenue(run Run) (int, error) {
	return f(run)
}

// Declared trusts the president's declared revenue within per-train bounds.
type Declared struct {
	// MaxPerTrain caps the revenue of each train; zero disables the cap.
	MaxPerTrain int
}

// Revenue validates and returns the declared amount.
func (d Declared) Revenue(run Run) (int, error) {
	if run.Declared < 0 {
		return 0, apperrors.IllegalAction("revenue cannot be negative")
	}
	if len(run.Trains) == 0 {
		if run.Declared > 0 {
			return 0, apperrors.IllegalAction("%s has no trains to run", run.Company)
		}
		return 0, nil
	}
	if d.MaxPerTrain > 0 && run.Declared > d.MaxPerTrain*len(run.Trains) {
		return 0, apperrors.IllegalAction("revenue %d exceeds %d per train", run.Declared, d.MaxPerTrain)
	}
	return run.Declared, nil
}
