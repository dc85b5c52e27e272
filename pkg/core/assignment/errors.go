package assignment

import (
	"errors"
	"fmt"

	"github.com/syncedsports/refassign/pkg/core/model"
)

// ErrRuleNotFound is returned when the requested rule does not exist.
var ErrRuleNotFound = errors.New("rule not found")

// ErrUnknownStrategy is returned when a rule names a strategy the engine does
// not implement, or its parameter block is missing.
var ErrUnknownStrategy = errors.New("unknown scoring strategy")

// StrategyUnavailableError means the model-assisted strategy could not reach
// or use the external reasoning service. The run fails as a whole; there is
// no implicit fallback to the algorithmic strategy.
type StrategyUnavailableError struct {
	Strategy model.StrategyType
	Err      error
}

func (e *StrategyUnavailableError) Error() string {
	return fmt.Sprintf("strategy %s unavailable: %v", e.Strategy, e.Err)
}

func (e *StrategyUnavailableError) Unwrap() error {
	return e.Err
}
