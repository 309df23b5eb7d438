package domain

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dokaw/task-dash-gleam/internal/errval"
)

type BudgetType string

const (
	BudgetFixed  BudgetType = "fixed"
	BudgetRange  BudgetType = "range"
	BudgetHourly BudgetType = "hourly"
)

// Budget is a tagged union: exactly one variant is active, selected by Type.
// Fixed and hourly budgets carry Amount; range budgets carry Min and Max.
// The field names are the wire contract of the backing store and must not change.
type Budget struct {
	Type   BudgetType `json:"budget_type"`
	Amount *float64   `json:"budget_amount"`
	Min    *float64   `json:"budget_min"`
	Max    *float64   `json:"budget_max"`
}

func (b Budget) Validate() error {
	switch b.Type {
	case BudgetFixed, BudgetHourly:
		if b.Amount == nil || b.Min != nil || b.Max != nil {
			return fmt.Errorf("%w: %s budget requires budget_amount only", errval.ErrValidation, b.Type)
		}
		if *b.Amount <= 0 {
			return fmt.Errorf("%w: budget_amount must be positive", errval.ErrValidation)
		}
	case BudgetRange:
		if b.Min == nil || b.Max == nil || b.Amount != nil {
			return fmt.Errorf("%w: range budget requires budget_min and budget_max only", errval.ErrValidation)
		}
		if *b.Min <= 0 || *b.Max <= *b.Min {
			return fmt.Errorf("%w: range budget requires 0 < budget_min < budget_max", errval.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown budget_type %q", errval.ErrValidation, b.Type)
	}

	return nil
}

// Display derives the user-facing budget string; it is never stored.
func (b Budget) Display() string {
	switch b.Type {
	case BudgetFixed:
		return "$" + formatAmount(*b.Amount)
	case BudgetRange:
		return "$" + formatAmount(*b.Min) + "-" + formatAmount(*b.Max)
	case BudgetHourly:
		return "$" + formatAmount(*b.Amount) + "/hr"
	default:
		return ""
	}
}

// SuggestedOffer returns the pre-filled offer amount for a proposal form:
// the budget itself for fixed and hourly budgets, the rounded arithmetic
// mean for range budgets.
func (b Budget) SuggestedOffer() int64 {
	switch b.Type {
	case BudgetFixed, BudgetHourly:
		return int64(math.Round(*b.Amount))
	case BudgetRange:
		return int64(math.Round((*b.Min + *b.Max) / 2))
	default:
		return 0
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
