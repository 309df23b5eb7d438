package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokaw/task-dash-gleam/internal/errval"
)

func amount(v float64) *float64 { return &v }

func Test_budget_validate(t *testing.T) {
	cases := []struct {
		name    string
		budget  Budget
		wantErr bool
	}{
		{"fixed with amount", Budget{Type: BudgetFixed, Amount: amount(50)}, false},
		{"hourly with amount", Budget{Type: BudgetHourly, Amount: amount(35.5)}, false},
		{"range with bounds", Budget{Type: BudgetRange, Min: amount(50), Max: amount(100)}, false},
		{"fixed without amount", Budget{Type: BudgetFixed}, true},
		{"fixed with zero amount", Budget{Type: BudgetFixed, Amount: amount(0)}, true},
		{"fixed with range bounds", Budget{Type: BudgetFixed, Amount: amount(50), Min: amount(10)}, true},
		{"range without max", Budget{Type: BudgetRange, Min: amount(50)}, true},
		{"range with amount", Budget{Type: BudgetRange, Min: amount(50), Max: amount(100), Amount: amount(75)}, true},
		{"range with min above max", Budget{Type: BudgetRange, Min: amount(100), Max: amount(50)}, true},
		{"range with equal bounds", Budget{Type: BudgetRange, Min: amount(50), Max: amount(50)}, true},
		{"unknown type", Budget{Type: "weekly", Amount: amount(50)}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.budget.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errval.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_budget_display(t *testing.T) {
	assert.Equal(t, "$50", Budget{Type: BudgetFixed, Amount: amount(50)}.Display())
	assert.Equal(t, "$50-100", Budget{Type: BudgetRange, Min: amount(50), Max: amount(100)}.Display())
	assert.Equal(t, "$35.5/hr", Budget{Type: BudgetHourly, Amount: amount(35.5)}.Display())
}

func Test_budget_suggested_offer(t *testing.T) {
	assert.Equal(t, int64(50), Budget{Type: BudgetFixed, Amount: amount(50)}.SuggestedOffer())
	assert.Equal(t, int64(36), Budget{Type: BudgetHourly, Amount: amount(35.5)}.SuggestedOffer())
	assert.Equal(t, int64(75), Budget{Type: BudgetRange, Min: amount(50), Max: amount(100)}.SuggestedOffer())
}

func Test_task_budget_is_flat_in_json(t *testing.T) {
	task := Task{
		ID:     "t1",
		UserID: "u1",
		Title:  "Mount a TV",
		Budget: Budget{Type: BudgetRange, Min: amount(50), Max: amount(100)},
		Status: Open,
	}

	marshalled, err := json.Marshal(task)
	require.NoError(t, err)

	fields := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(marshalled, &fields))

	assert.Equal(t, "range", fields["budget_type"])
	assert.Equal(t, 50.0, fields["budget_min"])
	assert.Equal(t, 100.0, fields["budget_max"])
	assert.NotContains(t, fields, "Budget")
}
