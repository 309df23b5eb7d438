package domain

import "time"

type RouterRequestCreateTask struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description" binding:"required"`
	Category     string     `json:"category" binding:"required"`
	Location     string     `json:"location" binding:"required"`
	Skills       []string   `json:"skills"`
	Urgent       bool       `json:"urgent"`
	TimeFlexible bool       `json:"time_flexible"`
	RequiredDate *time.Time `json:"required_date"`
	BudgetType   string     `json:"budget_type" binding:"required,validate_budget_type"`
	BudgetAmount *float64   `json:"budget_amount"`
	BudgetMin    *float64   `json:"budget_min"`
	BudgetMax    *float64   `json:"budget_max"`
}

func (r RouterRequestCreateTask) ToBudget() Budget {
	return Budget{
		Type:   BudgetType(r.BudgetType),
		Amount: r.BudgetAmount,
		Min:    r.BudgetMin,
		Max:    r.BudgetMax,
	}
}

type RouterRequestUpsertProfile struct {
	Email     string `json:"email" binding:"required,email"`
	FullName  string `json:"full_name" binding:"required"`
	AvatarURL string `json:"avatar_url"`
}

type RouterRequestSubmitProposal struct {
	TaskID   string  `json:"task_id" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Message  string  `json:"message" binding:"required"`
	Timeline string  `json:"timeline" binding:"required,validate_timeline"`
}

type RouterRequestCreatePayment struct {
	TaskID string `json:"task_id" binding:"required"`
	// Amount is in minor currency units; the UI multiplies dollars by 100.
	Amount int64 `json:"amount" binding:"required"`
}

type RouterRequestVerifyPayment struct {
	SessionID string `json:"sessionId" binding:"required"`
}
