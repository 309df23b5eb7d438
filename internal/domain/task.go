package domain

import "time"

type TaskStatus string

const (
	Open       TaskStatus = "open"
	Assigned   TaskStatus = "assigned"
	InProgress TaskStatus = "in_progress"
	Review     TaskStatus = "review"
	Completed  TaskStatus = "completed"
	Cancelled  TaskStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s TaskStatus) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

type Task struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Location    string   `json:"location"`
	Skills      []string `json:"skills"`
	Budget
	Urgent       bool       `json:"urgent"`
	TimeFlexible bool       `json:"time_flexible"`
	RequiredDate *time.Time `json:"required_date,omitempty"`
	Status       TaskStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
