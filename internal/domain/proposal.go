package domain

import "time"

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

type Timeline string

const (
	TimelineASAP     Timeline = "asap"
	TimelineDays     Timeline = "1-3-days"
	TimelineWeek     Timeline = "1-week"
	TimelineTwoWeeks Timeline = "2-weeks"
	TimelineMonth    Timeline = "1-month"
	TimelineFlexible Timeline = "flexible"
)

func (t Timeline) IsValid() bool {
	switch t {
	case TimelineASAP, TimelineDays, TimelineWeek, TimelineTwoWeeks, TimelineMonth, TimelineFlexible:
		return true
	default:
		return false
	}
}

type Proposal struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	TaskerID  string         `json:"tasker_id"`
	Amount    float64        `json:"amount"`
	Message   string         `json:"message"`
	Timeline  Timeline       `json:"timeline"`
	Status    ProposalStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	// Tasker is the submitting tasker's profile, populated on joined reads only.
	Tasker *Profile `json:"profiles,omitempty"`
}
