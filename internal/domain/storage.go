package domain

import "context"

// Storage is the relational store behind the marketplace. Status-changing
// methods take the expected current status and apply the change as a single
// conditional write, so concurrent actors race on the store rather than on
// stale in-process reads.
type Storage interface {
	Ping(ctx context.Context) (err error)

	// UpsertProfile is keyed on the profile id, which is the auth user id;
	// a repeated save overwrites the mutable fields.
	UpsertProfile(ctx context.Context, profile *Profile) (*Profile, error)
	GetProfileByID(ctx context.Context, id string) (*Profile, error)

	InsertTask(ctx context.Context, task *Task) (*Task, error)
	GetTaskByID(ctx context.Context, id string) (*Task, error)
	ListTasksByStatus(ctx context.Context, status TaskStatus) ([]*Task, error)
	ListTasksByOwner(ctx context.Context, ownerID string) ([]*Task, error)
	ListTasksByTasker(ctx context.Context, taskerID string) ([]*Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, currentStatus, newStatus TaskStatus) error

	InsertProposal(ctx context.Context, proposal *Proposal) (*Proposal, error)
	GetProposalByID(ctx context.Context, id string) (*Proposal, error)
	ListProposalsByTask(ctx context.Context, taskID string) ([]*Proposal, error)
	GetAcceptedProposal(ctx context.Context, taskID string) (*Proposal, error)
	AcceptProposalInTx(ctx context.Context, proposalID, taskID string) error
	UpdateProposalStatus(ctx context.Context, proposalID string, currentStatus, newStatus ProposalStatus) error

	InsertPayment(ctx context.Context, payment *Payment) (*Payment, error)
	GetPaymentBySessionID(ctx context.Context, sessionID string) (*Payment, error)
	MarkPaymentPaid(ctx context.Context, sessionID string) (updated bool, err error)

	InsertNotification(ctx context.Context, notification *Notification) (*Notification, error)
	ListNotificationsByUser(ctx context.Context, userID string) ([]*Notification, error)
	ListUnreadNotificationsBefore(ctx context.Context, passedSeconds, limit int32) ([]*Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
}
