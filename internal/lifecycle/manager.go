package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
)

// transitions is the task status graph. Anything not listed here cannot
// happen, no matter which handler asks for it.
var transitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.Open:       {domain.Assigned, domain.Cancelled},
	domain.Assigned:   {domain.InProgress, domain.Cancelled},
	domain.InProgress: {domain.Review},
	domain.Review:     {domain.Completed},
}

// CanTransition reports whether the status graph contains the edge from -> to.
func CanTransition(from, to domain.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Manager owns every task and proposal status mutation. Callers pass the
// acting user id explicitly; there is no ambient identity. All status writes
// go through the storage's conditional updates, so a stale precondition check
// here loses the race at the store, never after it.
type Manager struct {
	storage domain.Storage
}

func NewManager(storage domain.Storage) *Manager {
	return &Manager{storage: storage}
}

// readFailure passes ErrNotFound through to the caller and hides any other
// storage error behind ErrInternal so driver detail never reaches a client.
func readFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, errval.ErrNotFound) {
		return err
	}

	slog.ErrorContext(ctx, "error occurred while calling "+op, "error", err)
	return errval.ErrInternal
}

// SaveProfile upserts the actor's own profile; the profile id is the auth
// user id, so a user can never write anyone else's row.
func (m *Manager) SaveProfile(ctx context.Context, actorID string, req domain.RouterRequestUpsertProfile) (*domain.Profile, error) {
	if actorID == "" {
		return nil, errval.ErrPermissionDenied
	}

	profile, err := m.storage.UpsertProfile(ctx, &domain.Profile{
		ID:        actorID,
		Email:     req.Email,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.UpsertProfile", "error", err)
		return nil, errval.ErrInternal
	}

	slog.Info("Profile saved", "user_id", actorID)
	return profile, nil
}

func (m *Manager) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	profile, err := m.storage.GetProfileByID(ctx, id)
	if err != nil {
		return nil, readFailure(ctx, "storage.GetProfileByID", err)
	}

	return profile, nil
}

func (m *Manager) CreateTask(ctx context.Context, ownerID string, req domain.RouterRequestCreateTask) (*domain.Task, error) {
	if ownerID == "" {
		return nil, errval.ErrPermissionDenied
	}

	budget := req.ToBudget()
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	task := &domain.Task{
		UserID:       ownerID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
		Skills:       req.Skills,
		Budget:       budget,
		Urgent:       req.Urgent,
		TimeFlexible: req.TimeFlexible,
		RequiredDate: req.RequiredDate,
	}

	created, err := m.storage.InsertTask(ctx, task)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.InsertTask", "error", err)
		return nil, errval.ErrInternal
	}

	slog.Info("Task created", "task_id", created.ID, "user_id", ownerID)
	return created, nil
}

func (m *Manager) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := m.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, readFailure(ctx, "storage.GetTaskByID", err)
	}

	return task, nil
}

func (m *Manager) BrowseTasks(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	tasks, err := m.storage.ListTasksByStatus(ctx, status)
	if err != nil {
		return nil, readFailure(ctx, "storage.ListTasksByStatus", err)
	}

	return tasks, nil
}

func (m *Manager) ListOwnedTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	tasks, err := m.storage.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, readFailure(ctx, "storage.ListTasksByOwner", err)
	}

	return tasks, nil
}

func (m *Manager) ListAssignedTasks(ctx context.Context, taskerID string) ([]*domain.Task, error) {
	tasks, err := m.storage.ListTasksByTasker(ctx, taskerID)
	if err != nil {
		return nil, readFailure(ctx, "storage.ListTasksByTasker", err)
	}

	return tasks, nil
}

// ListTaskProposals returns a task's proposals joined with tasker profiles.
// Only the task owner may see them.
func (m *Manager) ListTaskProposals(ctx context.Context, actorID, taskID string) ([]*domain.Proposal, error) {
	task, err := m.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID != actorID {
		return nil, errval.ErrPermissionDenied
	}

	proposals, err := m.storage.ListProposalsByTask(ctx, taskID)
	if err != nil {
		return nil, readFailure(ctx, "storage.ListProposalsByTask", err)
	}

	return proposals, nil
}

// SubmitProposal records a tasker's offer on an open task. The (task, tasker)
// uniqueness lives in the store; a second submission surfaces as
// ErrDuplicateProposal regardless of interleaving.
func (m *Manager) SubmitProposal(ctx context.Context, taskerID string, req domain.RouterRequestSubmitProposal) (*domain.Proposal, error) {
	if taskerID == "" {
		return nil, errval.ErrPermissionDenied
	}

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", errval.ErrValidation)
	}
	if req.Message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", errval.ErrValidation)
	}
	if !domain.Timeline(req.Timeline).IsValid() {
		return nil, fmt.Errorf("%w: unknown timeline %q", errval.ErrValidation, req.Timeline)
	}

	task, err := m.storage.GetTaskByID(ctx, req.TaskID)
	if err != nil {
		return nil, readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID == taskerID {
		return nil, errval.ErrPermissionDenied
	}
	if task.Status != domain.Open {
		return nil, errval.ErrTaskNoLongerOpen
	}

	proposal, err := m.storage.InsertProposal(ctx, &domain.Proposal{
		TaskID:   req.TaskID,
		TaskerID: taskerID,
		Amount:   req.Amount,
		Message:  req.Message,
		Timeline: domain.Timeline(req.Timeline),
	})
	if err != nil {
		if errors.Is(err, errval.ErrDuplicateProposal) {
			return nil, err
		}

		slog.ErrorContext(ctx, "error occurred while calling storage.InsertProposal", "error", err)
		return nil, errval.ErrInternal
	}

	slog.Info("Proposal submitted", "proposal_id", proposal.ID, "task_id", proposal.TaskID, "tasker_id", taskerID)
	return proposal, nil
}

// AcceptProposal moves the proposal to accepted and the task to assigned in
// one storage transaction. Sibling proposals stay pending so the owner can
// still see fallback offers.
func (m *Manager) AcceptProposal(ctx context.Context, actorID, proposalID string) error {
	proposal, err := m.storage.GetProposalByID(ctx, proposalID)
	if err != nil {
		return readFailure(ctx, "storage.GetProposalByID", err)
	}

	task, err := m.storage.GetTaskByID(ctx, proposal.TaskID)
	if err != nil {
		return readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID != actorID {
		return errval.ErrPermissionDenied
	}
	if proposal.Status != domain.ProposalPending {
		return errval.ErrInvalidTransition
	}
	if task.Status != domain.Open {
		return errval.ErrTaskNoLongerOpen
	}

	err = m.storage.AcceptProposalInTx(ctx, proposalID, task.ID)
	if err != nil {
		return err
	}

	slog.Info("Proposal accepted", "proposal_id", proposalID, "task_id", task.ID)
	return nil
}

// RejectProposal is terminal for the proposal and leaves the task untouched.
func (m *Manager) RejectProposal(ctx context.Context, actorID, proposalID string) error {
	proposal, err := m.storage.GetProposalByID(ctx, proposalID)
	if err != nil {
		return readFailure(ctx, "storage.GetProposalByID", err)
	}

	task, err := m.storage.GetTaskByID(ctx, proposal.TaskID)
	if err != nil {
		return readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID != actorID {
		return errval.ErrPermissionDenied
	}
	if proposal.Status != domain.ProposalPending {
		return errval.ErrInvalidTransition
	}

	err = m.storage.UpdateProposalStatus(ctx, proposalID, domain.ProposalPending, domain.ProposalRejected)
	if err != nil {
		return err
	}

	slog.Info("Proposal rejected", "proposal_id", proposalID, "task_id", task.ID)
	return nil
}

// StartWork: assigned -> in_progress, by the accepted tasker.
func (m *Manager) StartWork(ctx context.Context, actorID, taskID string) error {
	return m.taskerTransition(ctx, actorID, taskID, domain.Assigned, domain.InProgress)
}

// SubmitForReview: in_progress -> review, by the accepted tasker.
func (m *Manager) SubmitForReview(ctx context.Context, actorID, taskID string) error {
	return m.taskerTransition(ctx, actorID, taskID, domain.InProgress, domain.Review)
}

// CompleteTask: review -> completed, by the task owner.
func (m *Manager) CompleteTask(ctx context.Context, actorID, taskID string) error {
	task, err := m.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID != actorID {
		return errval.ErrPermissionDenied
	}
	if !CanTransition(task.Status, domain.Completed) {
		return errval.ErrInvalidTransition
	}

	return m.applyTransition(ctx, taskID, task.Status, domain.Completed)
}

// CancelTask is the owner's escape hatch, allowed from open and assigned only.
func (m *Manager) CancelTask(ctx context.Context, actorID, taskID string) error {
	task, err := m.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return readFailure(ctx, "storage.GetTaskByID", err)
	}

	if task.UserID != actorID {
		return errval.ErrPermissionDenied
	}
	if !CanTransition(task.Status, domain.Cancelled) {
		return errval.ErrInvalidTransition
	}

	return m.applyTransition(ctx, taskID, task.Status, domain.Cancelled)
}

func (m *Manager) taskerTransition(ctx context.Context, actorID, taskID string, from, to domain.TaskStatus) error {
	task, err := m.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return readFailure(ctx, "storage.GetTaskByID", err)
	}

	accepted, err := m.storage.GetAcceptedProposal(ctx, taskID)
	if err != nil {
		if errors.Is(err, errval.ErrNotFound) {
			return errval.ErrInvalidTransition
		}

		return readFailure(ctx, "storage.GetAcceptedProposal", err)
	}

	if accepted.TaskerID != actorID {
		return errval.ErrPermissionDenied
	}
	if task.Status != from || !CanTransition(from, to) {
		return errval.ErrInvalidTransition
	}

	return m.applyTransition(ctx, taskID, from, to)
}

func (m *Manager) applyTransition(ctx context.Context, taskID string, from, to domain.TaskStatus) error {
	err := m.storage.UpdateTaskStatus(ctx, taskID, from, to)
	if err != nil {
		return err
	}

	slog.Info("Task status changed", "task_id", taskID, "old_status", from, "new_status", to)
	return nil
}
