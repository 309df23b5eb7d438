// Package testutil provides in-memory implementations of the collaborator
// interfaces so handler and workflow tests run without Postgres, RabbitMQ or
// Stripe. The store reproduces the conditional-update semantics of the real
// storage layer, including the accept transaction and the payment guard.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
)

type Store struct {
	mu            sync.Mutex
	profiles      map[string]*domain.Profile
	tasks         map[string]*domain.Task
	proposals     map[string]*domain.Proposal
	payments      map[string]*domain.Payment
	notifications map[string]*domain.Notification
}

func NewStore() *Store {
	return &Store{
		profiles:      map[string]*domain.Profile{},
		tasks:         map[string]*domain.Task{},
		proposals:     map[string]*domain.Proposal{},
		payments:      map[string]*domain.Payment{},
		notifications: map[string]*domain.Notification{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *profile
	p.UpdatedAt = time.Now().UTC()
	if existing, ok := s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = p.UpdatedAt
	}
	s.profiles[p.ID] = &p

	copied := p
	return &copied, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, errval.ErrNotFound
	}

	copied := *p
	return &copied, nil
}

func (s *Store) InsertTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := *task
	t.ID = uuid.NewString()
	t.Status = domain.Open
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = &t

	copied := t
	return &copied, nil
}

func (s *Store) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, errval.ErrNotFound
	}

	copied := *t
	return &copied, nil
}

func (s *Store) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterTasks(func(t *domain.Task) bool { return t.Status == status }), nil
}

func (s *Store) ListTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterTasks(func(t *domain.Task) bool { return t.UserID == ownerID }), nil
}

func (s *Store) ListTasksByTasker(ctx context.Context, taskerID string) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	assigned := map[string]bool{}
	for _, p := range s.proposals {
		if p.TaskerID == taskerID && p.Status == domain.ProposalAccepted {
			assigned[p.TaskID] = true
		}
	}

	return s.filterTasks(func(t *domain.Task) bool { return assigned[t.ID] }), nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, taskID string, currentStatus, newStatus domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.Status != currentStatus {
		return errval.ErrInvalidTransition
	}

	t.Status = newStatus
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) InsertProposal(ctx context.Context, proposal *domain.Proposal) (*domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.proposals {
		if existing.TaskID == proposal.TaskID && existing.TaskerID == proposal.TaskerID {
			return nil, errval.ErrDuplicateProposal
		}
	}

	p := *proposal
	p.ID = uuid.NewString()
	p.Status = domain.ProposalPending
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.proposals[p.ID] = &p

	copied := p
	return &copied, nil
}

func (s *Store) GetProposalByID(ctx context.Context, id string) (*domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, errval.ErrNotFound
	}

	copied := *p
	return &copied, nil
}

func (s *Store) ListProposalsByTask(ctx context.Context, taskID string) ([]*domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposals := []*domain.Proposal{}
	for _, p := range s.proposals {
		if p.TaskID != taskID {
			continue
		}

		copied := *p
		if profile, ok := s.profiles[p.TaskerID]; ok {
			profileCopy := *profile
			copied.Tasker = &profileCopy
		}
		proposals = append(proposals, &copied)
	}

	sort.Slice(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.After(proposals[j].CreatedAt)
	})
	return proposals, nil
}

func (s *Store) GetAcceptedProposal(ctx context.Context, taskID string) (*domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.proposals {
		if p.TaskID == taskID && p.Status == domain.ProposalAccepted {
			copied := *p
			return &copied, nil
		}
	}

	return nil, errval.ErrNotFound
}

func (s *Store) AcceptProposalInTx(ctx context.Context, proposalID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.Status != domain.Open {
		return errval.ErrTaskNoLongerOpen
	}

	p, ok := s.proposals[proposalID]
	if !ok || p.Status != domain.ProposalPending {
		return errval.ErrInvalidTransition
	}

	now := time.Now().UTC()
	t.Status = domain.Assigned
	t.UpdatedAt = now
	p.Status = domain.ProposalAccepted
	p.UpdatedAt = now
	return nil
}

func (s *Store) UpdateProposalStatus(ctx context.Context, proposalID string, currentStatus, newStatus domain.ProposalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[proposalID]
	if !ok || p.Status != currentStatus {
		return errval.ErrInvalidTransition
	}

	p.Status = newStatus
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) InsertPayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *payment
	p.ID = uuid.NewString()
	p.Status = domain.PaymentPending
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.payments[p.ID] = &p

	copied := p
	return &copied, nil
}

func (s *Store) GetPaymentBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.StripeSessionID == sessionID {
			copied := *p
			return &copied, nil
		}
	}

	return nil, errval.ErrNotFound
}

func (s *Store) MarkPaymentPaid(ctx context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.payments {
		if p.StripeSessionID == sessionID && p.Status == domain.PaymentPending {
			p.Status = domain.PaymentPaid
			p.UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}

	return false, nil
}

func (s *Store) InsertNotification(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := *notification
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = time.Now().UTC()
	s.notifications[n.ID] = &n

	copied := n
	return &copied, nil
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := []*domain.Notification{}
	for _, n := range s.notifications {
		if n.UserID == userID {
			copied := *n
			notifications = append(notifications, &copied)
		}
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

func (s *Store) ListUnreadNotificationsBefore(ctx context.Context, passedSeconds, limit int32) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-time.Duration(passedSeconds) * time.Second)
	notifications := []*domain.Notification{}
	for _, n := range s.notifications {
		if !n.Read && !n.CreatedAt.After(cutoff) {
			copied := *n
			notifications = append(notifications, &copied)
		}
	}

	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.Before(notifications[j].CreatedAt)
	})
	if int32(len(notifications)) > limit {
		notifications = notifications[:limit]
	}
	return notifications, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return errval.ErrNotFound
	}

	n.Read = true
	return nil
}

func (s *Store) filterTasks(keep func(*domain.Task) bool) []*domain.Task {
	tasks := []*domain.Task{}
	for _, t := range s.tasks {
		if keep(t) {
			copied := *t
			tasks = append(tasks, &copied)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks
}
