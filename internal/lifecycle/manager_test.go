package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
	"github.com/dokaw/task-dash-gleam/internal/testutil"
)

const (
	clientID = "client-1"
	taskerID = "tasker-1"
)

func Test_can_transition(t *testing.T) {
	cases := []struct {
		from domain.TaskStatus
		to   domain.TaskStatus
		want bool
	}{
		{domain.Open, domain.Assigned, true},
		{domain.Open, domain.Cancelled, true},
		{domain.Open, domain.InProgress, false},
		{domain.Assigned, domain.InProgress, true},
		{domain.Assigned, domain.Cancelled, true},
		{domain.Assigned, domain.Completed, false},
		{domain.InProgress, domain.Review, true},
		{domain.InProgress, domain.Cancelled, false},
		{domain.Review, domain.Completed, true},
		{domain.Review, domain.InProgress, false},
		{domain.Completed, domain.Cancelled, false},
		{domain.Cancelled, domain.Open, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func amount(v float64) *float64 { return &v }

func newFixture(t *testing.T) (*Manager, *domain.Task) {
	t.Helper()

	manager := NewManager(testutil.NewStore())
	task, err := manager.CreateTask(context.Background(), clientID, domain.RouterRequestCreateTask{
		Title:        "Assemble a wardrobe",
		Description:  "Flat pack, tools provided",
		Category:     "assembly",
		Location:     "Springfield",
		BudgetType:   "fixed",
		BudgetAmount: amount(60),
	})
	require.NoError(t, err)
	require.Equal(t, domain.Open, task.Status)
	return manager, task
}

func submit(t *testing.T, m *Manager, taskID, tasker string) *domain.Proposal {
	t.Helper()

	proposal, err := m.SubmitProposal(context.Background(), tasker, domain.RouterRequestSubmitProposal{
		TaskID:   taskID,
		Amount:   60,
		Message:  "can do this weekend",
		Timeline: "1-week",
	})
	require.NoError(t, err)
	return proposal
}

func Test_create_task(t *testing.T) {
	manager := NewManager(testutil.NewStore())
	ctx := context.Background()

	t.Run("it should reject an empty owner", func(t *testing.T) {
		_, err := manager.CreateTask(ctx, "", domain.RouterRequestCreateTask{
			Title: "x", Description: "x", Category: "x", Location: "x",
			BudgetType: "fixed", BudgetAmount: amount(10),
		})
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should reject an invalid budget", func(t *testing.T) {
		_, err := manager.CreateTask(ctx, clientID, domain.RouterRequestCreateTask{
			Title: "x", Description: "x", Category: "x", Location: "x",
			BudgetType: "range", BudgetAmount: amount(10),
		})
		assert.True(t, errors.Is(err, errval.ErrValidation))
	})
}

func Test_submit_proposal(t *testing.T) {
	manager, task := newFixture(t)
	ctx := context.Background()

	t.Run("it should reject the owner bidding on their own task", func(t *testing.T) {
		_, err := manager.SubmitProposal(ctx, clientID, domain.RouterRequestSubmitProposal{
			TaskID: task.ID, Amount: 60, Message: "self deal", Timeline: "asap",
		})
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should reject an unknown timeline", func(t *testing.T) {
		_, err := manager.SubmitProposal(ctx, taskerID, domain.RouterRequestSubmitProposal{
			TaskID: task.ID, Amount: 60, Message: "fast", Timeline: "yesterday",
		})
		assert.True(t, errors.Is(err, errval.ErrValidation))
	})

	t.Run("it should record a pending proposal", func(t *testing.T) {
		proposal := submit(t, manager, task.ID, taskerID)
		assert.Equal(t, domain.ProposalPending, proposal.Status)
		assert.Equal(t, domain.Timeline("1-week"), proposal.Timeline)
	})

	t.Run("it should reject a second proposal from the same tasker", func(t *testing.T) {
		_, err := manager.SubmitProposal(ctx, taskerID, domain.RouterRequestSubmitProposal{
			TaskID: task.ID, Amount: 70, Message: "better offer", Timeline: "asap",
		})
		assert.True(t, errors.Is(err, errval.ErrDuplicateProposal))
	})
}

func Test_accept_proposal(t *testing.T) {
	manager, task := newFixture(t)
	ctx := context.Background()
	first := submit(t, manager, task.ID, taskerID)
	second := submit(t, manager, task.ID, "tasker-2")

	t.Run("it should refuse a non-owner", func(t *testing.T) {
		err := manager.AcceptProposal(ctx, taskerID, first.ID)
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should assign the task and accept the proposal together", func(t *testing.T) {
		require.NoError(t, manager.AcceptProposal(ctx, clientID, first.ID))

		refreshed, err := manager.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Assigned, refreshed.Status)
	})

	t.Run("it should fail on a sibling once assigned and leave it pending", func(t *testing.T) {
		err := manager.AcceptProposal(ctx, clientID, second.ID)
		assert.True(t, errors.Is(err, errval.ErrTaskNoLongerOpen))

		proposals, err := manager.ListTaskProposals(ctx, clientID, task.ID)
		require.NoError(t, err)
		for _, p := range proposals {
			if p.ID == second.ID {
				assert.Equal(t, domain.ProposalPending, p.Status)
			}
		}
	})

	t.Run("it should refuse proposals on the assigned task", func(t *testing.T) {
		_, err := manager.SubmitProposal(ctx, "tasker-3", domain.RouterRequestSubmitProposal{
			TaskID: task.ID, Amount: 50, Message: "too late", Timeline: "asap",
		})
		assert.True(t, errors.Is(err, errval.ErrTaskNoLongerOpen))
	})
}

func Test_reject_proposal(t *testing.T) {
	manager, task := newFixture(t)
	ctx := context.Background()
	proposal := submit(t, manager, task.ID, taskerID)

	require.NoError(t, manager.RejectProposal(ctx, clientID, proposal.ID))

	t.Run("it should be terminal for the proposal", func(t *testing.T) {
		err := manager.AcceptProposal(ctx, clientID, proposal.ID)
		assert.True(t, errors.Is(err, errval.ErrInvalidTransition))
	})

	t.Run("it should leave the task open", func(t *testing.T) {
		refreshed, err := manager.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Open, refreshed.Status)
	})
}

func Test_task_workflow(t *testing.T) {
	manager, task := newFixture(t)
	ctx := context.Background()
	proposal := submit(t, manager, task.ID, taskerID)
	require.NoError(t, manager.AcceptProposal(ctx, clientID, proposal.ID))

	t.Run("it should refuse the owner starting work", func(t *testing.T) {
		err := manager.StartWork(ctx, clientID, task.ID)
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should refuse completing before review", func(t *testing.T) {
		err := manager.CompleteTask(ctx, clientID, task.ID)
		assert.True(t, errors.Is(err, errval.ErrInvalidTransition))
	})

	t.Run("it should walk the happy path in order", func(t *testing.T) {
		require.NoError(t, manager.StartWork(ctx, taskerID, task.ID))
		require.NoError(t, manager.SubmitForReview(ctx, taskerID, task.ID))
		require.NoError(t, manager.CompleteTask(ctx, clientID, task.ID))

		refreshed, err := manager.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Completed, refreshed.Status)
		assert.True(t, refreshed.Status.IsTerminal())
	})

	t.Run("it should refuse cancelling a completed task", func(t *testing.T) {
		err := manager.CancelTask(ctx, clientID, task.ID)
		assert.True(t, errors.Is(err, errval.ErrInvalidTransition))
	})
}

func Test_cancel_task(t *testing.T) {
	ctx := context.Background()

	t.Run("it should cancel an open task", func(t *testing.T) {
		manager, task := newFixture(t)
		require.NoError(t, manager.CancelTask(ctx, clientID, task.ID))

		refreshed, err := manager.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.Cancelled, refreshed.Status)
	})

	t.Run("it should cancel an assigned task", func(t *testing.T) {
		manager, task := newFixture(t)
		proposal := submit(t, manager, task.ID, taskerID)
		require.NoError(t, manager.AcceptProposal(ctx, clientID, proposal.ID))
		require.NoError(t, manager.CancelTask(ctx, clientID, task.ID))
	})

	t.Run("it should refuse cancelling once work started", func(t *testing.T) {
		manager, task := newFixture(t)
		proposal := submit(t, manager, task.ID, taskerID)
		require.NoError(t, manager.AcceptProposal(ctx, clientID, proposal.ID))
		require.NoError(t, manager.StartWork(ctx, taskerID, task.ID))

		err := manager.CancelTask(ctx, clientID, task.ID)
		assert.True(t, errors.Is(err, errval.ErrInvalidTransition))
	})
}

func Test_save_profile(t *testing.T) {
	manager := NewManager(testutil.NewStore())
	ctx := context.Background()

	t.Run("it should reject an empty actor", func(t *testing.T) {
		_, err := manager.SaveProfile(ctx, "", domain.RouterRequestUpsertProfile{
			Email: "a@example.com", FullName: "A",
		})
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should key the profile on the actor id", func(t *testing.T) {
		saved, err := manager.SaveProfile(ctx, taskerID, domain.RouterRequestUpsertProfile{
			Email: "tasker@example.com", FullName: "Jamie Tasker",
		})
		require.NoError(t, err)
		assert.Equal(t, taskerID, saved.ID)
	})

	t.Run("it should overwrite fields on a second save", func(t *testing.T) {
		first, err := manager.GetProfile(ctx, taskerID)
		require.NoError(t, err)

		_, err = manager.SaveProfile(ctx, taskerID, domain.RouterRequestUpsertProfile{
			Email: "tasker@example.com", FullName: "Jamie T. Tasker",
		})
		require.NoError(t, err)

		refreshed, err := manager.GetProfile(ctx, taskerID)
		require.NoError(t, err)
		assert.Equal(t, "Jamie T. Tasker", refreshed.FullName)
		assert.Equal(t, first.CreatedAt, refreshed.CreatedAt)
	})

	t.Run("it should not find an unknown profile", func(t *testing.T) {
		_, err := manager.GetProfile(ctx, "nobody")
		assert.True(t, errors.Is(err, errval.ErrNotFound))
	})
}

func Test_list_proposals_includes_tasker_profile(t *testing.T) {
	store := testutil.NewStore()
	manager := NewManager(store)
	ctx := context.Background()

	_, err := manager.SaveProfile(ctx, taskerID, domain.RouterRequestUpsertProfile{
		Email: "tasker@example.com", FullName: "Jamie Tasker",
	})
	require.NoError(t, err)

	task, err := manager.CreateTask(ctx, clientID, domain.RouterRequestCreateTask{
		Title:        "Clean the gutters",
		Description:  "Single storey house",
		Category:     "cleaning",
		Location:     "Springfield",
		BudgetType:   "fixed",
		BudgetAmount: amount(80),
	})
	require.NoError(t, err)
	submit(t, manager, task.ID, taskerID)

	proposals, err := manager.ListTaskProposals(ctx, clientID, task.ID)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	require.NotNil(t, proposals[0].Tasker)
	assert.Equal(t, "Jamie Tasker", proposals[0].Tasker.FullName)
	assert.Equal(t, "tasker@example.com", proposals[0].Tasker.Email)
}

type brokenStore struct {
	*testutil.Store
}

func (b *brokenStore) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	return nil, errors.New("pq: connection reset by peer")
}

func (b *brokenStore) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	return nil, errors.New("pq: connection reset by peer")
}

func Test_storage_failures_stay_internal(t *testing.T) {
	ctx := context.Background()

	t.Run("it should hide driver errors behind ErrInternal", func(t *testing.T) {
		manager := NewManager(&brokenStore{Store: testutil.NewStore()})

		_, err := manager.GetTask(ctx, "t1")
		assert.True(t, errors.Is(err, errval.ErrInternal))
		assert.NotContains(t, err.Error(), "connection reset")

		_, err = manager.BrowseTasks(ctx, domain.Open)
		assert.True(t, errors.Is(err, errval.ErrInternal))
	})

	t.Run("it should still pass not-found through", func(t *testing.T) {
		manager := NewManager(testutil.NewStore())

		_, err := manager.GetTask(ctx, "missing")
		assert.True(t, errors.Is(err, errval.ErrNotFound))
	})
}
