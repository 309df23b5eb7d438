package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
)

const uniqueViolationCode = "23505"

type storage struct {
	pool *pgxpool.Pool
}

func NewStorage(ctx context.Context, dsn string) (*storage, error) {
	var pool *pgxpool.Pool
	var err error

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	err = backoff.Retry(func() error {
		if pool, err = pgxpool.ConnectConfig(ctx, config); err != nil {
			slog.ErrorContext(ctx, "failed to connect to postgres database.. retrying...", "error", err)
			return err
		}

		if err = pool.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ping postgres database connection.. retrying...", "error", err)
			return err
		}

		return nil
	}, backoff.WithMaxRetries(backoff.NewConstantBackOff(3*time.Second), 5))

	if err != nil {
		return nil, err
	}

	return &storage{pool: pool}, nil
}

func (s *storage) Ping(ctx context.Context) (err error) {
	return s.pool.Ping(ctx)
}

func (s *storage) UpsertProfile(ctx context.Context, profile *domain.Profile) (*domain.Profile, error) {
	now := time.Now().UTC()
	saved := &domain.Profile{
		ID:        profile.ID,
		Email:     profile.Email,
		FullName:  profile.FullName,
		AvatarURL: profile.AvatarURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, email, full_name, avatar_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email, full_name = EXCLUDED.full_name,
		     avatar_url = EXCLUDED.avatar_url, updated_at = EXCLUDED.updated_at`,
		saved.ID, saved.Email, saved.FullName, saved.AvatarURL, now,
	)
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (s *storage) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	var fullName, avatarURL pgtype.Text

	err := s.pool.QueryRow(ctx,
		`SELECT id, email, full_name, avatar_url, created_at, updated_at FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &fullName, &avatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	p.FullName = fullName.String
	p.AvatarURL = avatarURL.String
	return &p, nil
}

func (s *storage) InsertTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	now := time.Now().UTC()
	inserted := *task
	inserted.ID = uuid.NewString()
	inserted.Status = domain.Open
	inserted.CreatedAt = now
	inserted.UpdatedAt = now

	var skills pgtype.TextArray
	if err := skills.Set(task.Skills); err != nil {
		return nil, err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, description, category, location, skills,
		                    budget_type, budget_amount, budget_min, budget_max,
		                    urgent, time_flexible, required_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)`,
		inserted.ID, inserted.UserID, inserted.Title, inserted.Description, inserted.Category,
		inserted.Location, skills, inserted.Budget.Type, inserted.Budget.Amount,
		inserted.Budget.Min, inserted.Budget.Max, inserted.Urgent, inserted.TimeFlexible,
		inserted.RequiredDate, inserted.Status, now,
	)
	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

const taskColumns = `id, user_id, title, description, category, location, skills,
	budget_type, budget_amount, budget_min, budget_max,
	urgent, time_flexible, required_date, status, created_at, updated_at`

func (s *storage) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return task, nil
}

func (s *storage) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (s *storage) ListTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (s *storage) ListTasksByTasker(ctx context.Context, taskerID string) ([]*domain.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.id, t.user_id, t.title, t.description, t.category, t.location, t.skills,
		        t.budget_type, t.budget_amount, t.budget_min, t.budget_max,
		        t.urgent, t.time_flexible, t.required_date, t.status, t.created_at, t.updated_at
		 FROM tasks t
		 JOIN proposals p ON p.task_id = t.id AND p.status = 'accepted'
		 WHERE p.tasker_id = $1
		 ORDER BY t.created_at DESC`, taskerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows)
}

func (s *storage) UpdateTaskStatus(ctx context.Context, taskID string, currentStatus, newStatus domain.TaskStatus) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		newStatus, taskID, currentStatus,
	)
	if err != nil {
		return err
	}

	// Zero rows means the task moved on under us; the caller must re-fetch.
	if ct.RowsAffected() == 0 {
		return errval.ErrInvalidTransition
	}

	return nil
}

func (s *storage) InsertProposal(ctx context.Context, proposal *domain.Proposal) (*domain.Proposal, error) {
	now := time.Now().UTC()
	inserted := *proposal
	inserted.ID = uuid.NewString()
	inserted.Status = domain.ProposalPending
	inserted.CreatedAt = now
	inserted.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO proposals (id, task_id, tasker_id, amount, message, timeline, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		inserted.ID, inserted.TaskID, inserted.TaskerID, inserted.Amount,
		inserted.Message, inserted.Timeline, inserted.Status, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, errval.ErrDuplicateProposal
		}

		return nil, err
	}

	return &inserted, nil
}

const proposalColumns = `id, task_id, tasker_id, amount, message, timeline, status, created_at, updated_at`

func (s *storage) GetProposalByID(ctx context.Context, id string) (*domain.Proposal, error) {
	var p domain.Proposal
	err := s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = $1`, id,
	).Scan(&p.ID, &p.TaskID, &p.TaskerID, &p.Amount, &p.Message, &p.Timeline, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

func (s *storage) ListProposalsByTask(ctx context.Context, taskID string) ([]*domain.Proposal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.task_id, p.tasker_id, p.amount, p.message, p.timeline, p.status, p.created_at, p.updated_at,
		        pr.email, pr.full_name
		 FROM proposals p
		 LEFT JOIN profiles pr ON pr.id = p.tasker_id
		 WHERE p.task_id = $1
		 ORDER BY p.created_at DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []*domain.Proposal{}
	for rows.Next() {
		var p domain.Proposal
		var email, fullName pgtype.Text
		err = rows.Scan(&p.ID, &p.TaskID, &p.TaskerID, &p.Amount, &p.Message, &p.Timeline,
			&p.Status, &p.CreatedAt, &p.UpdatedAt, &email, &fullName)
		if err != nil {
			return nil, err
		}

		if email.Status == pgtype.Present {
			p.Tasker = &domain.Profile{
				ID:       p.TaskerID,
				Email:    email.String,
				FullName: fullName.String,
			}
		}

		proposals = append(proposals, &p)
	}

	return proposals, rows.Err()
}

func (s *storage) GetAcceptedProposal(ctx context.Context, taskID string) (*domain.Proposal, error) {
	var p domain.Proposal
	err := s.pool.QueryRow(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE task_id = $1 AND status = 'accepted'`, taskID,
	).Scan(&p.ID, &p.TaskID, &p.TaskerID, &p.Amount, &p.Message, &p.Timeline, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

// AcceptProposalInTx assigns the task and accepts the proposal as one atomic
// unit. The task update is conditioned on status still being 'open', so of two
// concurrent accepts only the first commits; the second sees zero affected
// rows and gets ErrTaskNoLongerOpen. Sibling proposals are left pending.
func (s *storage) AcceptProposalInTx(ctx context.Context, proposalID, taskID string) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}

	rollback := func() {
		err2 := tx.Rollback(ctx)
		if err2 != nil && !errors.Is(err2, pgx.ErrTxClosed) {
			slog.Error("Error occurred while rolling back transaction", "error", err2.Error())
		}
	}

	ct, err := tx.Exec(ctx,
		`UPDATE tasks SET status = 'assigned', updated_at = now() WHERE id = $1 AND status = 'open'`,
		taskID,
	)
	if err != nil {
		rollback()
		return err
	}
	if ct.RowsAffected() == 0 {
		rollback()
		return errval.ErrTaskNoLongerOpen
	}

	ct, err = tx.Exec(ctx,
		`UPDATE proposals SET status = 'accepted', updated_at = now() WHERE id = $1 AND status = 'pending'`,
		proposalID,
	)
	if err != nil {
		rollback()
		return err
	}
	if ct.RowsAffected() == 0 {
		rollback()
		return errval.ErrInvalidTransition
	}

	return tx.Commit(ctx)
}

func (s *storage) UpdateProposalStatus(ctx context.Context, proposalID string, currentStatus, newStatus domain.ProposalStatus) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE proposals SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`,
		newStatus, proposalID, currentStatus,
	)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		return errval.ErrInvalidTransition
	}

	return nil
}

func (s *storage) InsertPayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	now := time.Now().UTC()
	inserted := *payment
	inserted.ID = uuid.NewString()
	inserted.Status = domain.PaymentPending
	inserted.CreatedAt = now
	inserted.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO payments (id, task_id, client_id, tasker_id, amount, currency, stripe_session_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		inserted.ID, inserted.TaskID, inserted.ClientID, inserted.TaskerID,
		inserted.Amount, inserted.Currency, inserted.StripeSessionID, inserted.Status, now,
	)
	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

func (s *storage) GetPaymentBySessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	var p domain.Payment
	err := s.pool.QueryRow(ctx,
		`SELECT id, task_id, client_id, tasker_id, amount, currency, stripe_session_id, status, created_at, updated_at
		 FROM payments WHERE stripe_session_id = $1`, sessionID,
	).Scan(&p.ID, &p.TaskID, &p.ClientID, &p.TaskerID, &p.Amount, &p.Currency,
		&p.StripeSessionID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, errval.ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

// MarkPaymentPaid is the idempotency guard of the payment webhook: only the
// call that actually flips pending to paid reports updated=true.
func (s *storage) MarkPaymentPaid(ctx context.Context, sessionID string) (updated bool, err error) {
	ct, err := s.pool.Exec(ctx,
		`UPDATE payments SET status = 'paid', updated_at = now()
		 WHERE stripe_session_id = $1 AND status = 'pending'`, sessionID,
	)
	if err != nil {
		return false, err
	}

	return ct.RowsAffected() > 0, nil
}

func (s *storage) InsertNotification(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	now := time.Now().UTC()
	inserted := *notification
	inserted.ID = uuid.NewString()
	inserted.Read = false
	inserted.CreatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, task_id, type, title, message, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		inserted.ID, inserted.UserID, inserted.TaskID, inserted.Type,
		inserted.Title, inserted.Message, now,
	)
	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

const notificationColumns = `id, user_id, task_id, type, title, message, read, created_at`

func (s *storage) ListNotificationsByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (s *storage) ListUnreadNotificationsBefore(ctx context.Context, passedSeconds, limit int32) ([]*domain.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE read = FALSE AND created_at <= now() - ($1 * interval '1 second')
		 ORDER BY created_at
		 LIMIT $2`, passedSeconds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (s *storage) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	ct, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return err
	}

	if ct.RowsAffected() == 0 {
		return errval.ErrNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	var skills pgtype.TextArray
	var amount, budgetMin, budgetMax pgtype.Float8
	var requiredDate pgtype.Timestamptz

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Category, &t.Location,
		&skills, &t.Budget.Type, &amount, &budgetMin, &budgetMax,
		&t.Urgent, &t.TimeFlexible, &requiredDate, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if skills.Status == pgtype.Present {
		if err := skills.AssignTo(&t.Skills); err != nil {
			return nil, err
		}
	}
	if amount.Status == pgtype.Present {
		v := amount.Float
		t.Budget.Amount = &v
	}
	if budgetMin.Status == pgtype.Present {
		v := budgetMin.Float
		t.Budget.Min = &v
	}
	if budgetMax.Status == pgtype.Present {
		v := budgetMax.Float
		t.Budget.Max = &v
	}
	if requiredDate.Status == pgtype.Present {
		v := requiredDate.Time
		t.RequiredDate = &v
	}

	return &t, nil
}

func collectTasks(rows pgx.Rows) ([]*domain.Task, error) {
	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

func collectNotifications(rows pgx.Rows) ([]*domain.Notification, error) {
	notifications := []*domain.Notification{}
	for rows.Next() {
		var n domain.Notification
		err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}
