package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// TaskInviteCleanup expires stale pending invitations.
	TaskInviteCleanup = "invites:cleanup"
)

// InviteCleanupPayload carries scheduling metadata.
type InviteCleanupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewInviteCleanupTask constructs an Asynq task for invite cleanup.
func NewInviteCleanupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(InviteCleanupPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInviteCleanup, body, asynq.Queue(QueueDefault)), nil
}

// NewInviteCleanupHandler binds the cleanup job to a database pool.
func NewInviteCleanupHandler(pool *pgxpool.Pool, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload InviteCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return CleanupExpiredInvites(ctx, pool, logger)
	}
}

// CleanupExpiredInvites deletes pending memberships whose invitation window
// has passed.
func CleanupExpiredInvites(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return nil
	}
	tag, err := pool.Exec(ctx, `
DELETE FROM organization_members
WHERE status = 'pending' AND invite_expires_at < now()`)
	if err != nil {
		if logger != nil {
			logger.Error("cleanup expired invites", slog.Any("error", err))
		}
		return err
	}
	if logger != nil && tag.RowsAffected() > 0 {
		logger.Info("expired stale invites",
			slog.Int64("count", tag.RowsAffected()),
			slog.String("job", "invite_cleanup"))
	}
	return nil
}
