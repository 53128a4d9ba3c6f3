package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"partyhub/internal/domain"
)

type inviteRepository struct {
	DB *sql.DB
}

func NewInviteRepository(db *sql.DB) domain.InviteRepository {
	return &inviteRepository{DB: db}
}

func (r *inviteRepository) GetBudget(ctx context.Context, userID string) (*domain.InviteBudget, error) {
	query := `
		SELECT user_id, remaining, total_granted, updated_at
		FROM invite_budgets
		WHERE user_id = $1
	`
	b := &domain.InviteBudget{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&b.UserID, &b.Remaining, &b.TotalGranted, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *inviteRepository) EnsureBudget(ctx context.Context, userID string, seed int) error {
	query := `
		INSERT INTO invite_budgets (user_id, remaining, total_granted)
		VALUES ($1, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.DB.ExecContext(ctx, query, userID, seed)
	return err
}

// SpendAndCreate decrements the sender's budget and records the invite in
// one transaction. The guarded UPDATE (remaining > 0) is what keeps the
// budget from going negative under concurrent sends.
func (r *inviteRepository) SpendAndCreate(ctx context.Context, inv *domain.Invite) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	spend := `
		UPDATE invite_budgets
		SET remaining = remaining - 1, updated_at = NOW()
		WHERE user_id = $1 AND remaining > 0
	`
	result, err := tx.ExecContext(ctx, spend, inv.SenderID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNoInvitesRemaining
	}

	create := `
		INSERT INTO invites (sender_id, recipient_email, code, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, create,
		inv.SenderID, inv.RecipientEmail, inv.Code, inv.Status, inv.CreatedAt,
	).Scan(&inv.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateInvite
		}
		return err
	}

	return tx.Commit()
}

func (r *inviteRepository) Grant(ctx context.Context, userID string, n int) error {
	query := `
		INSERT INTO invite_budgets (user_id, remaining, total_granted, updated_at)
		VALUES ($1, $2, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			remaining = invite_budgets.remaining + EXCLUDED.remaining,
			total_granted = invite_budgets.total_granted + EXCLUDED.total_granted,
			updated_at = NOW()
	`
	_, err := r.DB.ExecContext(ctx, query, userID, n)
	return err
}

func (r *inviteRepository) ListBySenderID(ctx context.Context, senderID string) ([]*domain.Invite, error) {
	query := `
		SELECT id, sender_id, recipient_email, code, status, created_at, accepted_at
		FROM invites
		WHERE sender_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, senderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]*domain.Invite, 0)
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

func (r *inviteRepository) GetByCode(ctx context.Context, code string) (*domain.Invite, error) {
	query := `
		SELECT id, sender_id, recipient_email, code, status, created_at, accepted_at
		FROM invites
		WHERE code = $1
	`
	inv, err := scanInvite(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *inviteRepository) MarkAccepted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE invites
		SET status = $2, accepted_at = $3
		WHERE id = $1 AND status = $4
	`
	result, err := r.DB.ExecContext(ctx, query, id, domain.InviteStatusAccepted, at, domain.InviteStatusSent)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrInviteUsed
	}
	return nil
}

func scanInvite(s scanner) (*domain.Invite, error) {
	inv := &domain.Invite{}
	var acceptedAt sql.NullTime
	err := s.Scan(&inv.ID, &inv.SenderID, &inv.RecipientEmail, &inv.Code, &inv.Status, &inv.CreatedAt, &acceptedAt)
	if err != nil {
		return nil, err
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	return inv, nil
}
