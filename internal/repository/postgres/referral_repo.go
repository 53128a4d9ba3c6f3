package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"partyhub/internal/domain"
)

type referralRepository struct {
	DB *sql.DB
}

func NewReferralRepository(db *sql.DB) domain.ReferralRepository {
	return &referralRepository{DB: db}
}

func (r *referralRepository) Create(ctx context.Context, c *domain.ReferralCode) error {
	query := `
		INSERT INTO referral_codes (code, owner_id, bonus, max_uses, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, c.Code, c.OwnerID, c.Bonus, c.MaxUses, c.ExpiresAt, c.CreatedAt)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *referralRepository) GetByCode(ctx context.Context, code string) (*domain.ReferralCode, error) {
	query := `
		SELECT code, owner_id, bonus, max_uses, use_count, expires_at, created_at
		FROM referral_codes
		WHERE code = $1
	`
	c, err := scanReferralCode(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *referralRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.ReferralCode, error) {
	query := `
		SELECT code, owner_id, bonus, max_uses, use_count, expires_at, created_at
		FROM referral_codes
		WHERE owner_id = $1
	`
	c, err := scanReferralCode(r.DB.QueryRowContext(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

// Redeem records the redemption, bumps use_count, and grants the bonus to
// the redeemer's invite budget in one transaction. The guarded bump catches
// a code exhausted between the service's check and this call.
func (r *referralRepository) Redeem(ctx context.Context, red *domain.Redemption) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO referral_redemptions (code, user_id, bonus, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, insert, red.Code, red.UserID, red.Bonus, red.CreatedAt).Scan(&red.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrAlreadyRedeemed
		}
		return err
	}

	bump := `
		UPDATE referral_codes
		SET use_count = use_count + 1
		WHERE code = $1 AND (max_uses IS NULL OR use_count < max_uses)
	`
	result, err := tx.ExecContext(ctx, bump, red.Code)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrCodeExhausted
	}

	grant := `
		INSERT INTO invite_budgets (user_id, remaining, total_granted, updated_at)
		VALUES ($1, $2, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			remaining = invite_budgets.remaining + EXCLUDED.remaining,
			total_granted = invite_budgets.total_granted + EXCLUDED.total_granted,
			updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, grant, red.UserID, red.Bonus); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *referralRepository) ListRedemptionsByCode(ctx context.Context, code string) ([]*domain.Redemption, error) {
	query := `
		SELECT id, code, user_id, bonus, created_at
		FROM referral_redemptions
		WHERE code = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	redemptions := make([]*domain.Redemption, 0)
	for rows.Next() {
		red := &domain.Redemption{}
		if err := rows.Scan(&red.ID, &red.Code, &red.UserID, &red.Bonus, &red.CreatedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}

func (r *referralRepository) ListRedemptionsByUser(ctx context.Context, userID string) ([]*domain.Redemption, error) {
	query := `
		SELECT id, code, user_id, bonus, created_at
		FROM referral_redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	redemptions := make([]*domain.Redemption, 0)
	for rows.Next() {
		red := &domain.Redemption{}
		if err := rows.Scan(&red.ID, &red.Code, &red.UserID, &red.Bonus, &red.CreatedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, rows.Err()
}

func (r *referralRepository) CountRedemptionsByUser(ctx context.Context, userID, code string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM referral_redemptions
		WHERE user_id = $1 AND code = $2
	`
	var count int
	err := r.DB.QueryRowContext(ctx, query, userID, code).Scan(&count)
	return count, err
}

func scanReferralCode(s scanner) (*domain.ReferralCode, error) {
	c := &domain.ReferralCode{}
	var ownerID sql.NullString
	var maxUses sql.NullInt64
	var expiresAt sql.NullTime
	err := s.Scan(&c.Code, &ownerID, &c.Bonus, &maxUses, &c.UseCount, &expiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if ownerID.Valid {
		c.OwnerID = &ownerID.String
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		c.MaxUses = &n
	}
	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	return c, nil
}
