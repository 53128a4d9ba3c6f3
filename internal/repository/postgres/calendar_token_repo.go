package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"partyhub/internal/domain"
)

type calendarTokenRepository struct {
	DB *sql.DB
}

func NewCalendarTokenRepository(db *sql.DB) domain.CalendarFeedTokenRepository {
	return &calendarTokenRepository{DB: db}
}

// Upsert rotates in place: the user keeps at most one token and a new one
// replaces the old.
func (r *calendarTokenRepository) Upsert(ctx context.Context, t *domain.CalendarFeedToken) error {
	query := `
		INSERT INTO calendar_feed_tokens (token, user_id, created_at, last_served_at)
		VALUES ($1, $2, $3, NULL)
		ON CONFLICT (user_id) DO UPDATE SET
			token = EXCLUDED.token,
			created_at = EXCLUDED.created_at,
			last_served_at = NULL
	`
	_, err := r.DB.ExecContext(ctx, query, t.Token, t.UserID, t.CreatedAt)
	return err
}

func (r *calendarTokenRepository) GetByToken(ctx context.Context, token string) (*domain.CalendarFeedToken, error) {
	query := `
		SELECT token, user_id, created_at, last_served_at
		FROM calendar_feed_tokens
		WHERE token = $1
	`
	return scanFeedToken(r.DB.QueryRowContext(ctx, query, token))
}

func (r *calendarTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.CalendarFeedToken, error) {
	query := `
		SELECT token, user_id, created_at, last_served_at
		FROM calendar_feed_tokens
		WHERE user_id = $1
	`
	return scanFeedToken(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *calendarTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM calendar_feed_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *calendarTokenRepository) TouchServed(ctx context.Context, token string, at time.Time) error {
	query := `UPDATE calendar_feed_tokens SET last_served_at = $2 WHERE token = $1`
	_, err := r.DB.ExecContext(ctx, query, token, at)
	return err
}

func scanFeedToken(s scanner) (*domain.CalendarFeedToken, error) {
	t := &domain.CalendarFeedToken{}
	var served sql.NullTime
	err := s.Scan(&t.Token, &t.UserID, &t.CreatedAt, &served)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFeedTokenNotFound
		}
		return nil, err
	}
	if served.Valid {
		t.LastServedAt = &served.Time
	}
	return t, nil
}
