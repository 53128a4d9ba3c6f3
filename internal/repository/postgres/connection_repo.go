package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"partyhub/internal/domain"
)

type connectionRepository struct {
	DB *sql.DB
}

func NewConnectionRepository(db *sql.DB) domain.ConnectionRepository {
	return &connectionRepository{DB: db}
}

func (r *connectionRepository) Create(ctx context.Context, c *domain.Connection) error {
	c.UserA, c.UserB = domain.OrderPair(c.UserA, c.UserB)
	query := `
		INSERT INTO connections (user_a, user_b, source, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.UserA, c.UserB, c.Source, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateConnection
		}
		return err
	}
	return nil
}

func (r *connectionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Connection, error) {
	query := `
		SELECT id, user_a, user_b, source, created_at
		FROM connections
		WHERE user_a = $1 OR user_b = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	connections := make([]*domain.Connection, 0)
	for rows.Next() {
		c := &domain.Connection{}
		if err := rows.Scan(&c.ID, &c.UserA, &c.UserB, &c.Source, &c.CreatedAt); err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

func (r *connectionRepository) Exists(ctx context.Context, userA, userB string) (bool, error) {
	a, b := domain.OrderPair(userA, userB)
	query := `
		SELECT EXISTS (
			SELECT 1 FROM connections WHERE user_a = $1 AND user_b = $2
		)
	`
	var exists bool
	err := r.DB.QueryRowContext(ctx, query, a, b).Scan(&exists)
	return exists, err
}

func (r *connectionRepository) Delete(ctx context.Context, userA, userB string) error {
	a, b := domain.OrderPair(userA, userB)
	query := `DELETE FROM connections WHERE user_a = $1 AND user_b = $2`
	result, err := r.DB.ExecContext(ctx, query, a, b)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
