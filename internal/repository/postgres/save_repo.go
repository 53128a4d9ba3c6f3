package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"partyhub/internal/domain"
)

type saveRepository struct {
	DB *sql.DB
}

func NewSaveRepository(db *sql.DB) domain.SaveRepository {
	return &saveRepository{DB: db}
}

func (r *saveRepository) Create(ctx context.Context, s *domain.Save) error {
	query := `
		INSERT INTO saves (party_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, s.PartyID, s.UserID, s.Status, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) {
			switch perr.Code {
			case "23505":
				return domain.ErrDuplicateSave
			case "23503":
				return domain.ErrNotFound
			}
		}
		return err
	}
	return nil
}

func (r *saveRepository) GetByPartyAndUser(ctx context.Context, partyID, userID string) (*domain.Save, error) {
	query := `
		SELECT id, party_id, user_id, status, created_at, updated_at
		FROM saves
		WHERE party_id = $1 AND user_id = $2
	`
	s := &domain.Save{}
	err := r.DB.QueryRowContext(ctx, query, partyID, userID).Scan(
		&s.ID, &s.PartyID, &s.UserID, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *saveRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	query := `
		UPDATE saves
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.DB.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *saveRepository) Delete(ctx context.Context, partyID, userID string) error {
	query := `DELETE FROM saves WHERE party_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, partyID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *saveRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Save, error) {
	query := `
		SELECT id, party_id, user_id, status, created_at, updated_at
		FROM saves
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saves := make([]*domain.Save, 0)
	for rows.Next() {
		s := &domain.Save{}
		if err := rows.Scan(&s.ID, &s.PartyID, &s.UserID, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		saves = append(saves, s)
	}
	return saves, rows.Err()
}

func (r *saveRepository) ListPartyIDsByUserID(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT party_id
		FROM saves
		WHERE user_id = $1
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *saveRepository) StatusesByPartyIDs(ctx context.Context, userID string, partyIDs []string) (map[string]string, error) {
	if len(partyIDs) == 0 {
		return map[string]string{}, nil
	}
	query := `
		SELECT party_id, status
		FROM saves
		WHERE user_id = $1 AND party_id = ANY($2)
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(partyIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make(map[string]string, len(partyIDs))
	for rows.Next() {
		var partyID, status string
		if err := rows.Scan(&partyID, &status); err != nil {
			return nil, err
		}
		statuses[partyID] = status
	}
	return statuses, rows.Err()
}

func (r *saveRepository) CountGoingByPartyIDs(ctx context.Context, partyIDs []string) (map[string]int, error) {
	if len(partyIDs) == 0 {
		return map[string]int{}, nil
	}
	query := `
		SELECT party_id, COUNT(*)
		FROM saves
		WHERE status = 'going' AND party_id = ANY($1)
		GROUP BY party_id
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(partyIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int, len(partyIDs))
	for rows.Next() {
		var partyID string
		var count int
		if err := rows.Scan(&partyID, &count); err != nil {
			return nil, err
		}
		counts[partyID] = count
	}
	return counts, rows.Err()
}
