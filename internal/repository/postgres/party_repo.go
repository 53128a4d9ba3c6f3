package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"partyhub/internal/domain"
)

// Focus tags are stored as a comma-joined text column. Postgres arrays would
// also work, but a flat column keeps the filter SQL and sqlmock fixtures
// simple.
const partyColumns = `id, external_id, title, description, venue, starts_at, ends_at, category, focus_tags, capacity, featured, source, created_at, updated_at`

type partyRepository struct {
	DB *sql.DB
}

func NewPartyRepository(db *sql.DB) domain.PartyRepository {
	return &partyRepository{DB: db}
}

func (r *partyRepository) Create(ctx context.Context, p *domain.Party) error {
	query := `
		INSERT INTO parties (external_id, title, description, venue, starts_at, ends_at, category, focus_tags, capacity, featured, source, created_at, updated_at)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.ExternalID, p.Title, p.Description, p.Venue, p.StartsAt, p.EndsAt,
		p.Category, joinTags(p.FocusTags), nullableCapacity(p.Capacity), p.Featured,
		p.Source, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *partyRepository) GetByID(ctx context.Context, id string) (*domain.Party, error) {
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE id = $1
	`
	row := r.DB.QueryRowContext(ctx, query, id)
	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *partyRepository) List(ctx context.Context, filters domain.PartyFilters, page domain.PaginationParams) ([]*domain.Party, int, error) {
	where, args := buildPartyFilters(filters)

	countQuery := `SELECT COUNT(*) FROM parties` + where
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	listQuery := fmt.Sprintf(`
		SELECT `+partyColumns+`
		FROM parties`+where+`
		ORDER BY starts_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, n+1, n+2)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.DB.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	parties := make([]*domain.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		parties = append(parties, p)
	}
	return parties, total, rows.Err()
}

func (r *partyRepository) ListByIDs(ctx context.Context, ids []string) ([]*domain.Party, error) {
	if len(ids) == 0 {
		return []*domain.Party{}, nil
	}
	query := `
		SELECT ` + partyColumns + `
		FROM parties
		WHERE id = ANY($1)
		ORDER BY starts_at ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parties := make([]*domain.Party, 0, len(ids))
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	return parties, rows.Err()
}

func (r *partyRepository) Update(ctx context.Context, id string, upd domain.PartyUpdate) (*domain.Party, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if upd.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *upd.Title)
		n++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *upd.Description)
		n++
	}
	if upd.Venue != nil {
		setClauses = append(setClauses, fmt.Sprintf("venue = $%d", n))
		args = append(args, *upd.Venue)
		n++
	}
	if upd.StartsAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("starts_at = $%d", n))
		args = append(args, *upd.StartsAt)
		n++
	}
	if upd.EndsAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("ends_at = $%d", n))
		args = append(args, *upd.EndsAt)
		n++
	}
	if upd.Category != nil {
		setClauses = append(setClauses, fmt.Sprintf("category = $%d", n))
		args = append(args, *upd.Category)
		n++
	}
	if upd.FocusTags != nil {
		setClauses = append(setClauses, fmt.Sprintf("focus_tags = $%d", n))
		args = append(args, joinTags(upd.FocusTags))
		n++
	}
	if upd.Capacity != nil {
		setClauses = append(setClauses, fmt.Sprintf("capacity = $%d", n))
		args = append(args, nullableCapacity(*upd.Capacity))
		n++
	}
	if upd.Featured != nil {
		setClauses = append(setClauses, fmt.Sprintf("featured = $%d", n))
		args = append(args, *upd.Featured)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE parties SET %s
		WHERE id = $%d
		RETURNING `+partyColumns+`
	`, strings.Join(setClauses, ", "), n)

	row := r.DB.QueryRowContext(ctx, query, args...)
	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *partyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *partyRepository) UpsertFromFeed(ctx context.Context, p *domain.Party) (bool, error) {
	// xmax = 0 only on freshly inserted rows, which is how we tell a create
	// from a conflict-update.
	query := `
		INSERT INTO parties (external_id, title, description, venue, starts_at, ends_at, category, focus_tags, capacity, featured, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (source, external_id) WHERE external_id IS NOT NULL
		DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			venue = EXCLUDED.venue,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			category = EXCLUDED.category,
			focus_tags = EXCLUDED.focus_tags,
			capacity = EXCLUDED.capacity,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		p.ExternalID, p.Title, p.Description, p.Venue, p.StartsAt, p.EndsAt,
		p.Category, joinTags(p.FocusTags), nullableCapacity(p.Capacity), p.Featured, p.Source,
	).Scan(&p.ID, &inserted)
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanParty(s scanner) (*domain.Party, error) {
	p := &domain.Party{}
	var externalID sql.NullString
	var tags string
	var capacity sql.NullInt64
	err := s.Scan(
		&p.ID, &externalID, &p.Title, &p.Description, &p.Venue, &p.StartsAt, &p.EndsAt,
		&p.Category, &tags, &capacity, &p.Featured, &p.Source, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if externalID.Valid {
		p.ExternalID = externalID.String
	}
	if capacity.Valid {
		p.Capacity = int(capacity.Int64)
	}
	p.FocusTags = splitTags(tags)
	return p, nil
}

func buildPartyFilters(f domain.PartyFilters) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	n := 1
	if f.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", n))
		args = append(args, f.Category)
		n++
	}
	if f.Query != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR venue ILIKE $%d)", n, n))
		args = append(args, "%"+f.Query+"%")
		n++
	}
	if f.From != nil {
		clauses = append(clauses, fmt.Sprintf("starts_at >= $%d", n))
		args = append(args, *f.From)
		n++
	}
	if f.To != nil {
		clauses = append(clauses, fmt.Sprintf("starts_at < $%d", n))
		args = append(args, *f.To)
		n++
	}
	if f.Featured != nil {
		clauses = append(clauses, fmt.Sprintf("featured = $%d", n))
		args = append(args, *f.Featured)
		n++
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func nullableCapacity(c int) sql.NullInt64 {
	if c <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(c), Valid: true}
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
