package postgres

import (
	"context"
	"database/sql"
	"errors"

	"partyhub/internal/domain"
)

type feedStateRepository struct {
	DB *sql.DB
}

func NewFeedStateRepository(db *sql.DB) domain.FeedSyncStateRepository {
	return &feedStateRepository{DB: db}
}

func (r *feedStateRepository) Get(ctx context.Context, source string) (*domain.FeedSyncState, error) {
	query := `
		SELECT source, etag, last_modified, body, fetched_at, synced_at, last_status
		FROM feed_sync_state
		WHERE source = $1
	`
	s := &domain.FeedSyncState{}
	var fetchedAt, syncedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, source).Scan(
		&s.Source, &s.ETag, &s.LastModified, &s.Body, &fetchedAt, &syncedAt, &s.LastStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if fetchedAt.Valid {
		s.FetchedAt = &fetchedAt.Time
	}
	if syncedAt.Valid {
		s.SyncedAt = &syncedAt.Time
	}
	return s, nil
}

func (r *feedStateRepository) List(ctx context.Context) ([]*domain.FeedSyncState, error) {
	query := `
		SELECT source, etag, last_modified, body, fetched_at, synced_at, last_status
		FROM feed_sync_state
		ORDER BY source
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := []*domain.FeedSyncState{}
	for rows.Next() {
		s := &domain.FeedSyncState{}
		var fetchedAt, syncedAt sql.NullTime
		if err := rows.Scan(&s.Source, &s.ETag, &s.LastModified, &s.Body, &fetchedAt, &syncedAt, &s.LastStatus); err != nil {
			return nil, err
		}
		if fetchedAt.Valid {
			s.FetchedAt = &fetchedAt.Time
		}
		if syncedAt.Valid {
			s.SyncedAt = &syncedAt.Time
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

func (r *feedStateRepository) Upsert(ctx context.Context, s *domain.FeedSyncState) error {
	query := `
		INSERT INTO feed_sync_state (source, etag, last_modified, body, fetched_at, synced_at, last_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source) DO UPDATE SET
			etag = EXCLUDED.etag,
			last_modified = EXCLUDED.last_modified,
			body = EXCLUDED.body,
			fetched_at = EXCLUDED.fetched_at,
			synced_at = EXCLUDED.synced_at,
			last_status = EXCLUDED.last_status
	`
	_, err := r.DB.ExecContext(ctx, query,
		s.Source, s.ETag, s.LastModified, s.Body, s.FetchedAt, s.SyncedAt, s.LastStatus,
	)
	return err
}
