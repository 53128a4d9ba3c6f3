package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"partyhub/internal/domain"

	"github.com/stretchr/testify/require"
)

var partyRows = []string{
	"id", "external_id", "title", "description", "venue", "starts_at", "ends_at",
	"category", "focus_tags", "capacity", "featured", "source", "created_at", "updated_at",
}

func TestPartyRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)

	t.Run("unfiltered returns rows and total", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parties`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectQuery(`SELECT (.+) FROM parties ORDER BY starts_at`).
			WithArgs(domain.DefaultPageSize, 0).
			WillReturnRows(sqlmock.NewRows(partyRows).
				AddRow("p1", nil, "Indie Mixer", "", "Hall 10", now, now.Add(3*time.Hour), "networking", "indie,dev", nil, false, "seed", now, now).
				AddRow("p2", "ext-9", "Publisher Dinner", "", "Marriott", now, now.Add(2*time.Hour), "business", "", 80, true, "feed", now, now))

		repo := NewPartyRepository(db)
		parties, total, err := repo.List(ctx, domain.PartyFilters{}, domain.PaginationParams{})
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, parties, 2)
		require.Equal(t, []string{"indie", "dev"}, parties[0].FocusTags)
		require.Equal(t, "ext-9", parties[1].ExternalID)
		require.Equal(t, 80, parties[1].Capacity)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters narrow the query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		featured := true
		filters := domain.PartyFilters{Category: "networking", Query: "mixer", Featured: &featured}

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM parties WHERE category = \$1 AND \(title ILIKE \$2 OR venue ILIKE \$2\) AND featured = \$3`).
			WithArgs("networking", "%mixer%", true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT (.+) FROM parties WHERE category = \$1`).
			WithArgs("networking", "%mixer%", true, 25, 25).
			WillReturnRows(sqlmock.NewRows(partyRows).
				AddRow("p1", nil, "Indie Mixer", "", "Hall 10", now, now.Add(time.Hour), "networking", "", nil, true, "seed", now, now))

		repo := NewPartyRepository(db)
		parties, total, err := repo.List(ctx, filters, domain.PaginationParams{Page: 2, PageSize: 25})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Len(t, parties, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPartyRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("not found maps to ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM parties`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(partyRows))

		repo := NewPartyRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPartyRepository_UpsertFromFeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 20, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		inserted    bool
		wantCreated bool
	}{
		{name: "fresh row reports created", inserted: true, wantCreated: true},
		{name: "conflict update reports not created", inserted: false, wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			p := &domain.Party{
				ExternalID: "ext-1",
				Title:      "Devcom Warmup",
				StartsAt:   now,
				EndsAt:     now.Add(2 * time.Hour),
				Source:     "devcom",
			}
			mock.ExpectQuery(`INSERT INTO parties`).
				WithArgs("ext-1", "Devcom Warmup", "", "", now, now.Add(2*time.Hour), "", "", nullableCapacity(0), false, "devcom").
				WillReturnRows(sqlmock.NewRows([]string{"id", "inserted"}).AddRow("p-1", tt.inserted))

			repo := NewPartyRepository(db)
			created, err := repo.UpsertFromFeed(ctx, p)
			require.NoError(t, err)
			require.Equal(t, tt.wantCreated, created)
			require.Equal(t, "p-1", p.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
