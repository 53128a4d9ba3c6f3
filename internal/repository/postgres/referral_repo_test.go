package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"partyhub/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestReferralRepository_Redeem(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC)

	newRedemption := func() *domain.Redemption {
		return &domain.Redemption{
			Code:      "GAMESCOM2025",
			UserID:    "user-1",
			Bonus:     5,
			CreatedAt: now,
		}
	}

	t.Run("records redemption, bumps use count, grants bonus", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO referral_redemptions`).
			WithArgs("GAMESCOM2025", "user-1", 5, now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("red-1"))
		mock.ExpectExec(`UPDATE referral_codes`).
			WithArgs("GAMESCOM2025").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO invite_budgets`).
			WithArgs("user-1", 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewReferralRepository(db)
		red := newRedemption()
		require.NoError(t, repo.Redeem(ctx, red))
		require.Equal(t, "red-1", red.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second redemption rolls back with ErrAlreadyRedeemed", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO referral_redemptions`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		repo := NewReferralRepository(db)
		err = repo.Redeem(ctx, newRedemption())
		require.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exhausted code rolls back with ErrCodeExhausted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO referral_redemptions`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("red-1"))
		mock.ExpectExec(`UPDATE referral_codes`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewReferralRepository(db)
		err = repo.Redeem(ctx, newRedemption())
		require.ErrorIs(t, err, domain.ErrCodeExhausted)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReferralRepository_GetByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("missing code maps to ErrCodeNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM referral_codes`).
			WithArgs("NOPE").
			WillReturnRows(sqlmock.NewRows([]string{"code", "owner_id", "bonus", "max_uses", "use_count", "expires_at", "created_at"}))

		repo := NewReferralRepository(db)
		_, err = repo.GetByCode(ctx, "NOPE")
		require.ErrorIs(t, err, domain.ErrCodeNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nullable columns hydrate pointers", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		created := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT (.+) FROM referral_codes`).
			WithArgs("PH25-XY12").
			WillReturnRows(sqlmock.NewRows([]string{"code", "owner_id", "bonus", "max_uses", "use_count", "expires_at", "created_at"}).
				AddRow("PH25-XY12", "user-9", 2, 10, 4, nil, created))

		repo := NewReferralRepository(db)
		code, err := repo.GetByCode(ctx, "PH25-XY12")
		require.NoError(t, err)
		require.NotNil(t, code.OwnerID)
		require.Equal(t, "user-9", *code.OwnerID)
		require.NotNil(t, code.MaxUses)
		require.Equal(t, 10, *code.MaxUses)
		require.Nil(t, code.ExpiresAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
