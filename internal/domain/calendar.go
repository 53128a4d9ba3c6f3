package domain

import (
	"context"
	"errors"
	"time"
)

// ErrFeedTokenNotFound is returned when a calendar feed token does not
// resolve to a user, including revoked tokens.
var ErrFeedTokenNotFound = errors.New("calendar feed token not found")

// CalendarFeedToken grants unauthenticated read access to one user's saved
// parties as an ICS feed. Rotating issues a new token and revokes the old
// one, which is how a leaked feed URL gets cut off.
type CalendarFeedToken struct {
	Token        string     `json:"token"`
	UserID       string     `json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	LastServedAt *time.Time `json:"last_served_at,omitempty"`
}

// CalendarFeedTokenRepository defines storage for feed tokens.
type CalendarFeedTokenRepository interface {
	// Upsert replaces the user's current token with t.
	Upsert(ctx context.Context, t *CalendarFeedToken) error
	GetByToken(ctx context.Context, token string) (*CalendarFeedToken, error)
	GetByUserID(ctx context.Context, userID string) (*CalendarFeedToken, error)
	DeleteByUserID(ctx context.Context, userID string) error
	// TouchServed records when the feed was last rendered for the token.
	TouchServed(ctx context.Context, token string, at time.Time) error
}

// CalendarStatus is the GET /api/calendar/status payload.
// swagger:model CalendarStatus
type CalendarStatus struct {
	FeedEnabled  bool       `json:"feed_enabled"`
	FeedURL      string     `json:"feed_url,omitempty"`
	SavedCount   int        `json:"saved_count"`
	RotatedAt    *time.Time `json:"rotated_at,omitempty"`
	LastServedAt *time.Time `json:"last_served_at,omitempty"`
}

// CalendarService produces ICS output for saved parties and manages feed
// tokens.
type CalendarService interface {
	Status(ctx context.Context, userID string) (*CalendarStatus, error)
	// EnableFeed issues the user's feed token and returns the absolute feed
	// URL. With rotate set an existing token is replaced, killing the old
	// URL; without it the existing token is returned as is.
	EnableFeed(ctx context.Context, userID string, rotate bool) (*CalendarStatus, error)
	DisableFeed(ctx context.Context, userID string) error
	// Feed renders the ICS calendar for the token's owner. The token comes
	// from the URL, not from auth middleware.
	Feed(ctx context.Context, token string) ([]byte, error)
	// PartyICS renders a single party as a downloadable ICS event.
	PartyICS(ctx context.Context, userID, partyID string) ([]byte, error)
}
