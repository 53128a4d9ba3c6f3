package domain

import (
	"context"
	"time"
)

// Party sources. Seeded parties come from cmd/partyseed fixtures, feed parties
// from upstream feed sync, and manual parties from the admin API.
const (
	PartySourceSeed   = "seed"
	PartySourceFeed   = "feed"
	PartySourceManual = "manual"
)

// Party represents a conference networking event.
// swagger:model Party
type Party struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Category    string    `json:"category"`
	FocusTags   []string  `json:"focus_tags,omitempty"`
	Capacity    int       `json:"capacity,omitempty"`
	Featured    bool      `json:"featured"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewParty returns a new Party with the given fields. ID is typically set by the repository on create.
func NewParty(title, venue, category string, startsAt, endsAt time.Time, createdAt, updatedAt time.Time) *Party {
	return &Party{
		Title:     title,
		Venue:     venue,
		Category:  category,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Source:    PartySourceManual,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PartyFilters narrows party list queries. Zero values mean "no filter".
type PartyFilters struct {
	Category string
	Query    string // matches title or venue, case-insensitive substring
	From     *time.Time
	To       *time.Time
	Featured *bool
}

// IsZero reports whether no filter is set, i.e. the unfiltered hot list that
// is eligible for caching.
func (f PartyFilters) IsZero() bool {
	return f.Category == "" && f.Query == "" && f.From == nil && f.To == nil && f.Featured == nil
}

// PartyUpdate carries the mutable party fields for admin updates.
// Nil pointers leave the current value untouched.
type PartyUpdate struct {
	Title       *string
	Description *string
	Venue       *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Category    *string
	FocusTags   []string
	Capacity    *int
	Featured    *bool
}

// PartyView is a party as returned by the read API: the stored record plus
// the persona breakdown computed at read time and, for authenticated callers,
// the caller's save status.
// swagger:model PartyView
type PartyView struct {
	Party      *Party       `json:"party"`
	Personas   PersonaSplit `json:"personas"`
	SaveStatus string       `json:"save_status,omitempty"`
	Attendees  int          `json:"attendees,omitempty"`
}

// PartyRepository defines the interface for party storage.
type PartyRepository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, id string) (*Party, error)
	List(ctx context.Context, filters PartyFilters, page PaginationParams) ([]*Party, int, error)
	ListByIDs(ctx context.Context, ids []string) ([]*Party, error)
	Update(ctx context.Context, id string, upd PartyUpdate) (*Party, error)
	Delete(ctx context.Context, id string) error
	// UpsertFromFeed inserts or updates a feed-sourced party keyed by
	// (source feed, external id) and reports whether a row was created.
	UpsertFromFeed(ctx context.Context, p *Party) (created bool, err error)
}

// CachedPartyList is the cache envelope for the hot party list. CachedAt
// drives freshness; entries are stored without a store-side TTL so a stale
// copy can still serve as a fallback.
type CachedPartyList struct {
	Parties  []*Party  `json:"parties"`
	Total    int       `json:"total"`
	CachedAt time.Time `json:"cached_at"`
}

// PartyListCache stores the unfiltered first page of the party list
// (infrastructure port). Get returns nil with a nil error on a miss.
type PartyListCache interface {
	Get(ctx context.Context) (*CachedPartyList, error)
	Set(ctx context.Context, parties []*Party, total int) error
	Invalidate(ctx context.Context) error
}

// PartyService defines the read and admin operations for parties.
type PartyService interface {
	// ListParties returns parties with persona breakdowns. userID may be
	// empty for anonymous callers; when set, each view carries the caller's
	// save status.
	ListParties(ctx context.Context, filters PartyFilters, page PaginationParams, userID string) ([]*PartyView, int, error)
	GetParty(ctx context.Context, id, userID string) (*PartyView, error)
	CreateParty(ctx context.Context, p *Party) error
	UpdateParty(ctx context.Context, id string, upd PartyUpdate) (*Party, error)
	DeleteParty(ctx context.Context, id string) error
}
