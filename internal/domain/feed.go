package domain

import (
	"context"
	"errors"
	"time"
)

// Feed source formats.
const (
	FeedFormatJSON = "json"
	FeedFormatICS  = "ics"
)

// ErrFeedUnavailable is returned when an upstream feed cannot be fetched
// and no cached body exists to fall back on.
var ErrFeedUnavailable = errors.New("feed unavailable")

// FeedSource is one configured upstream party feed.
type FeedSource struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// FeedSyncState is the per-source sync bookkeeping: conditional-GET
// validators plus whatever body was last fetched, kept so a dead upstream
// still yields parties.
type FeedSyncState struct {
	Source       string     `json:"source"`
	ETag         string     `json:"etag"`
	LastModified string     `json:"last_modified"`
	Body         []byte     `json:"-"`
	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
	LastStatus   string     `json:"last_status"`
}

// Feed sync outcomes recorded in FeedSyncState.LastStatus.
const (
	FeedStatusOK          = "ok"
	FeedStatusNotModified = "not_modified"
	FeedStatusStale       = "stale"
	FeedStatusError       = "error"
)

// FeedFetchResult is what one conditional GET produced. NotModified means
// the validators matched and Body is empty.
type FeedFetchResult struct {
	NotModified  bool
	Body         []byte
	ETag         string
	LastModified string
}

// FeedFetcher performs a conditional GET against an upstream feed (or a
// test double).
type FeedFetcher interface {
	Fetch(ctx context.Context, url, etag, lastModified string) (*FeedFetchResult, error)
}

// FeedParser normalizes a raw feed body into items, expanding recurring
// events inside the [from, to) window.
type FeedParser func(format string, body []byte, from, to time.Time) ([]FeedItem, error)

// FeedItem is one normalized upstream record, format-independent. Recurring
// ICS events are expanded into one item per occurrence before they reach
// the sync layer.
type FeedItem struct {
	ExternalID  string
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	EndsAt      time.Time
	Category    string
	FocusTags   []string
}

// FeedSyncStateRepository persists per-source sync state.
type FeedSyncStateRepository interface {
	Get(ctx context.Context, source string) (*FeedSyncState, error)
	Upsert(ctx context.Context, s *FeedSyncState) error
	List(ctx context.Context) ([]*FeedSyncState, error)
}

// FeedSourceStatus joins one configured source with its stored sync state
// for the admin listing. State is nil until the source has synced once.
// swagger:model FeedSourceStatus
type FeedSourceStatus struct {
	Source FeedSource     `json:"source"`
	State  *FeedSyncState `json:"state,omitempty"`
}

// FeedSyncReport summarizes one sync pass over one source.
// swagger:model FeedSyncReport
type FeedSyncReport struct {
	Source       string `json:"source"`
	Status       string `json:"status"`
	Created      int    `json:"created"`
	Updated      int    `json:"updated"`
	UsedFallback bool   `json:"used_fallback"`
}

// FeedSyncService pulls the configured sources and upserts parties.
type FeedSyncService interface {
	// SyncAll syncs every configured source and returns one report each.
	// A failing source never aborts the others.
	SyncAll(ctx context.Context) []*FeedSyncReport
	SyncSource(ctx context.Context, src FeedSource) *FeedSyncReport
	// SourceStates lists the configured sources with their stored sync
	// state.
	SourceStates(ctx context.Context) ([]*FeedSourceStatus, error)
}
