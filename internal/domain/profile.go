package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrSnapshotVersion is returned when an imported snapshot's major version
// does not match SnapshotVersion.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// SnapshotVersion is the current snapshot schema's major version. Imports
// compare major versions only, so "2.1" still imports into a "2" server.
const SnapshotVersion = "2"

// ProfileSnapshot is a portable export of everything a user accumulated:
// profile fields, saves, invite state, and connections. It round-trips
// through JSON so attendees can move between devices.
// swagger:model ProfileSnapshot
type ProfileSnapshot struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`

	User         *User         `json:"user"`
	Saves        []*Save       `json:"saves"`
	InviteBudget *InviteBudget `json:"invite_budget"`
	Invites      []*Invite     `json:"invites"`
	Connections  []*Connection `json:"connections"`
	ReferralCode *ReferralCode `json:"referral_code,omitempty"`
	Redemptions  []*Redemption `json:"redemptions,omitempty"`
}

// MajorVersion returns the part of v before the first dot.
func MajorVersion(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}

// CompatibleVersion reports whether a snapshot with version v can be
// imported by this server.
func CompatibleVersion(v string) bool {
	return MajorVersion(v) == SnapshotVersion
}

// ImportReport summarizes what an import changed. Counters only cover rows
// the import actually wrote; rows skipped by last-write-wins are listed
// separately.
// swagger:model ImportReport
type ImportReport struct {
	SavesImported  int  `json:"saves_imported"`
	SavesSkipped   int  `json:"saves_skipped"`
	ProfileUpdated bool `json:"profile_updated"`
	BudgetRestored bool `json:"budget_restored"`
}

// Profile is the user row plus the derived blocks the profile page shows.
// swagger:model Profile
type Profile struct {
	User            *User         `json:"user"`
	InviteBudget    *InviteBudget `json:"invite_budget,omitempty"`
	SavedPartyIDs   []string      `json:"saved_party_ids"`
	ConnectionCount int           `json:"connection_count"`
}

// ProfileService defines profile reads, updates, and snapshot export/import.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (*Profile, error)
	// UpdateProfile changes the mutable profile fields. Email is not one of
	// them.
	UpdateProfile(ctx context.Context, userID, name, company, jobRole string) (*User, error)
	Export(ctx context.Context, userID string) (*ProfileSnapshot, error)
	// Import applies a snapshot with last-write-wins semantics: a row in the
	// snapshot only replaces the stored row when its timestamp is newer.
	Import(ctx context.Context, userID string, snap *ProfileSnapshot) (*ImportReport, error)
}
