package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateSave is returned when a save for the (party, user) pair
// already exists. Callers treat it as "already saved", not a failure.
var ErrDuplicateSave = errors.New("party already saved")

// Save statuses. A plain bookmark starts as "saved"; an RSVP upgrades it to
// "going". There is no tombstone status: unsaving deletes the row.
const (
	SaveStatusSaved = "saved"
	SaveStatusGoing = "going"
)

// Save represents a user's saved/RSVP'd party.
// swagger:model Save
type Save struct {
	ID        string    `json:"id"`
	PartyID   string    `json:"party_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSave creates a new Save. ID is typically set by the repository on create.
func NewSave(partyID, userID, status string, createdAt, updatedAt time.Time) *Save {
	return &Save{
		PartyID:   partyID,
		UserID:    userID,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// ValidSaveStatus reports whether s is a recognized save status.
func ValidSaveStatus(s string) bool {
	return s == SaveStatusSaved || s == SaveStatusGoing
}

// SavedParty bundles a save with its party for list responses.
type SavedParty struct {
	Save  *Save  `json:"save"`
	Party *Party `json:"party"`
}

// SaveRepository defines storage operations for party saves.
type SaveRepository interface {
	Create(ctx context.Context, s *Save) error
	GetByPartyAndUser(ctx context.Context, partyID, userID string) (*Save, error)
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	Delete(ctx context.Context, partyID, userID string) error
	ListByUserID(ctx context.Context, userID string) ([]*Save, error)
	ListPartyIDsByUserID(ctx context.Context, userID string) ([]string, error)
	// StatusesByPartyIDs returns partyID -> status for one user's saves
	// among the given parties. Parties the user never saved are absent.
	StatusesByPartyIDs(ctx context.Context, userID string, partyIDs []string) (map[string]string, error)
	// CountGoingByPartyIDs returns partyID -> number of "going" saves.
	CountGoingByPartyIDs(ctx context.Context, partyIDs []string) (map[string]int, error)
}

// SaveService defines the save/RSVP operations.
type SaveService interface {
	// SaveParty saves the party for the user. Idempotent: created is true
	// when a new save was made, false when an existing one was returned or
	// its status updated (last write wins).
	SaveParty(ctx context.Context, partyID, userID, status string) (*Save, bool, error)
	UnsaveParty(ctx context.Context, partyID, userID string) error
	// ListSavedParties returns the user's saves joined with their parties,
	// soonest start time first.
	ListSavedParties(ctx context.Context, userID string) ([]*SavedParty, error)
}
