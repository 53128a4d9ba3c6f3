package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partyhub/internal/domain"
)

type saveService struct {
	saveRepo  domain.SaveRepository
	partyRepo domain.PartyRepository
}

// NewSaveService creates a SaveService with the given repositories.
func NewSaveService(saveRepo domain.SaveRepository, partyRepo domain.PartyRepository) domain.SaveService {
	return &saveService{
		saveRepo:  saveRepo,
		partyRepo: partyRepo,
	}
}

func (s *saveService) SaveParty(ctx context.Context, partyID, userID, status string) (*domain.Save, bool, error) {
	if status == "" {
		status = domain.SaveStatusSaved
	}
	if !domain.ValidSaveStatus(status) {
		return nil, false, fmt.Errorf("unknown save status %q: %w", status, domain.ErrInvalidInput)
	}

	// Ensure the party exists.
	if _, err := s.partyRepo.GetByID(ctx, partyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrNotFound
		}
		return nil, false, fmt.Errorf("get party: %w", err)
	}

	// Saving twice is not an error: return the existing row, updating its
	// status when the caller asked for a different one (last write wins).
	if existing, err := s.saveRepo.GetByPartyAndUser(ctx, partyID, userID); err == nil {
		return s.restate(ctx, existing, status)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("get save: %w", err)
	}

	now := time.Now()
	save := domain.NewSave(partyID, userID, status, now, now)
	if err := s.saveRepo.Create(ctx, save); err != nil {
		// Lost a race with a concurrent save of the same party.
		if errors.Is(err, domain.ErrDuplicateSave) {
			existing, gerr := s.saveRepo.GetByPartyAndUser(ctx, partyID, userID)
			if gerr != nil {
				return nil, false, fmt.Errorf("get save after duplicate: %w", gerr)
			}
			return s.restate(ctx, existing, status)
		}
		return nil, false, fmt.Errorf("create save: %w", err)
	}
	return save, true, nil
}

// restate updates an existing save's status when it differs from the
// requested one.
func (s *saveService) restate(ctx context.Context, existing *domain.Save, status string) (*domain.Save, bool, error) {
	if existing.Status == status {
		return existing, false, nil
	}
	now := time.Now()
	if err := s.saveRepo.UpdateStatus(ctx, existing.ID, status, now); err != nil {
		return nil, false, fmt.Errorf("update save status: %w", err)
	}
	existing.Status = status
	existing.UpdatedAt = now
	return existing, false, nil
}

func (s *saveService) UnsaveParty(ctx context.Context, partyID, userID string) error {
	if err := s.saveRepo.Delete(ctx, partyID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete save: %w", err)
	}
	return nil
}

func (s *saveService) ListSavedParties(ctx context.Context, userID string) ([]*domain.SavedParty, error) {
	saves, err := s.saveRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	if len(saves) == 0 {
		return []*domain.SavedParty{}, nil
	}

	savesByParty := make(map[string]*domain.Save, len(saves))
	ids := make([]string, 0, len(saves))
	for _, sv := range saves {
		savesByParty[sv.PartyID] = sv
		ids = append(ids, sv.PartyID)
	}

	// ListByIDs returns parties soonest first, which is the order the
	// agenda view wants.
	parties, err := s.partyRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list saved parties: %w", err)
	}

	result := make([]*domain.SavedParty, 0, len(parties))
	for _, p := range parties {
		sv, ok := savesByParty[p.ID]
		if !ok {
			continue
		}
		result = append(result, &domain.SavedParty{Save: sv, Party: p})
	}
	return result, nil
}
