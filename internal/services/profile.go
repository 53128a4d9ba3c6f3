package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"partyhub/internal/domain"
)

type profileService struct {
	userRepo       domain.UserRepository
	saveRepo       domain.SaveRepository
	inviteRepo     domain.InviteRepository
	connectionRepo domain.ConnectionRepository
	referralRepo   domain.ReferralRepository
	seedBudget     int
}

// NewProfileService creates a ProfileService.
func NewProfileService(
	userRepo domain.UserRepository,
	saveRepo domain.SaveRepository,
	inviteRepo domain.InviteRepository,
	connectionRepo domain.ConnectionRepository,
	referralRepo domain.ReferralRepository,
	seedBudget int,
) domain.ProfileService {
	return &profileService{
		userRepo:       userRepo,
		saveRepo:       saveRepo,
		inviteRepo:     inviteRepo,
		connectionRepo: connectionRepo,
		referralRepo:   referralRepo,
		seedBudget:     seedBudget,
	}
}

func (s *profileService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.inviteRepo.EnsureBudget(ctx, userID, s.seedBudget); err != nil {
		return nil, fmt.Errorf("ensure invite budget: %w", err)
	}
	budget, err := s.inviteRepo.GetBudget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get invite budget: %w", err)
	}

	savedIDs, err := s.saveRepo.ListPartyIDsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved party ids: %w", err)
	}
	if savedIDs == nil {
		savedIDs = []string{}
	}

	conns, err := s.connectionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	return &domain.Profile{
		User:            user,
		InviteBudget:    budget,
		SavedPartyIDs:   savedIDs,
		ConnectionCount: len(conns),
	}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID, name, company, jobRole string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.Name = strings.TrimSpace(name)
	user.Company = strings.TrimSpace(company)
	user.JobRole = strings.TrimSpace(jobRole)
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *profileService) Export(ctx context.Context, userID string) (*domain.ProfileSnapshot, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	saves, err := s.saveRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	if saves == nil {
		saves = []*domain.Save{}
	}

	var budget *domain.InviteBudget
	if b, err := s.inviteRepo.GetBudget(ctx, userID); err == nil {
		budget = b
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get invite budget: %w", err)
	}

	invites, err := s.inviteRepo.ListBySenderID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	if invites == nil {
		invites = []*domain.Invite{}
	}

	conns, err := s.connectionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	if conns == nil {
		conns = []*domain.Connection{}
	}

	var refCode *domain.ReferralCode
	if rc, err := s.referralRepo.GetByOwnerID(ctx, userID); err == nil {
		refCode = rc
	} else if !errors.Is(err, domain.ErrCodeNotFound) {
		return nil, fmt.Errorf("get referral code: %w", err)
	}

	redemptions, err := s.referralRepo.ListRedemptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}

	return &domain.ProfileSnapshot{
		Version:      domain.SnapshotVersion,
		ExportedAt:   time.Now().UTC(),
		User:         user,
		Saves:        saves,
		InviteBudget: budget,
		Invites:      invites,
		Connections:  conns,
		ReferralCode: refCode,
		Redemptions:  redemptions,
	}, nil
}

func (s *profileService) Import(ctx context.Context, userID string, snap *domain.ProfileSnapshot) (*domain.ImportReport, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required: %w", domain.ErrInvalidInput)
	}
	if !domain.CompatibleVersion(snap.Version) {
		return nil, fmt.Errorf("snapshot version %q: %w", snap.Version, domain.ErrSnapshotVersion)
	}

	report := &domain.ImportReport{}

	// Profile fields: last write wins against the stored row's UpdatedAt.
	// Email never crosses over.
	if snap.User != nil {
		current, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrUserNotFound
			}
			return nil, fmt.Errorf("get user: %w", err)
		}
		if snap.User.UpdatedAt.After(current.UpdatedAt) {
			current.Name = strings.TrimSpace(snap.User.Name)
			current.Company = strings.TrimSpace(snap.User.Company)
			current.JobRole = strings.TrimSpace(snap.User.JobRole)
			current.UpdatedAt = snap.User.UpdatedAt
			if err := s.userRepo.Update(ctx, current); err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
			report.ProfileUpdated = true
		}
	}

	// Saves union: new rows are created, existing rows only move when the
	// snapshot's copy is newer.
	for _, sv := range snap.Saves {
		if sv == nil || sv.PartyID == "" || !domain.ValidSaveStatus(sv.Status) {
			report.SavesSkipped++
			continue
		}
		imported, err := s.importSave(ctx, userID, sv)
		if err != nil {
			return nil, err
		}
		if imported {
			report.SavesImported++
		} else {
			report.SavesSkipped++
		}
	}

	// Budget restore is additive only: grant the shortfall when the
	// snapshot is newer and richer, never claw back invites.
	if snap.InviteBudget != nil {
		if err := s.inviteRepo.EnsureBudget(ctx, userID, s.seedBudget); err != nil {
			return nil, fmt.Errorf("ensure invite budget: %w", err)
		}
		stored, err := s.inviteRepo.GetBudget(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get invite budget: %w", err)
		}
		diff := snap.InviteBudget.Remaining - stored.Remaining
		if diff > 0 && snap.InviteBudget.UpdatedAt.After(stored.UpdatedAt) {
			if err := s.inviteRepo.Grant(ctx, userID, diff); err != nil {
				return nil, fmt.Errorf("grant invite budget: %w", err)
			}
			report.BudgetRestored = true
		}
	}

	return report, nil
}

// importSave applies one snapshot save for the importing user. Returns true
// when a row was written.
func (s *profileService) importSave(ctx context.Context, userID string, sv *domain.Save) (bool, error) {
	existing, err := s.saveRepo.GetByPartyAndUser(ctx, sv.PartyID, userID)
	if err == nil {
		if sv.Status == existing.Status || !sv.UpdatedAt.After(existing.UpdatedAt) {
			return false, nil
		}
		if err := s.saveRepo.UpdateStatus(ctx, existing.ID, sv.Status, sv.UpdatedAt); err != nil {
			return false, fmt.Errorf("update save status: %w", err)
		}
		return true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("get save: %w", err)
	}

	now := time.Now()
	createdAt := sv.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := sv.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	save := domain.NewSave(sv.PartyID, userID, sv.Status, createdAt, updatedAt)
	if err := s.saveRepo.Create(ctx, save); err != nil {
		// Unknown party (stale snapshot) or a concurrent import of the same
		// row: skip, do not fail the whole import.
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateSave) {
			return false, nil
		}
		return false, fmt.Errorf("create save: %w", err)
	}
	return true, nil
}
