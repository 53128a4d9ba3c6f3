package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"partyhub/internal/domain"
)

// Defaults for user-generated referral codes. The seeded universal code is
// just a row with no owner and no cap; nothing here special-cases it.
const (
	referralBonus      = 5
	referralMaxUses    = 10
	referralValidity   = 30 * 24 * time.Hour
	referralCodeLength = 4
)

type referralService struct {
	referralRepo domain.ReferralRepository
	inviteRepo   domain.InviteRepository
	seedBudget   int
}

// NewReferralService creates a ReferralService.
func NewReferralService(referralRepo domain.ReferralRepository, inviteRepo domain.InviteRepository, seedBudget int) domain.ReferralService {
	return &referralService{
		referralRepo: referralRepo,
		inviteRepo:   inviteRepo,
		seedBudget:   seedBudget,
	}
}

func (s *referralService) MyCode(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	existing, err := s.referralRepo.GetByOwnerID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrCodeNotFound) {
		return nil, fmt.Errorf("get referral code: %w", err)
	}

	// No code yet: mint one. Retry on collisions; a concurrent mint for the
	// same owner also lands here, in which case the winner's code is
	// returned.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateCode("PH25-", referralCodeLength)
		if err != nil {
			return nil, fmt.Errorf("generate referral code: %w", err)
		}
		maxUses := referralMaxUses
		expires := time.Now().Add(referralValidity)
		rc := &domain.ReferralCode{
			Code:      code,
			OwnerID:   &userID,
			Bonus:     referralBonus,
			MaxUses:   &maxUses,
			ExpiresAt: &expires,
			CreatedAt: time.Now(),
		}
		err = s.referralRepo.Create(ctx, rc)
		if err == nil {
			return rc, nil
		}
		if !errors.Is(err, domain.ErrInvalidInput) {
			return nil, fmt.Errorf("create referral code: %w", err)
		}
		if existing, gerr := s.referralRepo.GetByOwnerID(ctx, userID); gerr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("create referral code: too many collisions")
}

func (s *referralService) Redeem(ctx context.Context, userID, code string) (*domain.RedeemOutcome, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("code is required: %w", domain.ErrInvalidInput)
	}

	rc, err := s.referralRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("get referral code: %w", err)
	}

	if rc.OwnerID != nil && *rc.OwnerID == userID {
		return nil, domain.ErrOwnCode
	}
	if rc.Expired(time.Now()) {
		return nil, domain.ErrCodeExpired
	}
	if rc.Exhausted() {
		return nil, domain.ErrCodeExhausted
	}

	// Seed the budget row first so the grant tops up the allowance instead
	// of becoming it.
	if err := s.inviteRepo.EnsureBudget(ctx, userID, s.seedBudget); err != nil {
		return nil, fmt.Errorf("ensure invite budget: %w", err)
	}

	red := &domain.Redemption{
		Code:      rc.Code,
		UserID:    userID,
		Bonus:     rc.Bonus,
		CreatedAt: time.Now(),
	}
	if err := s.referralRepo.Redeem(ctx, red); err != nil {
		if errors.Is(err, domain.ErrAlreadyRedeemed) || errors.Is(err, domain.ErrCodeExhausted) {
			return nil, err
		}
		return nil, fmt.Errorf("redeem referral code: %w", err)
	}

	budget, err := s.inviteRepo.GetBudget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get invite budget: %w", err)
	}
	return &domain.RedeemOutcome{
		Code:             rc.Code,
		BonusGranted:     rc.Bonus,
		InvitesRemaining: budget.Remaining,
	}, nil
}

func (s *referralService) Status(ctx context.Context, userID string) (*domain.ReferralStatus, error) {
	status := &domain.ReferralStatus{Redeemed: []*domain.Redemption{}}

	code, err := s.referralRepo.GetByOwnerID(ctx, userID)
	if err == nil {
		status.Code = code
	} else if !errors.Is(err, domain.ErrCodeNotFound) {
		return nil, fmt.Errorf("get referral code: %w", err)
	}

	redeemed, err := s.referralRepo.ListRedemptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	if redeemed != nil {
		status.Redeemed = redeemed
	}
	return status, nil
}
