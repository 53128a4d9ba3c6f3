package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for referral code redemption.
var (
	ErrCodeNotFound    = errors.New("referral code not found")
	ErrOwnCode         = errors.New("cannot redeem own referral code")
	ErrAlreadyRedeemed = errors.New("referral code already redeemed by this user")
	ErrCodeExpired     = errors.New("referral code expired")
	ErrCodeExhausted   = errors.New("referral code has no uses left")
)

// UniversalReferralCode is seeded by the migrations: an ownerless code with
// unlimited uses that every attendee may redeem once.
const UniversalReferralCode = "GAMESCOM2025"

// ReferralCode is a shareable code granting invite bonuses on redemption.
// OwnerID is nil for campaign codes such as the universal one; MaxUses nil
// means unlimited.
// swagger:model ReferralCode
type ReferralCode struct {
	Code      string     `json:"code"`
	OwnerID   *string    `json:"owner_id,omitempty"`
	Bonus     int        `json:"bonus"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	UseCount  int        `json:"use_count"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given time.
func (c *ReferralCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Exhausted reports whether the code has no redemptions left.
func (c *ReferralCode) Exhausted() bool {
	return c.MaxUses != nil && c.UseCount >= *c.MaxUses
}

// Redemption records one user redeeming one code. The (code, user) pair is
// unique, which is what makes redemption idempotent-hostile: a second
// attempt surfaces ErrAlreadyRedeemed rather than granting twice.
type Redemption struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	UserID    string    `json:"user_id"`
	Bonus     int       `json:"bonus"`
	CreatedAt time.Time `json:"created_at"`
}

// RedeemOutcome is what a successful redemption returns to the caller.
// swagger:model RedeemOutcome
type RedeemOutcome struct {
	Code             string `json:"code"`
	BonusGranted     int    `json:"bonus_granted"`
	InvitesRemaining int    `json:"invites_remaining"`
}

// ReferralRepository defines storage operations for referral codes.
type ReferralRepository interface {
	Create(ctx context.Context, code *ReferralCode) error
	GetByCode(ctx context.Context, code string) (*ReferralCode, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*ReferralCode, error)
	// Redeem atomically records the redemption, bumps use_count, and grants
	// the bonus to the redeemer's invite budget. Returns ErrAlreadyRedeemed
	// when the (code, user) pair already exists and ErrCodeExhausted when
	// max_uses was reached concurrently.
	Redeem(ctx context.Context, r *Redemption) error
	ListRedemptionsByCode(ctx context.Context, code string) ([]*Redemption, error)
	ListRedemptionsByUser(ctx context.Context, userID string) ([]*Redemption, error)
	CountRedemptionsByUser(ctx context.Context, userID, code string) (int, error)
}

// ReferralStatus is the GET /api/referral/status payload: the caller's own
// code (nil until generated) and the redemptions they have made.
// swagger:model ReferralStatus
type ReferralStatus struct {
	Code     *ReferralCode `json:"code,omitempty"`
	Redeemed []*Redemption `json:"redeemed"`
}

// ReferralService defines referral code operations.
type ReferralService interface {
	// MyCode returns the caller's own shareable code, creating it on first
	// use.
	MyCode(ctx context.Context, userID string) (*ReferralCode, error)
	// Redeem validates and redeems a code for the user, granting the bonus
	// to their invite budget.
	Redeem(ctx context.Context, userID, code string) (*RedeemOutcome, error)
	Status(ctx context.Context, userID string) (*ReferralStatus, error)
}
