package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invite operations.
var (
	ErrNoInvitesRemaining = errors.New("no invites remaining")
	ErrDuplicateInvite    = errors.New("invite already sent to this email")
	ErrInviteUsed         = errors.New("invite already accepted")
)

// Invite statuses.
const (
	InviteStatusSent     = "sent"
	InviteStatusAccepted = "accepted"
)

// InviteBudget is a user's invite allowance. Remaining is never negative:
// decrements happen through a guarded UPDATE inside the same transaction
// that records the invite.
// swagger:model InviteBudget
type InviteBudget struct {
	UserID       string    `json:"user_id"`
	Remaining    int       `json:"remaining"`
	TotalGranted int       `json:"total_granted"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Invite represents one sent invite (the original client's sent[] entries).
// swagger:model Invite
type Invite struct {
	ID             string     `json:"id"`
	SenderID       string     `json:"sender_id"`
	RecipientEmail string     `json:"recipient_email"`
	Code           string     `json:"code"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
}

// InviteRepository defines storage operations for invites and budgets.
type InviteRepository interface {
	GetBudget(ctx context.Context, userID string) (*InviteBudget, error)
	// EnsureBudget creates the budget row with the seed allowance if the
	// user has none yet.
	EnsureBudget(ctx context.Context, userID string, seed int) error
	// SpendAndCreate atomically decrements the sender's remaining budget and
	// records the invite. Returns ErrNoInvitesRemaining when the budget is 0
	// and ErrDuplicateInvite when a pending invite to the same email exists.
	SpendAndCreate(ctx context.Context, inv *Invite) error
	// Grant adds n invites to the user's budget (referral bonuses).
	Grant(ctx context.Context, userID string, n int) error
	ListBySenderID(ctx context.Context, senderID string) ([]*Invite, error)
	GetByCode(ctx context.Context, code string) (*Invite, error)
	// MarkAccepted flips a sent invite to accepted exactly once; returns
	// ErrInviteUsed when it was already accepted.
	MarkAccepted(ctx context.Context, id string, at time.Time) error
}

// InviteOverview is the GET /api/invites payload: the budget plus sent[].
// swagger:model InviteOverview
type InviteOverview struct {
	Budget *InviteBudget `json:"budget"`
	Sent   []*Invite     `json:"sent"`
}

// InviteService defines invite budget and sending operations.
type InviteService interface {
	Overview(ctx context.Context, userID string) (*InviteOverview, error)
	// SendInvite spends one invite, records it, and emails the recipient.
	SendInvite(ctx context.Context, senderID, recipientEmail string) (*Invite, error)
	// AcceptInvite marks the invite accepted and, when the acceptor already
	// has an account, connects them with the sender.
	AcceptInvite(ctx context.Context, code, acceptorEmail string) (*Invite, error)
}
