package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"partyhub/internal/domain"
)

// codeAlphabet avoids easily confused characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateCode returns prefix plus length random characters from
// codeAlphabet.
func generateCode(prefix string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return prefix + string(b), nil
}

type inviteService struct {
	inviteRepo     domain.InviteRepository
	userRepo       domain.UserRepository
	connectionRepo domain.ConnectionRepository
	emailService   domain.EmailService
	seedBudget     int
	baseURL        string
	logger         *slog.Logger
}

// NewInviteService creates an InviteService. seedBudget is the allowance new
// users start with; baseURL builds the accept link in invite emails.
func NewInviteService(
	inviteRepo domain.InviteRepository,
	userRepo domain.UserRepository,
	connectionRepo domain.ConnectionRepository,
	emailService domain.EmailService,
	seedBudget int,
	baseURL string,
	logger *slog.Logger,
) domain.InviteService {
	return &inviteService{
		inviteRepo:     inviteRepo,
		userRepo:       userRepo,
		connectionRepo: connectionRepo,
		emailService:   emailService,
		seedBudget:     seedBudget,
		baseURL:        baseURL,
		logger:         logger,
	}
}

func (s *inviteService) Overview(ctx context.Context, userID string) (*domain.InviteOverview, error) {
	if err := s.inviteRepo.EnsureBudget(ctx, userID, s.seedBudget); err != nil {
		return nil, fmt.Errorf("ensure invite budget: %w", err)
	}
	budget, err := s.inviteRepo.GetBudget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get invite budget: %w", err)
	}
	sent, err := s.inviteRepo.ListBySenderID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	if sent == nil {
		sent = []*domain.Invite{}
	}
	return &domain.InviteOverview{Budget: budget, Sent: sent}, nil
}

func (s *inviteService) SendInvite(ctx context.Context, senderID, recipientEmail string) (*domain.Invite, error) {
	recipientEmail = strings.TrimSpace(strings.ToLower(recipientEmail))
	if !emailRegexp.MatchString(recipientEmail) {
		return nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}

	if err := s.inviteRepo.EnsureBudget(ctx, senderID, s.seedBudget); err != nil {
		return nil, fmt.Errorf("ensure invite budget: %w", err)
	}

	code, err := generateCode("PH-", 8)
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	inv := &domain.Invite{
		SenderID:       senderID,
		RecipientEmail: recipientEmail,
		Code:           code,
		Status:         domain.InviteStatusSent,
		CreatedAt:      time.Now(),
	}
	if err := s.inviteRepo.SpendAndCreate(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrNoInvitesRemaining) || errors.Is(err, domain.ErrDuplicateInvite) {
			return nil, err
		}
		return nil, fmt.Errorf("create invite: %w", err)
	}

	// The invite exists and the budget is spent; a failed email must not
	// undo that, the code can still be shared by hand.
	if s.emailService != nil {
		senderName := ""
		if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
			senderName = sender.Name
			if senderName == "" {
				senderName = sender.Email
			}
		}
		data := &domain.InviteEmailData{
			RecipientEmail: recipientEmail,
			SenderName:     senderName,
			Code:           code,
			AcceptURL:      fmt.Sprintf("%s/invite/%s", strings.TrimRight(s.baseURL, "/"), code),
		}
		if err := s.emailService.SendInvite(ctx, data); err != nil {
			s.logger.Warn("invite email failed", "recipient", recipientEmail, "error", err)
		}
	}

	return inv, nil
}

func (s *inviteService) AcceptInvite(ctx context.Context, code, acceptorEmail string) (*domain.Invite, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	acceptorEmail = strings.TrimSpace(strings.ToLower(acceptorEmail))

	inv, err := s.inviteRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}

	now := time.Now()
	if err := s.inviteRepo.MarkAccepted(ctx, inv.ID, now); err != nil {
		if errors.Is(err, domain.ErrInviteUsed) {
			return nil, domain.ErrInviteUsed
		}
		return nil, fmt.Errorf("accept invite: %w", err)
	}
	inv.Status = domain.InviteStatusAccepted
	inv.AcceptedAt = &now

	// When the acceptor already has an account, connect them with the
	// sender. No account yet is fine: the invite stays accepted and the
	// connection happens when they sign up through the invite link.
	acceptor, err := s.userRepo.GetByEmail(ctx, acceptorEmail)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return inv, nil
		}
		return nil, fmt.Errorf("get acceptor: %w", err)
	}
	if acceptor.ID != inv.SenderID {
		conn := &domain.Connection{
			UserA:     inv.SenderID,
			UserB:     acceptor.ID,
			Source:    domain.ConnectionSourceInvite,
			CreatedAt: now,
		}
		if err := s.connectionRepo.Create(ctx, conn); err != nil && !errors.Is(err, domain.ErrDuplicateConnection) {
			return nil, fmt.Errorf("connect users: %w", err)
		}
	}

	return inv, nil
}
