package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"partyhub/internal/domain"
)

const (
	defaultRole         = domain.RoleAttendee
	minPasswordLen      = 8
	loginCodeDigits     = 6
	loginCodeExpiryMins = 15
)

var (
	emailRegexp    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	loginCodeRegex = regexp.MustCompile(`^\d{6}$`)
)

type authService struct {
	userRepo      domain.UserRepository
	roleRepo      domain.RoleRepository
	loginCodeRepo domain.LoginCodeRepository
	inviteRepo    domain.InviteRepository
	referrals     domain.ReferralService
	hasher        domain.PasswordHasher
	tokenIssuer   domain.TokenIssuer
	tokenExpiry   time.Duration
	emailService  domain.EmailService
	adminEmails   map[string]struct{}
	seedBudget    int
	logger        *slog.Logger
}

// NewAuthService creates an AuthService. Emails in adminEmails get the admin
// role at signup; seedBudget is the invite allowance new accounts start
// with.
func NewAuthService(
	userRepo domain.UserRepository,
	roleRepo domain.RoleRepository,
	loginCodeRepo domain.LoginCodeRepository,
	inviteRepo domain.InviteRepository,
	referrals domain.ReferralService,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	emailService domain.EmailService,
	adminEmails []string,
	seedBudget int,
	logger *slog.Logger,
) domain.AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.TrimSpace(strings.ToLower(e))
		if e != "" {
			admins[e] = struct{}{}
		}
	}
	return &authService{
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		loginCodeRepo: loginCodeRepo,
		inviteRepo:    inviteRepo,
		referrals:     referrals,
		hasher:        hasher,
		tokenIssuer:   tokenIssuer,
		tokenExpiry:   tokenExpiry,
		emailService:  emailService,
		adminEmails:   admins,
		seedBudget:    seedBudget,
		logger:        logger,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password, name, company, jobRole, referralCode string) (*domain.SignUpResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, domain.ErrInvalidInput)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, strings.TrimSpace(name), strings.TrimSpace(company), strings.TrimSpace(jobRole), now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.assignRole(ctx, user.ID, defaultRole); err != nil {
		return nil, err
	}
	if _, ok := s.adminEmails[email]; ok {
		if err := s.assignRole(ctx, user.ID, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}

	if err := s.inviteRepo.EnsureBudget(ctx, user.ID, s.seedBudget); err != nil {
		return nil, fmt.Errorf("failed to seed invite budget: %w", err)
	}

	result := &domain.SignUpResult{User: user}

	// A bad referral code never fails the signup; the response just lacks
	// the referral block.
	if code := strings.TrimSpace(referralCode); code != "" {
		outcome, err := s.referrals.Redeem(ctx, user.ID, code)
		if err != nil {
			s.logger.Warn("signup referral redemption failed", "code", code, "error", err)
		} else {
			result.Referral = outcome
		}
	}

	if s.emailService != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, Name: user.Name}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.Warn("welcome email failed", "email", user.Email, "error", err)
		}
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	result.Token = token
	return result, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	// Accounts created through the login-code flow have no password.
	if user.PasswordHash == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) RequestLoginCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	code, err := generateLoginCode(loginCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	codeHash := hashLoginCode(code)
	expiresAt := time.Now().Add(loginCodeExpiryMins * time.Minute)
	if err := s.loginCodeRepo.Create(ctx, email, codeHash, expiresAt); err != nil {
		return fmt.Errorf("failed to store login code: %w", err)
	}
	if s.emailService != nil {
		data := &domain.LoginCodeEmailData{
			Email:            email,
			Code:             code,
			ExpiresInMinutes: loginCodeExpiryMins,
		}
		if err := s.emailService.SendLoginCode(ctx, data); err != nil {
			return fmt.Errorf("failed to send login code email: %w", err)
		}
	}
	return nil
}

func (s *authService) VerifyLoginCode(ctx context.Context, email, code string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, fmt.Errorf("invalid email format: %w", domain.ErrInvalidInput)
	}
	code = strings.TrimSpace(code)
	if !loginCodeRegex.MatchString(code) {
		return "", nil, domain.ErrInvalidCredentials
	}
	consumed, err := s.loginCodeRepo.Consume(ctx, email, hashLoginCode(code))
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !consumed {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, fmt.Errorf("failed to get user: %w", err)
		}
		// First login: create the account on the spot, no password.
		now := time.Now()
		user = domain.NewUser(email, "", "", "", now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.assignRole(ctx, user.ID, defaultRole); err != nil {
			return "", nil, err
		}
		if err := s.inviteRepo.EnsureBudget(ctx, user.ID, s.seedBudget); err != nil {
			return "", nil, fmt.Errorf("failed to seed invite budget: %w", err)
		}
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) assignRole(ctx context.Context, userID, code string) error {
	role, err := s.roleRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to get role %q: %w", code, err)
	}
	if err := s.userRepo.AssignRole(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (s *authService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	roles, err := s.roleRepo.ListCodesByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load roles: %w", err)
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, roles, s.tokenExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func generateLoginCode(digits int) (string, error) {
	const digitspace = "0123456789"
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = digitspace[int(b[i])%len(digitspace)]
	}
	return string(b), nil
}

func hashLoginCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
