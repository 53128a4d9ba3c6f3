package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Application role codes. JobRole on the user is free-form conference
// metadata ("developer", "publisher", ...); Role rows gate API access.
const (
	RoleAttendee = "attendee"
	RoleAdmin    = "admin"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Name         string    `json:"name"`
	Company      string    `json:"company,omitempty"`
	JobRole      string    `json:"job_role,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, name, company, jobRole string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:     email,
		Name:      name,
		Company:   company,
		JobRole:   jobRole,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Role represents an application role (e.g. admin, attendee).
type Role struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	UserID string
	Email  string
	Roles  []string
}

// HasRole reports whether the claims carry the given role code.
func (c *TokenClaims) HasRole(code string) bool {
	for _, r := range c.Roles {
		if r == code {
			return true
		}
	}
	return false
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
	Update(ctx context.Context, user *User) error
	AssignRole(ctx context.Context, userID, roleID string) error
}

// RoleRepository defines the interface for role storage.
type RoleRepository interface {
	GetByCode(ctx context.Context, code string) (*Role, error)
	// ListCodesByUserID returns the role codes assigned to the user, for
	// token claims.
	ListCodesByUserID(ctx context.Context, userID string) ([]string, error)
}

// LoginCodeRepository defines the interface for one-time login code storage.
type LoginCodeRepository interface {
	Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	Consume(ctx context.Context, email, codeHash string) (consumed bool, err error)
}

// SignUpResult is what AuthService.SignUp returns: the created user, their
// first token, and the outcome of any referral code supplied during signup.
// swagger:model SignUpResult
type SignUpResult struct {
	User     *User          `json:"user"`
	Token    string         `json:"token"`
	Referral *RedeemOutcome `json:"referral,omitempty"`
}

// AuthService defines signup and both login flows (password and one-time code).
type AuthService interface {
	// SignUp creates the account, assigns roles, redeems referralCode when
	// present (a bad code does not fail the signup), and sends the welcome
	// email.
	SignUp(ctx context.Context, email, password, name, company, jobRole, referralCode string) (*SignUpResult, error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	// RequestLoginCode emails a one-time code. It does not reveal whether an
	// account exists.
	RequestLoginCode(ctx context.Context, email string) error
	// VerifyLoginCode consumes the code; first-time emails get an account
	// created on the spot.
	VerifyLoginCode(ctx context.Context, email, code string) (token string, user *User, err error)
}
