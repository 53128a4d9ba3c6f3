package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"partyhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	roles     map[string][]string // userID -> role IDs
	nextID    int
	getErr    error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
		roles:   make(map[string][]string),
	}
}

func (f *fakeUserRepo) put(u *domain.User) {
	f.byID[u.ID] = u
	if u.Email != "" {
		f.byEmail[u.Email] = u
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.nextID++
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.put(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.put(u)
	return nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	f.roles[userID] = append(f.roles[userID], roleID)
	return nil
}

// fakeRoleRepo implements domain.RoleRepository for tests.
type fakeRoleRepo struct {
	byCode     map[string]*domain.Role
	codesByUID map[string][]string
	getErr     error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		byCode: map[string]*domain.Role{
			domain.RoleAttendee: {ID: "role-1", Code: domain.RoleAttendee},
			domain.RoleAdmin:    {ID: "role-2", Code: domain.RoleAdmin},
		},
		codesByUID: make(map[string][]string),
	}
}

func (f *fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.byCode[code]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRoleRepo) ListCodesByUserID(ctx context.Context, userID string) ([]string, error) {
	return f.codesByUID[userID], nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt string
	hash string
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, nil }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	return "hash-" + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if f.hash != "" && hash != f.hash {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	err      error
	gotRoles []string
}

func (f *fakeTokenIssuer) Issue(userID, email string, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.gotRoles = roles
	return "token-" + userID, nil
}

// fakeLoginCodeRepo implements domain.LoginCodeRepository for tests.
type fakeLoginCodeRepo struct {
	hashes   map[string]string
	consumed map[string]bool
}

func newFakeLoginCodeRepo() *fakeLoginCodeRepo {
	return &fakeLoginCodeRepo{
		hashes:   make(map[string]string),
		consumed: make(map[string]bool),
	}
}

func (f *fakeLoginCodeRepo) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	f.hashes[email] = codeHash
	delete(f.consumed, email)
	return nil
}

func (f *fakeLoginCodeRepo) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	if f.consumed[email] {
		return false, nil
	}
	if h, ok := f.hashes[email]; ok && h == codeHash {
		f.consumed[email] = true
		return true, nil
	}
	return false, nil
}

// fakeReferralSvc implements domain.ReferralService for tests.
type fakeReferralSvc struct {
	outcome       *domain.RedeemOutcome
	redeemErr     error
	redeemedCodes []string
}

func (f *fakeReferralSvc) MyCode(ctx context.Context, userID string) (*domain.ReferralCode, error) {
	return nil, domain.ErrCodeNotFound
}

func (f *fakeReferralSvc) Redeem(ctx context.Context, userID, code string) (*domain.RedeemOutcome, error) {
	f.redeemedCodes = append(f.redeemedCodes, code)
	if f.redeemErr != nil {
		return nil, f.redeemErr
	}
	return f.outcome, nil
}

func (f *fakeReferralSvc) Status(ctx context.Context, userID string) (*domain.ReferralStatus, error) {
	return &domain.ReferralStatus{Redeemed: []*domain.Redemption{}}, nil
}

// fakeEmailSvc implements domain.EmailService for tests.
type fakeEmailSvc struct {
	welcomes   []*domain.WelcomeMessageEmailData
	loginCodes []*domain.LoginCodeEmailData
	invites    []*domain.InviteEmailData
	welcomeErr error
	loginErr   error
	inviteErr  error
}

func (f *fakeEmailSvc) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	f.welcomes = append(f.welcomes, data)
	return f.welcomeErr
}

func (f *fakeEmailSvc) SendLoginCode(ctx context.Context, data *domain.LoginCodeEmailData) error {
	f.loginCodes = append(f.loginCodes, data)
	return f.loginErr
}

func (f *fakeEmailSvc) SendInvite(ctx context.Context, data *domain.InviteEmailData) error {
	f.invites = append(f.invites, data)
	return f.inviteErr
}

type authFixture struct {
	userRepo      *fakeUserRepo
	roleRepo      *fakeRoleRepo
	loginCodeRepo *fakeLoginCodeRepo
	inviteRepo    *fakeInviteRepo
	referrals     *fakeReferralSvc
	emails        *fakeEmailSvc
	issuer        *fakeTokenIssuer
	svc           domain.AuthService
}

func newAuthFixture(adminEmails ...string) *authFixture {
	f := &authFixture{
		userRepo:      newFakeUserRepo(),
		roleRepo:      newFakeRoleRepo(),
		loginCodeRepo: newFakeLoginCodeRepo(),
		inviteRepo:    newFakeInviteRepo(),
		referrals:     &fakeReferralSvc{},
		emails:        &fakeEmailSvc{},
		issuer:        &fakeTokenIssuer{},
	}
	f.svc = NewAuthService(
		f.userRepo,
		f.roleRepo,
		f.loginCodeRepo,
		f.inviteRepo,
		f.referrals,
		&fakePasswordHasher{salt: "s", hash: "h"},
		f.issuer,
		time.Hour,
		f.emails,
		adminEmails,
		5,
		discardLogger(),
	)
	return f
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.referrals.outcome = &domain.RedeemOutcome{Code: "GAMESCOM2025", BonusGranted: 5, InvitesRemaining: 10}

	res, err := f.svc.SignUp(ctx, "Alice@Example.com", "password8", "Alice", "Indie Studio", "developer", "gamescom2025")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "h", res.User.PasswordHash)
	assert.Equal(t, "token-"+res.User.ID, res.Token)

	// Attendee role, seeded budget, welcome email, referral outcome.
	assert.Equal(t, []string{"role-1"}, f.userRepo.roles[res.User.ID])
	budget, err := f.inviteRepo.GetBudget(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, budget.Remaining)
	assert.Len(t, f.emails.welcomes, 1)
	require.NotNil(t, res.Referral)
	assert.Equal(t, 5, res.Referral.BonusGranted)
	assert.Equal(t, []string{"gamescom2025"}, f.referrals.redeemedCodes)
}

func TestAuthService_SignUp_AdminEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture("ops@partyhub.test")

	res, err := f.svc.SignUp(ctx, "ops@partyhub.test", "password8", "Ops", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"role-1", "role-2"}, f.userRepo.roles[res.User.ID])
}

func TestAuthService_SignUp_BadReferralCodeDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.referrals.redeemErr = domain.ErrCodeNotFound

	res, err := f.svc.SignUp(ctx, "alice@example.com", "password8", "Alice", "", "", "BOGUS")
	require.NoError(t, err)
	assert.Nil(t, res.Referral)
	assert.NotEmpty(t, res.Token)
}

func TestAuthService_SignUp_WelcomeEmailFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.emails.welcomeErr = errors.New("ses throttled")

	res, err := f.svc.SignUp(ctx, "alice@example.com", "password8", "Alice", "", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestAuthService_SignUp_Validation(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	_, err := f.svc.SignUp(ctx, "not-an-email", "password8", "", "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.SignUp(ctx, "alice@example.com", "short", "", "", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthService_SignUp_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	_, err := f.svc.SignUp(ctx, "alice@example.com", "password8", "Alice", "", "", "")
	require.NoError(t, err)
	_, err = f.svc.SignUp(ctx, "alice@example.com", "password9", "Other Alice", "", "", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.userRepo.put(&domain.User{ID: "u1", Email: "alice@example.com", PasswordHash: "h", Salt: "s", Name: "Alice"})
	f.roleRepo.codesByUID["u1"] = []string{domain.RoleAttendee}

	token, user, err := f.svc.Login(ctx, "Alice@Example.com", "password8")
	require.NoError(t, err)
	assert.Equal(t, "token-u1", token)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, []string{domain.RoleAttendee}, f.issuer.gotRoles)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.userRepo.put(&domain.User{ID: "u1", Email: "alice@example.com", PasswordHash: "other-hash", Salt: "s"})
	// Account created through the login-code flow: no password at all.
	f.userRepo.put(&domain.User{ID: "u2", Email: "codeonly@example.com"})

	_, _, err := f.svc.Login(ctx, "nobody@example.com", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = f.svc.Login(ctx, "codeonly@example.com", "anything")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_RequestLoginCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	err := f.svc.RequestLoginCode(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, f.emails.loginCodes, 1)
	code := f.emails.loginCodes[0].Code
	assert.Regexp(t, `^\d{6}$`, code)
	// The repo stores only the hash of the emailed code.
	assert.Equal(t, hashLoginCode(code), f.loginCodeRepo.hashes["alice@example.com"])

	err = f.svc.RequestLoginCode(ctx, "not-an-email")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAuthService_RequestLoginCode_EmailFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.emails.loginErr = errors.New("ses down")

	err := f.svc.RequestLoginCode(ctx, "alice@example.com")
	assert.Error(t, err)
}

func TestAuthService_VerifyLoginCode(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.userRepo.put(&domain.User{ID: "u1", Email: "alice@example.com"})

	require.NoError(t, f.svc.RequestLoginCode(ctx, "alice@example.com"))
	code := f.emails.loginCodes[0].Code

	token, user, err := f.svc.VerifyLoginCode(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.Equal(t, "token-u1", token)
	assert.Equal(t, "u1", user.ID)

	// A consumed code does not work twice.
	_, _, err = f.svc.VerifyLoginCode(ctx, "alice@example.com", code)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_VerifyLoginCode_CreatesAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	require.NoError(t, f.svc.RequestLoginCode(ctx, "new@example.com"))
	code := f.emails.loginCodes[0].Code

	token, user, err := f.svc.VerifyLoginCode(ctx, "new@example.com", code)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, []string{"role-1"}, f.userRepo.roles[user.ID])
	budget, err := f.inviteRepo.GetBudget(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, budget.Remaining)
}

func TestAuthService_VerifyLoginCode_BadCodes(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	require.NoError(t, f.svc.RequestLoginCode(ctx, "alice@example.com"))

	_, _, err := f.svc.VerifyLoginCode(ctx, "alice@example.com", "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	wrong := "000000"
	if f.emails.loginCodes[0].Code == wrong {
		wrong = "111111"
	}
	_, _, err = f.svc.VerifyLoginCode(ctx, "alice@example.com", wrong)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}
