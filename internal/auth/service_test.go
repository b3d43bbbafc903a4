package auth

import (
	"context"
	"testing"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/session"
	"travelhub/internal/shared/testutil"
	"travelhub/internal/users"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Create(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*users.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*users.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) List(ctx context.Context, q users.UserListQuery) ([]users.User, int64, error) {
	return nil, 0, nil
}

func (m *mockUsers) UpdateRole(ctx context.Context, id uuid.UUID, role users.Role) error {
	return nil
}

func (m *mockUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *mockUsers) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type profileStub struct {
	created []uuid.UUID
}

func (p *profileStub) CreateFor(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	p.created = append(p.created, userID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{JWT: config.JWTConfig{
		Secret:           "test-secret",
		AccessExpiresIn:  15 * time.Minute,
		RefreshExpiresIn: time.Hour,
		Issuer:           "travelhub-test",
	}}
}

func newTestService(repo *mockUsers, profiles *profileStub) (*service, *session.Broker) {
	broker := session.NewBroker(4)
	svc := NewService(repo, profiles, testutil.NewMemCache(), broker, testConfig(), logger.Discard()).(*service)
	return svc, broker
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and profile and signs in", func(t *testing.T) {
		repo := new(mockUsers)
		profiles := &profileStub{}
		svc, _ := newTestService(repo, profiles)

		repo.On("EmailExists", ctx, "ana@example.com").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*users.User")).Return(nil)

		resp, err := svc.Register(ctx, &RegisterRequest{FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", resp.User.Email)
		assert.Equal(t, users.RoleUser, resp.User.Role)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Len(t, profiles.created, 1)

		claims, err := session.ParseToken("test-secret", resp.AccessToken, session.TokenTypeAccess)
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, claims.UserID)
		assert.Equal(t, "travelhub-test", claims.Issuer)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(mockUsers)
		svc, _ := newTestService(repo, &profileStub{})
		repo.On("EmailExists", ctx, "ana@example.com").Return(true, nil)

		_, err := svc.Register(ctx, &RegisterRequest{FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	user := &users.User{ID: uuid.New(), Email: "ana@example.com", Password: hashed(t, "secret123"), Role: users.RoleUser}

	repo := new(mockUsers)
	svc, broker := newTestService(repo, &profileStub{})
	repo.On("GetByEmail", ctx, "ana@example.com").Return(user, nil)
	repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, apperrors.NotFound("user"))

	events, cancel := broker.Subscribe(user.ID)
	defer cancel()

	_, err := svc.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), resp.User.ID)

	select {
	case ev := <-events:
		assert.Equal(t, session.EventSignedIn, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("expected signed_in event")
	}
}

func TestRefreshRotatesAndRevokes(t *testing.T) {
	ctx := context.Background()
	user := &users.User{ID: uuid.New(), Email: "ana@example.com", Role: users.RoleUser}

	repo := new(mockUsers)
	svc, _ := newTestService(repo, &profileStub{})
	repo.On("GetByID", ctx, user.ID).Return(user, nil)

	pair, err := svc.generateTokenPair(user)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, session.ErrInvalidToken, "access tokens cannot refresh")

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	user := &users.User{ID: uuid.New(), Email: "ana@example.com", Role: users.RoleUser}

	repo := new(mockUsers)
	svc, broker := newTestService(repo, &profileStub{})

	err := svc.Logout(ctx, nil, "")
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)

	pair, err := svc.generateTokenPair(user)
	require.NoError(t, err)

	events, cancel := broker.Subscribe(user.ID)
	defer cancel()

	require.NoError(t, svc.Logout(ctx, &session.Session{UserID: user.ID}, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	ev := <-events
	assert.Equal(t, session.EventSignedOut, ev.Type)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	user := &users.User{ID: uuid.New(), Email: "ana@example.com", Password: hashed(t, "secret123")}

	repo := new(mockUsers)
	svc, _ := newTestService(repo, &profileStub{})
	repo.On("GetByID", ctx, user.ID).Return(user, nil)
	repo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil)

	sess := &session.Session{UserID: user.ID}
	err := svc.ChangePassword(ctx, sess, &ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "another123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, sess, &ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "another123"}))
	repo.AssertCalled(t, "UpdatePassword", ctx, user.ID, mock.AnythingOfType("string"))
}
