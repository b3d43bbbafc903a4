package auth

import (
	"context"
	"errors"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/config"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/internal/users"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ProfileCreator provisions the profile row that accompanies every new account.
type ProfileCreator interface {
	CreateFor(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
}

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, s *session.Session, refreshToken string) error
	Me(ctx context.Context, s *session.Session) (*UserResponse, error)
	ChangePassword(ctx context.Context, s *session.Session, req *ChangePasswordRequest) error
	Subscribe(s *session.Session) (<-chan session.Event, func(), error)
}

type service struct {
	users    users.Repository
	profiles ProfileCreator
	cache    cache.Service
	broker   *session.Broker
	cfg      *config.Config
	log      *logger.Logger
	now      func() time.Time
}

func NewService(repo users.Repository, profiles ProfileCreator, cacheSvc cache.Service, broker *session.Broker, cfg *config.Config, log *logger.Logger) Service {
	return &service{
		users:    repo,
		profiles: profiles,
		cache:    cacheSvc,
		broker:   broker,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	exists, err := s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &users.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      users.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.profiles.CreateFor(ctx, user.ID, user.FirstName, user.LastName); err != nil {
		// profiles are created lazily on first read, so sign-up still succeeds
		s.log.ErrorWithContext(ctx, "failed to create profile on sign-up", err, map[string]interface{}{"user_id": user.ID.String()})
	}

	return s.signIn(ctx, user, "register")
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, user, "password")
}

func (s *service) signIn(ctx context.Context, user *users.User, method string) (*AuthResponse, error) {
	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.log.LogAuthSuccess(ctx, user.ID.String(), method)
	s.broker.Publish(session.Event{Type: session.EventSignedIn, UserID: user.ID})

	return &AuthResponse{User: toUserResponse(user), TokenPair: *pair}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a fresh pair is issued.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := session.ParseToken(s.cfg.JWT.Secret, refreshToken, session.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, session.ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(session.Event{Type: session.EventTokenRefreshed, UserID: user.ID})
	return pair, nil
}

// Logout revokes the caller's refresh token when one is supplied and notifies session subscribers.
func (s *service) Logout(ctx context.Context, sess *session.Session, refreshToken string) error {
	sess, err := session.Require(sess)
	if err != nil {
		return err
	}

	if refreshToken != "" {
		claims, err := session.ParseToken(s.cfg.JWT.Secret, refreshToken, session.TokenTypeRefresh)
		if err == nil && claims.UserID == sess.UserID.String() {
			if err := s.revoke(ctx, claims); err != nil {
				return err
			}
		}
	}

	s.broker.Publish(session.Event{Type: session.EventSignedOut, UserID: sess.UserID})
	return nil
}

func (s *service) Me(ctx context.Context, sess *session.Session) (*UserResponse, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	out := toUserResponse(user)
	return &out, nil
}

func (s *service) ChangePassword(ctx context.Context, sess *session.Session, req *ChangePasswordRequest) error {
	sess, err := session.Require(sess)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hashed))
}

func (s *service) Subscribe(sess *session.Session) (<-chan session.Event, func(), error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.broker.Subscribe(sess.UserID)
	return ch, cancel, nil
}

func (s *service) generateTokenPair(user *users.User) (*TokenPair, error) {
	now := s.now()

	access, err := s.sign(user, session.TokenTypeAccess, now, s.cfg.JWT.AccessExpiresIn)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, session.TokenTypeRefresh, now, s.cfg.JWT.RefreshExpiresIn)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.JWT.AccessExpiresIn.Seconds()),
	}, nil
}

func (s *service) sign(user *users.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := session.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.cfg.JWT.Issuer,
			Subject:   user.ID.String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWT.Secret))
}

func revokedKey(jti string) string {
	return constants.CACHE_PREFIX + ":auth:revoked:" + jti
}

func (s *service) isRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var marker bool
	err := s.cache.Get(ctx, revokedKey(jti), &marker)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *service) revoke(ctx context.Context, claims *session.Claims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	_, err := s.cache.SetNX(ctx, revokedKey(claims.ID), true, ttl)
	return err
}
