package profiles

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

type Service interface {
	Get(ctx context.Context, s *session.Session) (*Profile, error)
	Update(ctx context.Context, s *session.Session, req *UpdateProfileRequest) (*Profile, error)
	CreateFor(ctx context.Context, userID uuid.UUID, firstName, lastName string) error
	ActivatePremium(ctx context.Context, userID uuid.UUID, plan PremiumPlan) (*Profile, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

type service struct {
	repo   Repository
	broker *session.Broker
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, broker *session.Broker, log *logger.Logger) Service {
	return &service{repo: repo, broker: broker, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the caller's profile. A premium membership past its expiry is
// downgraded and persisted before the profile is returned.
func (s *service) Get(ctx context.Context, sess *session.Session) (*Profile, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sess.UserID)
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		p = &Profile{ID: userID}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	if p.PremiumLapsed(s.now()) {
		p.clearPremium()
		if err := s.repo.Save(ctx, p); err != nil {
			return nil, err
		}
		s.log.InfoWithContext(ctx, "premium membership lapsed", map[string]interface{}{"user_id": userID.String()})
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, sess *session.Session, req *UpdateProfileRequest) (*Profile, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	p, err := s.load(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		p.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		p.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		phone := strings.ReplaceAll(strings.TrimSpace(*req.Phone), " ", "")
		switch {
		case phone == "":
			p.Phone = nil
		case !phonePattern.MatchString(phone):
			return nil, apperrors.Validation("phone", "must be 10 to 15 digits, optionally prefixed with +")
		default:
			p.Phone = &phone
		}
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			p.DateOfBirth = nil
		} else {
			dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
			if err != nil {
				return nil, apperrors.Validation("date_of_birth", "must be formatted YYYY-MM-DD")
			}
			if dob.After(s.now()) {
				return nil, apperrors.Validation("date_of_birth", "cannot be in the future")
			}
			p.DateOfBirth = &dob
		}
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.Publish(session.Event{Type: session.EventProfileUpdated, UserID: sess.UserID})
	}
	return p, nil
}

func (s *service) CreateFor(ctx context.Context, userID uuid.UUID, firstName, lastName string) error {
	return s.repo.Create(ctx, &Profile{ID: userID, FirstName: firstName, LastName: lastName})
}

// ActivatePremium starts or extends a membership. An active membership is extended from its current expiry.
func (s *service) ActivatePremium(ctx context.Context, userID uuid.UUID, plan PremiumPlan) (*Profile, error) {
	terms, ok := plans[plan]
	if !ok {
		return nil, apperrors.Validation("plan", "must be monthly or yearly")
	}

	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	if p.IsPremium && p.PremiumExpiry != nil && p.PremiumExpiry.After(start) {
		start = *p.PremiumExpiry
	}
	expiry := start.Add(terms.Duration)

	p.IsPremium = true
	p.PremiumType = &plan
	p.PremiumExpiry = &expiry
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	if s.broker != nil {
		s.broker.Publish(session.Event{Type: session.EventProfileUpdated, UserID: userID})
	}
	return p, nil
}

func (s *service) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredPremium(ctx, s.now())
}
