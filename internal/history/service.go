package history

import (
	"context"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
)

type BookingLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]bookings.Booking, error)
}

type Service interface {
	// List returns the caller's bookings newest first, grouped by type.
	List(ctx context.Context, s *session.Session, q Query) (*View, error)
}

type service struct {
	bookings BookingLister
	cache    cache.Service
	ttl      time.Duration
	log      *logger.Logger
}

func NewService(lister BookingLister, cacheSvc cache.Service, ttl time.Duration, log *logger.Logger) Service {
	return &service{bookings: lister, cache: cacheSvc, ttl: ttl, log: log}
}

func (s *service) List(ctx context.Context, sess *session.Session, q Query) (*View, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	fetch := func() (interface{}, error) {
		list, err := s.bookings.ListByUser(ctx, sess.UserID)
		if err != nil {
			return nil, err
		}
		return build(list), nil
	}

	if s.cache == nil || s.ttl <= 0 {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*View).filter(q), nil
	}

	var v View
	if err := s.cache.GetOrSet(ctx, constants.BuildHistoryKey(sess.UserID.String()), s.ttl, fetch, &v); err != nil {
		return nil, err
	}
	return v.filter(q), nil
}
