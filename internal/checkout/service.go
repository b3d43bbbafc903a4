package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/coupons"
	"travelhub/internal/notifications"
	"travelhub/internal/payments"
	"travelhub/internal/profiles"
	"travelhub/internal/seats"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"
	"travelhub/internal/shared/session"
	"travelhub/pkg/cache"
	"travelhub/pkg/logger"
	"travelhub/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ItemLookup interface {
	Lookup(ctx context.Context, kind catalog.Kind, id uuid.UUID) (*catalog.Item, error)
}

type Inventory interface {
	Price(ctx context.Context, item *catalog.Item, ids []string) ([]seats.Unit, error)
	ReserveEventSeats(ctx context.Context, tx *gorm.DB, userID, eventID uuid.UUID, ids []string) ([]seats.Unit, error)
	ReleaseFor(ctx context.Context, userID uuid.UUID, holdID string) (int, error)
}

type Coupons interface {
	Apply(ctx context.Context, code string) (*coupons.Discount, error)
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
}

type Bookings interface {
	Create(ctx context.Context, tx *gorm.DB, s *session.Session, in bookings.CreateInput) (*bookings.Booking, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type Payments interface {
	ValidateForm(form *payments.Form) error
	Capture(ctx context.Context, tx *gorm.DB, bookingID uuid.UUID, amount decimal.Decimal, form *payments.Form) (*payments.Payment, error)
}

type Memberships interface {
	ActivatePremium(ctx context.Context, userID uuid.UUID, plan profiles.PremiumPlan) (*profiles.Profile, error)
}

type Service interface {
	// Checkout prices the selection, redeems any coupon, creates the booking and
	// captures the payment in one transaction. Nothing is written if any step fails.
	Checkout(ctx context.Context, s *session.Session, idempotencyKey string, req *Request) (*Result, error)
}

type Deps struct {
	DB        *gorm.DB
	Items     ItemLookup
	Inventory Inventory
	Coupons   Coupons
	Bookings  Bookings
	Payments  Payments
	Members   Memberships
	Cache     cache.Service
	Publisher notifications.Publisher
	ReplayTTL time.Duration
	Log       *logger.Logger
}

type service struct {
	Deps
}

func NewService(deps Deps) Service {
	if deps.Publisher == nil {
		deps.Publisher = notifications.NoopPublisher{}
	}
	if deps.ReplayTTL <= 0 {
		deps.ReplayTTL = 24 * time.Hour
	}
	return &service{Deps: deps}
}

const premiumType = "premium_service"

var bookingTypes = map[catalog.Kind]bookings.BookingType{
	catalog.KindFlight: bookings.TypeFlight,
	catalog.KindTrain:  bookings.TypeTrain,
	catalog.KindMovie:  bookings.TypeMovie,
	catalog.KindEvent:  bookings.TypeEvent,
}

// plan is the resolved, priced thing being bought.
type plan struct {
	bookingType bookings.BookingType
	item        *catalog.Item
	itemID      uuid.UUID
	premium     profiles.PremiumPlan
	price       decimal.Decimal
}

func (s *service) Checkout(ctx context.Context, sess *session.Session, idempotencyKey string, req *Request) (*Result, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	p, err := s.resolve(ctx, sess, req)
	if err != nil {
		return nil, err
	}
	if req.Payment != nil {
		if err := s.Payments.ValidateForm(req.Payment); err != nil {
			return nil, err
		}
	} else if p.bookingType == bookings.TypePremiumService {
		return nil, apperrors.Validation("payment", "premium memberships must be paid at checkout")
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		if prior, ok := s.replay(ctx, sess.UserID, idempotencyKey); ok {
			return prior, nil
		}
		unlock, err := s.claim(ctx, sess.UserID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var discount *coupons.Discount
	if code := coupons.NormalizeCode(req.CouponCode); code != "" {
		if discount, err = s.Coupons.Apply(ctx, code); err != nil {
			return nil, err
		}
	}

	result := &Result{Discount: discount}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		units, err := s.units(ctx, tx, sess, p, req.Seats)
		if err != nil {
			return err
		}

		subtotal := p.price
		ids := make([]string, 0, len(units))
		for _, u := range units {
			subtotal = subtotal.Add(u.Price)
			ids = append(ids, u.ID)
		}
		total := subtotal
		var couponCode *string
		if discount != nil {
			total = discount.ApplyTo(subtotal)
			if err := s.Coupons.Redeem(ctx, tx, discount.Code); err != nil {
				return err
			}
			couponCode = &discount.Code
		}

		in := bookings.CreateInput{
			Type:        p.bookingType,
			ItemID:      p.itemID,
			SeatNumbers: ids,
			Subtotal:    subtotal,
			Total:       total,
			CouponCode:  couponCode,
		}
		if p.item != nil {
			in.TravelDate = p.item.ServiceDate
		}
		booking, err := s.Bookings.Create(ctx, tx, sess, in)
		if err != nil {
			return err
		}
		result.Booking, result.Subtotal, result.Total = booking, booking.Subtotal, booking.TotalAmount

		if req.Payment != nil {
			payment, err := s.Payments.Capture(ctx, tx, booking.ID, booking.TotalAmount, req.Payment)
			if err != nil {
				return err
			}
			result.Payment = payment
			booking.Payments = []payments.Payment{*payment}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSeatUnavailable) {
			s.Log.InfoContext(ctx, "checkout seat conflict", "user_id", sess.UserID.String(), "item_id", p.itemID.String(), "hold_id", req.HoldID)
		}
		return nil, err
	}

	s.committed(ctx, sess, p, req, result)
	if idempotencyKey != "" {
		s.remember(ctx, sess.UserID, idempotencyKey, result)
	}
	return result, nil
}

func (s *service) resolve(ctx context.Context, sess *session.Session, req *Request) (*plan, error) {
	if strings.EqualFold(req.ItemType, premiumType) {
		price, ok := profiles.PlanPrice(req.Plan)
		if !ok {
			return nil, apperrors.Validation("plan", "must be monthly or yearly")
		}
		return &plan{bookingType: bookings.TypePremiumService, itemID: sess.UserID, premium: req.Plan, price: price}, nil
	}

	kind, ok := catalog.ParseKind(strings.ToLower(req.ItemType))
	if !ok {
		return nil, apperrors.Validation("item_type", "unknown item type")
	}
	bt, ok := bookingTypes[kind]
	if !ok {
		return nil, apperrors.Validation("item_type", "bus tickets cannot be booked yet")
	}
	if req.ItemID == uuid.Nil {
		return nil, apperrors.Validation("item_id", "item_id is required")
	}
	if len(req.Seats) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}

	item, err := s.Items.Lookup(ctx, kind, req.ItemID)
	if err != nil {
		return nil, err
	}
	return &plan{bookingType: bt, item: item, itemID: item.ID, price: decimal.Zero}, nil
}

func (s *service) units(ctx context.Context, tx *gorm.DB, sess *session.Session, p *plan, ids []string) ([]seats.Unit, error) {
	switch {
	case p.item == nil:
		return nil, nil
	case p.item.Kind == catalog.KindEvent:
		return s.Inventory.ReserveEventSeats(ctx, tx, sess.UserID, p.item.ID, ids)
	default:
		return s.Inventory.Price(ctx, p.item, ids)
	}
}

// committed runs the side effects that must not undo a committed booking.
func (s *service) committed(ctx context.Context, sess *session.Session, p *plan, req *Request, r *Result) {
	b := r.Booking
	s.Log.LogBookingCreated(ctx, b.ID.String(), string(b.BookingType), b.ItemID.String(), sess.UserID.String(), b.TotalAmount.String())
	metrics.BookingTransition(string(b.BookingType), string(b.TicketStatus))
	if r.Discount != nil {
		s.Log.LogCouponRedeemed(ctx, r.Discount.Code, b.ID.String())
	}

	if req.HoldID != "" {
		if _, err := s.Inventory.ReleaseFor(ctx, sess.UserID, req.HoldID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			s.Log.WarnContext(ctx, "release seat hold failed", "hold_id", req.HoldID, "error", err)
		}
	}

	if p.bookingType == bookings.TypePremiumService && r.Payment != nil && s.Members != nil {
		if _, err := s.Members.ActivatePremium(ctx, sess.UserID, p.premium); err != nil {
			s.Log.ErrorWithContext(ctx, "premium activation failed", err, map[string]interface{}{
				"booking_id": b.ID.String(),
				"plan":       string(p.premium),
			})
		}
	}

	s.Bookings.Invalidate(ctx, sess.UserID)

	evt := notifications.NewBookingEvent(notifications.EventBookingCreated, b.ID, sess.UserID)
	evt.RecipientEmail = sess.Email
	evt.BookingType = string(b.BookingType)
	evt.SeatNumbers = b.Seats()
	evt.TravelDate = b.TravelDate
	evt.Amount = b.TotalAmount
	if p.item != nil {
		evt.ItemTitle = p.item.Title
	}
	if r.Payment != nil {
		evt.PaymentID = &r.Payment.ID
		evt.TransactionID = r.Payment.TransactionID
	}
	if err := s.Publisher.Publish(ctx, evt); err != nil {
		s.Log.WarnContext(ctx, "publish booking event failed", "booking_id", b.ID.String(), "error", err)
	}
}

func (s *service) replay(ctx context.Context, userID uuid.UUID, key string) (*Result, bool) {
	if s.Cache == nil {
		return nil, false
	}
	var prior Result
	err := s.Cache.Get(ctx, constants.BuildIdempotencyKey(userID.String(), key), &prior)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.Log.WarnContext(ctx, "idempotency lookup failed", "error", err)
		}
		return nil, false
	}
	if prior.Booking == nil {
		return nil, false
	}
	prior.Replayed = true
	return &prior, true
}

// claim stops two requests with the same key from running at once.
func (s *service) claim(ctx context.Context, userID uuid.UUID, key string) (func(), error) {
	noop := func() {}
	if s.Cache == nil {
		return noop, nil
	}
	lockKey := constants.BuildIdempotencyKey(userID.String(), key) + ":lock"
	ok, err := s.Cache.SetNX(ctx, lockKey, time.Now().Unix(), time.Minute)
	if err != nil {
		s.Log.WarnContext(ctx, "idempotency claim failed", "error", err)
		return noop, nil
	}
	if !ok {
		return nil, apperrors.Validation("Idempotency-Key", "a request with this key is already in progress")
	}
	return func() { _ = s.Cache.Delete(context.WithoutCancel(ctx), lockKey) }, nil
}

func (s *service) remember(ctx context.Context, userID uuid.UUID, key string, r *Result) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Set(ctx, constants.BuildIdempotencyKey(userID.String(), key), r, s.ReplayTTL); err != nil {
		s.Log.WarnContext(ctx, "idempotency store failed", "error", err)
	}
}
