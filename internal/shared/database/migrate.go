package database

import (
	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/coupons"
	"travelhub/internal/payments"
	"travelhub/internal/profiles"
	"travelhub/internal/seats"
	"travelhub/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&profiles.Profile{},
		&catalog.Flight{},
		&catalog.TrainRoute{},
		&catalog.Bus{},
		&catalog.Movie{},
		&catalog.Event{},
		&seats.Seat{},
		&coupons.Coupon{},
		&bookings.Booking{},
		&payments.Payment{},
		&payments.PaymentDetail{},
	)
}
