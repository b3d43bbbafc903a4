package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the cross-table rules AutoMigrate cannot express.
// Foreign keys are skipped during AutoMigrate, so they are declared here once.
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// a coupon carries exactly one kind of discount
		`DO $$ BEGIN
			ALTER TABLE coupons ADD CONSTRAINT chk_coupon_single_discount
			CHECK ((discount_percentage IS NULL) <> (discount_amount IS NULL));
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			ALTER TABLE coupons ADD CONSTRAINT chk_coupon_usage
			CHECK (current_uses <= max_uses);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			ALTER TABLE bookings ADD CONSTRAINT chk_booking_amounts
			CHECK (total_amount >= 0 AND total_amount <= subtotal);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			ALTER TABLE payments ADD CONSTRAINT fk_payments_booking
			FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			ALTER TABLE payment_details ADD CONSTRAINT fk_payment_details_payment
			FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		`DO $$ BEGIN
			ALTER TABLE seats ADD CONSTRAINT fk_seats_event
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL; END $$;`,
		// one completed payment per booking
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_completed
			ON payments (booking_id) WHERE payment_status = 'completed';`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_due
			ON bookings (travel_date) WHERE ticket_status = 'booked';`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
