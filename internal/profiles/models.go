package profiles

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PremiumPlan string

const (
	PlanMonthly PremiumPlan = "monthly"
	PlanYearly  PremiumPlan = "yearly"
)

type planTerms struct {
	Duration time.Duration
	Price    decimal.Decimal
}

var plans = map[PremiumPlan]planTerms{
	PlanMonthly: {Duration: 30 * 24 * time.Hour, Price: decimal.NewFromInt(199)},
	PlanYearly:  {Duration: 365 * 24 * time.Hour, Price: decimal.NewFromInt(1999)},
}

// PlanPrice returns the price of a premium plan and whether the plan exists.
func PlanPrice(p PremiumPlan) (decimal.Decimal, bool) {
	t, ok := plans[p]
	return t.Price, ok
}

// Profile shares its id with the owning user.
type Profile struct {
	ID            uuid.UUID    `json:"id" gorm:"primaryKey;type:uuid"`
	FirstName     string       `json:"first_name" gorm:"size:100"`
	LastName      string       `json:"last_name" gorm:"size:100"`
	Phone         *string      `json:"phone" gorm:"size:20"`
	DateOfBirth   *time.Time   `json:"date_of_birth" gorm:"type:date"`
	IsPremium     bool         `json:"is_premium" gorm:"not null"`
	PremiumType   *PremiumPlan `json:"premium_type" gorm:"type:varchar(20)"`
	PremiumExpiry *time.Time   `json:"premium_expiry"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// PremiumLapsed reports whether the profile still claims premium after its expiry.
func (p *Profile) PremiumLapsed(now time.Time) bool {
	return p.IsPremium && p.PremiumExpiry != nil && !now.Before(*p.PremiumExpiry)
}

func (p *Profile) clearPremium() {
	p.IsPremium = false
	p.PremiumType = nil
	p.PremiumExpiry = nil
}
