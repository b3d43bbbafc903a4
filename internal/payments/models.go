package payments

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodDebitCard    Method = "debit_card"
	MethodUPI          Method = "upi"
	MethodBankTransfer Method = "bank_transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodUPI, MethodBankTransfer:
		return true
	}
	return false
}

func (m Method) IsCard() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

type Payment struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID       `json:"booking_id" gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaymentMethod Method          `json:"payment_method" gorm:"type:varchar(20);not null"`
	PaymentStatus Status          `json:"payment_status" gorm:"type:varchar(20);not null;index"`
	PaymentDate   time.Time       `json:"payment_date" gorm:"not null"`
	TransactionID string          `json:"transaction_id" gorm:"size:32;not null;uniqueIndex"`
	ReceiptURL    *string         `json:"receipt_url,omitempty" gorm:"size:500"`
	TicketURL     *string         `json:"ticket_url,omitempty" gorm:"size:500"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime"`

	Detail *PaymentDetail `json:"detail,omitempty" gorm:"foreignKey:PaymentID"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

var ErrDetailImmutable = errors.New("payment details are write-once")

// PaymentDetail holds the masked, method-specific part of a payment. Card numbers
// and CVVs are never stored.
type PaymentDetail struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	PaymentID     uuid.UUID `json:"payment_id" gorm:"type:uuid;not null;uniqueIndex"`
	CardLastFour  *string   `json:"card_last_four,omitempty" gorm:"size:4"`
	CardExpiry    *string   `json:"card_expiry,omitempty" gorm:"size:5"`
	CardHolder    *string   `json:"card_holder,omitempty" gorm:"size:100"`
	UPIID         *string   `json:"upi_id,omitempty" gorm:"column:upi_id;size:100"`
	AccountMasked *string   `json:"account_number_masked,omitempty" gorm:"size:32"`
	IFSCCode      *string   `json:"ifsc_code,omitempty" gorm:"column:ifsc_code;size:11"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (d *PaymentDetail) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *PaymentDetail) BeforeUpdate(tx *gorm.DB) error {
	return ErrDetailImmutable
}

type CardFields struct {
	Number     string `json:"card_number" validate:"required,numeric,min=13,max=19"`
	Expiry     string `json:"expiry" validate:"required,card_expiry"`
	CVV        string `json:"cvv" validate:"required,numeric,min=3,max=4"`
	HolderName string `json:"holder_name" validate:"required,min=2,max=100"`
}

type UPIFields struct {
	ID string `json:"upi_id" validate:"required,upi"`
}

type BankFields struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,min=9,max=18"`
	IFSC          string `json:"ifsc_code" validate:"required,len=11,alphanum"`
	HolderName    string `json:"account_holder" validate:"required,min=2,max=100"`
}

// Form is the method-specific payment submission. Exactly the block matching
// Method must be present.
type Form struct {
	Method Method      `json:"payment_method" validate:"required,oneof=credit_card debit_card upi bank_transfer"`
	Card   *CardFields `json:"card,omitempty" validate:"-"`
	UPI    *UPIFields  `json:"upi,omitempty" validate:"-"`
	Bank   *BankFields `json:"bank,omitempty" validate:"-"`
}

// BookingRef is the slice of a booking that payment capture needs.
type BookingRef struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	TotalAmount  decimal.Decimal
	TicketStatus string
}
