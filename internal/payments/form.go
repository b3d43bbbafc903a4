package payments

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"travelhub/internal/shared/apperrors"

	"github.com/go-playground/validator/v10"
)

var (
	upiPattern    = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z][a-zA-Z0-9]{1,64}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// NewValidator returns a validator that knows the payment-specific rules.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("upi", func(fl validator.FieldLevel) bool {
		return upiPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("card_expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	})
	return v
}

// Normalize strips the spacing customers type into card and account numbers.
func (f *Form) Normalize() {
	if f.Card != nil {
		f.Card.Number = stripSpaces(f.Card.Number)
		f.Card.Expiry = strings.TrimSpace(f.Card.Expiry)
		f.Card.HolderName = strings.TrimSpace(f.Card.HolderName)
	}
	if f.UPI != nil {
		f.UPI.ID = strings.TrimSpace(f.UPI.ID)
	}
	if f.Bank != nil {
		f.Bank.AccountNumber = stripSpaces(f.Bank.AccountNumber)
		f.Bank.IFSC = strings.ToUpper(strings.TrimSpace(f.Bank.IFSC))
		f.Bank.HolderName = strings.TrimSpace(f.Bank.HolderName)
	}
}

func stripSpaces(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// Validate checks required fields for the chosen method. Only pattern and length
// rules apply; no Luhn or IFSC registry lookups.
func (f *Form) Validate(v *validator.Validate) error {
	f.Normalize()
	if err := v.Struct(f); err != nil {
		return validationError(err)
	}

	var block interface{}
	switch {
	case f.Method.IsCard():
		if f.Card == nil {
			return apperrors.Validation("card", "card details are required")
		}
		block = f.Card
	case f.Method == MethodUPI:
		if f.UPI == nil {
			return apperrors.Validation("upi", "UPI id is required")
		}
		block = f.UPI
	case f.Method == MethodBankTransfer:
		if f.Bank == nil {
			return apperrors.Validation("bank", "bank account details are required")
		}
		block = f.Bank
	}
	if err := v.Struct(block); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.Validation(fieldName(fe), fmt.Sprintf("failed %s validation", fe.Tag()))
	}
	return apperrors.Validation("payment", err.Error())
}

var fieldNames = map[string]string{
	"Method":        "payment_method",
	"Number":        "card_number",
	"Expiry":        "expiry",
	"CVV":           "cvv",
	"HolderName":    "holder_name",
	"ID":            "upi_id",
	"AccountNumber": "account_number",
	"IFSC":          "ifsc_code",
}

func fieldName(fe validator.FieldError) string {
	if n, ok := fieldNames[fe.StructField()]; ok {
		return n
	}
	return strings.ToLower(fe.Field())
}

// Detail builds the masked record stored alongside the payment.
func (f *Form) Detail() *PaymentDetail {
	d := &PaymentDetail{}
	switch {
	case f.Method.IsCard() && f.Card != nil:
		last4 := lastN(f.Card.Number, 4)
		d.CardLastFour = &last4
		d.CardExpiry = strPtr(f.Card.Expiry)
		d.CardHolder = strPtr(f.Card.HolderName)
	case f.Method == MethodUPI && f.UPI != nil:
		d.UPIID = strPtr(f.UPI.ID)
	case f.Method == MethodBankTransfer && f.Bank != nil:
		masked := MaskAccount(f.Bank.AccountNumber)
		d.AccountMasked = &masked
		d.IFSCCode = strPtr(f.Bank.IFSC)
	}
	return d
}

// MaskAccount keeps the last four digits: "123456789012" -> "XXXXXXXX9012".
func MaskAccount(account string) string {
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("X", len(account)-4) + account[len(account)-4:]
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func strPtr(s string) *string { return &s }

const txnAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTransactionID returns "TXN" followed by 10 random base36 characters.
func NewTransactionID() (string, error) {
	var b strings.Builder
	b.Grow(13)
	b.WriteString("TXN")
	max := big.NewInt(int64(len(txnAlphabet)))
	for i := 0; i < 10; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(txnAlphabet[n.Int64()])
	}
	return b.String(), nil
}
