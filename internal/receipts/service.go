package receipts

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"travelhub/internal/bookings"
	"travelhub/internal/catalog"
	"travelhub/internal/payments"
	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/internal/users"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/phpdave11/gofpdf"
)

type Kind string

const (
	KindTicket  Kind = "ticket"
	KindReceipt Kind = "receipt"
)

type BookingSource interface {
	GetAny(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

type ItemLookup interface {
	Lookup(ctx context.Context, kind catalog.Kind, id uuid.UUID) (*catalog.Item, error)
}

// Document is a rendered PDF.
type Document struct {
	Filename string
	Content  []byte
}

type Service interface {
	Ticket(ctx context.Context, s *session.Session, bookingID uuid.UUID) (*Document, error)
	Receipt(ctx context.Context, s *session.Session, bookingID uuid.UUID) (*Document, error)
}

type service struct {
	bookings BookingSource
	items    ItemLookup
	log      *logger.Logger
	now      func() time.Time
}

func NewService(source BookingSource, items ItemLookup, log *logger.Logger) Service {
	return &service{bookings: source, items: items, log: log, now: time.Now}
}

// docData is everything printed on either document.
type docData struct {
	booking *bookings.Booking
	payment *payments.Payment
	title   string
}

func (s *service) load(ctx context.Context, sess *session.Session, id uuid.UUID) (*docData, error) {
	sess, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetAny(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != sess.UserID && sess.Role != string(users.RoleAdmin) {
		// do not reveal that the booking exists
		return nil, apperrors.NotFound("booking")
	}

	d := &docData{booking: b, payment: b.Payment(), title: titleFor(b.BookingType)}
	if kind, ok := catalog.ParseKind(string(b.BookingType)); ok && s.items != nil {
		item, err := s.items.Lookup(ctx, kind, b.ItemID)
		if err == nil {
			d.title = item.Title
		} else {
			s.log.WarnContext(ctx, "receipt item lookup failed", "booking_id", b.ID.String(), "error", err)
		}
	}
	return d, nil
}

func (s *service) Ticket(ctx context.Context, sess *session.Session, bookingID uuid.UUID) (*Document, error) {
	d, err := s.load(ctx, sess, bookingID)
	if err != nil {
		return nil, err
	}
	content, err := renderTicket(d)
	if err != nil {
		return nil, fmt.Errorf("render ticket: %w", err)
	}
	return &Document{Filename: filename("TICKET", d.booking.ID), Content: content}, nil
}

func (s *service) Receipt(ctx context.Context, sess *session.Session, bookingID uuid.UUID) (*Document, error) {
	d, err := s.load(ctx, sess, bookingID)
	if err != nil {
		return nil, err
	}
	if d.payment == nil {
		return nil, apperrors.NotFound("payment")
	}
	content, err := renderReceipt(d, s.now())
	if err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return &Document{Filename: filename("RECEIPT", d.booking.ID), Content: content}, nil
}

func renderTicket(d *docData) ([]byte, error) {
	b := d.booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking        : %s", b.ID),
		fmt.Sprintf("Type           : %s", strings.ReplaceAll(string(b.BookingType), "_", " ")),
		fmt.Sprintf("Item           : %s", safe(d.title, "-")),
		fmt.Sprintf("Seats          : %s", safe(strings.Join(b.Seats(), ", "), "-")),
		fmt.Sprintf("Travel date    : %s", formatDate(b.TravelDate)),
		fmt.Sprintf("Booked on      : %s", b.BookingDate.Format("2006-01-02 15:04")),
		fmt.Sprintf("Status         : %s", strings.ToUpper(string(b.TicketStatus))),
	}
	if d.payment != nil {
		lines = append(lines, fmt.Sprintf("Transaction    : %s", d.payment.TransactionID))
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	if b.TicketStatus != bookings.StatusBooked {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, "This ticket is no longer valid.")
		pdf.Ln(8)
	}
	return output(pdf)
}

func renderReceipt(d *docData, issued time.Time) ([]byte, error) {
	b, p := d.booking, d.payment
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Receipt no : RCP-"+p.TransactionID)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued     : "+issued.UTC().Format("2006-01-02 15:04"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("%s (%s) seats %s", safe(d.title, "-"), formatDate(b.TravelDate), safe(strings.Join(b.Seats(), ", "), "-"))
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(2)

	pdf.Cell(0, 6, "Subtotal  : "+b.Subtotal.StringFixed(2))
	pdf.Ln(6)
	if b.CouponCode != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Discount  : -%s (%s)", b.Subtotal.Sub(b.TotalAmount).StringFixed(2), *b.CouponCode))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Method    : "+methodLabel(p))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Status    : "+strings.ToUpper(string(p.PaymentStatus)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total paid: "+p.Amount.StringFixed(2))
	pdf.Ln(12)
	return output(pdf)
}

func methodLabel(p *payments.Payment) string {
	label := strings.ReplaceAll(string(p.PaymentMethod), "_", " ")
	if p.Detail == nil {
		return label
	}
	switch {
	case p.Detail.CardLastFour != nil:
		return label + " ending " + *p.Detail.CardLastFour
	case p.Detail.UPIID != nil:
		return label + " " + *p.Detail.UPIID
	case p.Detail.AccountMasked != nil:
		return label + " " + *p.Detail.AccountMasked
	}
	return label
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func titleFor(t bookings.BookingType) string {
	if t == bookings.TypePremiumService {
		return "Premium membership"
	}
	return string(t)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func safe(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

func filename(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s_%s.pdf", prefix, strings.ToUpper(id.String()[:8]))
}
