package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
)

// Mailer delivers one rendered email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// RecipientResolver finds the address of a user when the event does not carry one.
type RecipientResolver interface {
	Email(ctx context.Context, userID uuid.UUID) (string, error)
}

type ResolverFunc func(ctx context.Context, userID uuid.UUID) (string, error)

func (f ResolverFunc) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	return f(ctx, userID)
}

// NewMailer returns an SMTP mailer, or a logging one when no SMTP host is configured.
func NewMailer(cfg config.EmailConfig, log *logger.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{log: log}
	}
	return &SMTPMailer{cfg: cfg}
}

type SMTPMailer struct {
	cfg config.EmailConfig
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUsername, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}
	msg := buildMessage(m.cfg.FromName, m.cfg.FromEmail, to, subject, htmlBody, textBody, time.Now())

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := client.Mail(m.cfg.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

func buildMessage(fromName, fromEmail, to, subject, htmlBody, textBody string, at time.Time) []byte {
	boundary := "boundary_" + strconv.FormatInt(at.UnixNano(), 10)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", at.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	if textBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", boundary, textBody)
	}
	if htmlBody != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", boundary, htmlBody)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	log *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, _, textBody string) error {
	m.log.InfoContext(ctx, "email (not sent, smtp disabled)", "to", to, "subject", subject, "body", textBody)
	return nil
}

var emailTemplate = template.Must(template.New("booking").Parse(`
<h2>{{.Heading}}</h2>
<p>{{.Lead}}</p>
<table>
  <tr><td>Booking</td><td><strong>{{.BookingID}}</strong></td></tr>
  {{if .Item}}<tr><td>Item</td><td>{{.Item}}</td></tr>{{end}}
  {{if .Seats}}<tr><td>Seats</td><td>{{.Seats}}</td></tr>{{end}}
  {{if .TravelDate}}<tr><td>Date</td><td>{{.TravelDate}}</td></tr>{{end}}
  <tr><td>Amount</td><td>{{.Amount}}</td></tr>
  {{if .TransactionID}}<tr><td>Transaction</td><td>{{.TransactionID}}</td></tr>{{end}}
</table>
<p>Thank you for travelling with TravelHub.</p>
`))

type emailView struct {
	Heading       string
	Lead          string
	BookingID     string
	Item          string
	Seats         string
	TravelDate    string
	Amount        string
	TransactionID string
}

// Render builds the subject and bodies for an event.
func Render(e *BookingEvent) (subject, htmlBody, textBody string, err error) {
	v := emailView{
		BookingID:     e.BookingID.String(),
		Item:          e.ItemTitle,
		Seats:         strings.Join(e.SeatNumbers, ", "),
		Amount:        e.Amount.StringFixed(2),
		TransactionID: e.TransactionID,
	}
	if v.Item == "" {
		v.Item = strings.ReplaceAll(e.BookingType, "_", " ")
	}
	if e.TravelDate != nil {
		v.TravelDate = e.TravelDate.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}

	switch e.Type {
	case EventBookingCreated:
		subject, v.Heading, v.Lead = "Booking confirmed", "Your booking is confirmed", "We have reserved the following for you."
	case EventBookingCancelled:
		subject, v.Heading, v.Lead = "Booking cancelled", "Your booking was cancelled", "The booking below has been cancelled."
	case EventBookingExpired:
		subject, v.Heading, v.Lead = "Booking expired", "Your booking expired", "No payment was received in time, so the booking below has expired."
	case EventPaymentCompleted:
		subject, v.Heading, v.Lead = "Payment received", "Payment received", "Your payment was captured successfully."
	case EventPaymentRefunded:
		subject, v.Heading, v.Lead = "Payment refunded", "Your payment was refunded", "The payment below has been refunded and the booking cancelled."
	default:
		return "", "", "", fmt.Errorf("no email for event type %q", e.Type)
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, v); err != nil {
		return "", "", "", fmt.Errorf("render email: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\n%s\n\nBooking: %s\nItem: %s\n", v.Heading, v.Lead, v.BookingID, v.Item)
	if v.Seats != "" {
		fmt.Fprintf(&text, "Seats: %s\n", v.Seats)
	}
	if v.TravelDate != "" {
		fmt.Fprintf(&text, "Date: %s\n", v.TravelDate)
	}
	fmt.Fprintf(&text, "Amount: %s\n", v.Amount)
	if v.TransactionID != "" {
		fmt.Fprintf(&text, "Transaction: %s\n", v.TransactionID)
	}
	return "TravelHub: " + subject, buf.String(), text.String(), nil
}

// EmailNotifier turns booking events into emails, retrying delivery with exponential backoff.
type EmailNotifier struct {
	mailer     Mailer
	resolver   RecipientResolver
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func NewEmailNotifier(mailer Mailer, resolver RecipientResolver, cfg config.EmailConfig, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		mailer:     mailer,
		resolver:   resolver,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		log:        log,
	}
}

func (n *EmailNotifier) Handle(ctx context.Context, e *BookingEvent) error {
	to := e.RecipientEmail
	if to == "" && n.resolver != nil {
		email, err := n.resolver.Email(ctx, e.UserID)
		if err != nil {
			return fmt.Errorf("resolve recipient: %w", err)
		}
		to = email
	}
	if to == "" {
		n.log.WarnContext(ctx, "booking event has no recipient", "event_id", e.ID.String(), "user_id", e.UserID.String())
		return nil
	}

	subject, htmlBody, textBody, err := Render(e)
	if err != nil {
		return err
	}

	for attempt := 0; ; attempt++ {
		err = n.mailer.Send(ctx, to, subject, htmlBody, textBody)
		if err == nil {
			return nil
		}
		if attempt >= n.maxRetries {
			return fmt.Errorf("send email after %d attempts: %w", attempt+1, err)
		}

		delay := n.backoff * time.Duration(1<<attempt)
		n.log.WarnContext(ctx, "email delivery failed, retrying", "attempt", attempt+1, "delay", delay.String(), "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
