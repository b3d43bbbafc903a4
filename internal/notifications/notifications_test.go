package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"travelhub/internal/shared/config"
	"travelhub/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(t EventType) *BookingEvent {
	e := NewBookingEvent(t, uuid.New(), uuid.New())
	e.BookingType = "event"
	e.ItemTitle = "Coldplay Live"
	e.SeatNumbers = []string{"A1", "A2"}
	e.Amount = decimal.NewFromInt(1080)
	e.TransactionID = "TXNABCDEF1234"
	return e
}

func TestKafkaPublisherSendsKeyedEvent(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	evt := sampleEvent(EventBookingCreated)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		decoded, err := DecodeBookingEvent(val)
		if err != nil {
			return err
		}
		if decoded.BookingID != evt.BookingID || decoded.Type != EventBookingCreated {
			return errors.New("unexpected payload")
		}
		return nil
	})

	pub := NewKafkaPublisher(producer, "travelhub.booking-events", 3, logger.Discard())
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherBreakerOpens(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisher(producer, "travelhub.booking-events", 2, logger.Discard())
	ctx := context.Background()

	assert.ErrorIs(t, pub.Publish(ctx, sampleEvent(EventBookingCreated)), sarama.ErrOutOfBrokers)
	assert.ErrorIs(t, pub.Publish(ctx, sampleEvent(EventBookingCreated)), sarama.ErrOutOfBrokers)
	// the breaker is open: the producer is not called again
	assert.ErrorIs(t, pub.Publish(ctx, sampleEvent(EventBookingCreated)), ErrPublisherOpen)
	require.NoError(t, pub.Close())
}

func TestNewPublisherDisabled(t *testing.T) {
	pub, err := NewPublisher(config.KafkaConfig{Enabled: false}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, pub)
}

func TestRender(t *testing.T) {
	for _, typ := range []EventType{EventBookingCreated, EventBookingCancelled, EventBookingExpired, EventPaymentCompleted, EventPaymentRefunded} {
		t.Run(string(typ), func(t *testing.T) {
			subject, html, text, err := Render(sampleEvent(typ))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(subject, "TravelHub: "))
			assert.Contains(t, html, "Coldplay Live")
			assert.Contains(t, text, "Seats: A1, A2")
			assert.Contains(t, text, "Amount: 1080.00")
		})
	}

	_, _, _, err := Render(sampleEvent("booking.unknown"))
	assert.Error(t, err)
}

func TestRenderEscapesHTML(t *testing.T) {
	e := sampleEvent(EventBookingCreated)
	e.ItemTitle = "<script>alert(1)</script>"
	_, html, _, err := Render(e)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

type flakyMailer struct {
	failures int
	calls    int
	to       string
}

func (m *flakyMailer) Send(_ context.Context, to, _, _, _ string) error {
	m.calls++
	m.to = to
	if m.calls <= m.failures {
		return errors.New("smtp: 421 try again later")
	}
	return nil
}

func TestEmailNotifierRetries(t *testing.T) {
	cfg := config.EmailConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		m := &flakyMailer{failures: 2}
		n := NewEmailNotifier(m, nil, cfg, logger.Discard())
		e := sampleEvent(EventBookingCreated)
		e.RecipientEmail = "asha@example.com"

		require.NoError(t, n.Handle(ctx, e))
		assert.Equal(t, 3, m.calls)
		assert.Equal(t, "asha@example.com", m.to)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		m := &flakyMailer{failures: 10}
		n := NewEmailNotifier(m, nil, cfg, logger.Discard())
		e := sampleEvent(EventBookingCancelled)
		e.RecipientEmail = "asha@example.com"

		assert.Error(t, n.Handle(ctx, e))
		assert.Equal(t, 3, m.calls)
	})

	t.Run("resolves missing recipient", func(t *testing.T) {
		m := &flakyMailer{}
		resolver := ResolverFunc(func(context.Context, uuid.UUID) (string, error) { return "ravi@example.com", nil })
		n := NewEmailNotifier(m, resolver, cfg, logger.Discard())

		require.NoError(t, n.Handle(ctx, sampleEvent(EventPaymentRefunded)))
		assert.Equal(t, "ravi@example.com", m.to)
	})

	t.Run("no recipient is skipped", func(t *testing.T) {
		m := &flakyMailer{}
		n := NewEmailNotifier(m, nil, cfg, logger.Discard())

		require.NoError(t, n.Handle(ctx, sampleEvent(EventBookingExpired)))
		assert.Zero(t, m.calls)
	})
}

type handlerFunc func(context.Context, *BookingEvent) error

func (f handlerFunc) Handle(ctx context.Context, e *BookingEvent) error { return f(ctx, e) }

func TestGroupHandlerProcess(t *testing.T) {
	ctx := context.Background()
	payload, err := sampleEvent(EventBookingCreated).ToJSON()
	require.NoError(t, err)

	ok := &groupHandler{handler: handlerFunc(func(context.Context, *BookingEvent) error { return nil }), log: logger.Discard()}
	failing := &groupHandler{handler: handlerFunc(func(context.Context, *BookingEvent) error { return errors.New("boom") }), log: logger.Discard()}

	assert.True(t, ok.process(ctx, &sarama.ConsumerMessage{Value: payload}))
	assert.False(t, failing.process(ctx, &sarama.ConsumerMessage{Value: payload}))
	assert.True(t, failing.process(ctx, &sarama.ConsumerMessage{Value: []byte("{not json")}))
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
	reset  []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) ResetOffset(_ string, _ int32, offset int64, _ string) {
	s.reset = append(s.reset, offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

func TestConsumeClaimStopsAtFailedOffset(t *testing.T) {
	failedID := uuid.New()
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	for i, id := range []uuid.UUID{uuid.New(), failedID, uuid.New()} {
		e := sampleEvent(EventBookingCreated)
		e.ID = id
		payload, err := e.ToJSON()
		require.NoError(t, err)
		claim.msgs <- &sarama.ConsumerMessage{Topic: "booking-events", Partition: 2, Offset: int64(10 + i), Value: payload}
	}
	close(claim.msgs)

	var handled []uuid.UUID
	h := &groupHandler{
		handler: handlerFunc(func(_ context.Context, e *BookingEvent) error {
			handled = append(handled, e.ID)
			if e.ID == failedID {
				return errors.New("smtp down")
			}
			return nil
		}),
		log:   logger.Discard(),
		delay: time.Millisecond,
	}
	session := &fakeSession{ctx: context.Background()}

	require.NoError(t, h.ConsumeClaim(session, claim))
	assert.Equal(t, []int64{10}, session.marked)
	assert.Equal(t, []int64{11}, session.reset)
	assert.Len(t, handled, 2)
	assert.Len(t, claim.msgs, 1, "message after the failure stays unread")
}

func TestBuildMessage(t *testing.T) {
	at := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	msg := string(buildMessage("TravelHub", "noreply@travelhub.local", "asha@example.com", "Booking confirmed", "<p>hi</p>", "hi", at))

	assert.Contains(t, msg, "From: TravelHub <noreply@travelhub.local>\r\n")
	assert.Contains(t, msg, "To: asha@example.com\r\n")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"))
}
