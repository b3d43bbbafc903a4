package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	bookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelhub_bookings_total",
			Help: "Booking state transitions by booking type",
		},
		[]string{"booking_type", "status"},
	)

	paymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelhub_payments_total",
			Help: "Payment records written by method and status",
		},
		[]string{"payment_method", "status"},
	)

	couponRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelhub_coupon_redemptions_total",
			Help: "Coupon apply/redeem attempts by result",
		},
		[]string{"result"},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "travelhub_seat_conflicts_total",
			Help: "Seat holds or select-and-mark writes rejected because a seat was taken",
		},
	)

	activeHolds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travelhub_active_seat_holds",
			Help: "Seat holds created minus holds released by this process",
		},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelhub_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func BookingTransition(bookingType, status string) {
	bookingsTotal.WithLabelValues(bookingType, status).Inc()
}

func PaymentRecorded(method, status string) {
	paymentsTotal.WithLabelValues(method, status).Inc()
}

// CouponResult result is one of applied, redeemed, rejected.
func CouponResult(result string) {
	couponRedemptions.WithLabelValues(result).Inc()
}

func SeatConflict() {
	seatConflicts.Inc()
}

func HoldCreated() {
	activeHolds.Inc()
}

func HoldReleased() {
	activeHolds.Dec()
}

// Middleware observes request latency labelled by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
