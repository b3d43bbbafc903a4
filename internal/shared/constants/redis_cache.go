package constants

import (
	"fmt"
	"time"
)

// Redis keys follow travelhub:{module}:{purpose}:{identifier}.

const (
	TTL_STATIC_LONG    = 24 * time.Hour
	TTL_SEMI_STATIC    = time.Hour
	TTL_SEMI_QUICK     = 15 * time.Minute
	TTL_DYNAMIC_SHORT  = 5 * time.Minute
	TTL_DYNAMIC_QUICK  = 2 * time.Minute
	TTL_REALTIME_SHORT = 30 * time.Second
)

const (
	CACHE_PREFIX = "travelhub"
)

// ================== CATALOG ==================

const (
	CACHE_KEY_CATALOG_LIST  = CACHE_PREFIX + ":catalog:list:" // + vertical:hash(filter)
	CACHE_KEY_CURRENT_EVENT = CACHE_PREFIX + ":catalog:events:current"

	TTL_CATALOG_LIST  = TTL_SEMI_QUICK
	TTL_CURRENT_EVENT = TTL_DYNAMIC_SHORT
)

// ================== SEATS ==================

const (
	CACHE_KEY_SEAT_LAYOUT      = CACHE_PREFIX + ":seats:layout:"     // + vertical:item-id
	CACHE_KEY_EVENT_SEATS      = CACHE_PREFIX + ":seats:event:"      // + event-id
	REDIS_KEY_HOLD             = CACHE_PREFIX + ":seats:hold:"       // + hold-id
	REDIS_KEY_HOLD_SEATS       = CACHE_PREFIX + ":seats:hold_seats:" // + hold-id
	REDIS_KEY_SEAT_HOLD        = CACHE_PREFIX + ":seats:seat_hold:"  // + event-id:seat-id
	REDIS_KEY_USER_EVENT_HOLDS = CACHE_PREFIX + ":seats:user_holds:" // + user-id

	TTL_EVENT_SEATS = TTL_REALTIME_SHORT
)

// ================== BOOKINGS ==================

const (
	CACHE_KEY_BOOKING_HISTORY = CACHE_PREFIX + ":bookings:history:user:" // + user-id
	REDIS_KEY_IDEMPOTENCY     = CACHE_PREFIX + ":checkout:idempotency:"  // + user-id:key
	REDIS_KEY_REFUND_LOCK     = CACHE_PREFIX + ":admin:refund:lock:"     // + payment-id
)

// ================== ADMIN ==================

const (
	CACHE_KEY_ADMIN_STATS = CACHE_PREFIX + ":admin:stats"

	TTL_ADMIN_STATS = TTL_DYNAMIC_QUICK
)

func BuildCatalogListKey(vertical, filterHash string) string {
	return CACHE_KEY_CATALOG_LIST + vertical + ":" + filterHash
}

func BuildSeatLayoutKey(vertical, itemID string) string {
	return CACHE_KEY_SEAT_LAYOUT + vertical + ":" + itemID
}

func BuildEventSeatsKey(eventID string) string {
	return CACHE_KEY_EVENT_SEATS + eventID
}

func BuildHoldKey(holdID string) string {
	return REDIS_KEY_HOLD + holdID
}

func BuildHoldSeatsKey(holdID string) string {
	return REDIS_KEY_HOLD_SEATS + holdID
}

func BuildSeatHoldKey(eventID, seatID string) string {
	return REDIS_KEY_SEAT_HOLD + eventID + ":" + seatID
}

func BuildUserHoldsKey(userID string) string {
	return REDIS_KEY_USER_EVENT_HOLDS + userID
}

func BuildHistoryKey(userID string) string {
	return CACHE_KEY_BOOKING_HISTORY + userID
}

func BuildIdempotencyKey(userID, key string) string {
	return fmt.Sprintf("%s%s:%s", REDIS_KEY_IDEMPOTENCY, userID, key)
}

func BuildRefundLockKey(paymentID string) string {
	return REDIS_KEY_REFUND_LOCK + paymentID
}
