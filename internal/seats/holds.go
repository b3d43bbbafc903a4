package seats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// holdScript reserves every requested seat or none of them.
//
// KEYS[1] hold hash, KEYS[2] hold seat set, KEYS[3] user hold set, KEYS[4..] per-seat keys.
// ARGV[1] user id, ARGV[2] event id, ARGV[3] ttl seconds, ARGV[4] hold id, ARGV[5..] seat ids.
var holdScript = redis.NewScript(`
local owner = ARGV[1]
for i = 4, #KEYS do
	local cur = redis.call("GET", KEYS[i])
	if cur and string.sub(cur, 1, #owner + 1) ~= owner .. ":" then
		return {0, ARGV[i + 1]}
	end
end

local ttl = tonumber(ARGV[3])
redis.call("HSET", KEYS[1], "user_id", owner, "event_id", ARGV[2], "seat_count", #KEYS - 3)
redis.call("EXPIRE", KEYS[1], ttl)
for i = 4, #KEYS do
	redis.call("SET", KEYS[i], owner .. ":" .. ARGV[4], "EX", ttl)
	redis.call("SADD", KEYS[2], ARGV[i + 1])
end
redis.call("EXPIRE", KEYS[2], ttl)
redis.call("SADD", KEYS[3], ARGV[4])
redis.call("EXPIRE", KEYS[3], ttl)
return {1, "ok"}
`)

// releaseScript drops a hold. Seat keys already re-held by a newer hold are left alone.
//
// KEYS[1] hold hash, KEYS[2] hold seat set, KEYS[3] user hold set.
// ARGV[1] user id, ARGV[2] hold id, ARGV[3] seat key prefix.
var releaseScript = redis.NewScript(`
local owner = redis.call("HGET", KEYS[1], "user_id")
if not owner then
	return {0, "hold_not_found"}
end
if owner ~= ARGV[1] then
	return {0, "not_owner"}
end

local event_id = redis.call("HGET", KEYS[1], "event_id")
local seats = redis.call("SMEMBERS", KEYS[2])
local released = 0
for _, seat in ipairs(seats) do
	local key = ARGV[3] .. event_id .. ":" .. seat
	if redis.call("GET", key) == owner .. ":" .. ARGV[2] then
		redis.call("DEL", key)
		released = released + 1
	end
end
redis.call("SREM", KEYS[3], ARGV[2])
redis.call("DEL", KEYS[1], KEYS[2])
return {1, released}
`)

// HoldStore keeps short-lived seat holds in redis.
type HoldStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
}

func NewHoldStore(client redis.Cmdable, ttl time.Duration) *HoldStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &HoldStore{client: client, ttl: ttl, now: time.Now, newID: uuid.NewString}
}

func (h *HoldStore) Hold(ctx context.Context, userID, eventID uuid.UUID, seats []string) (*Hold, error) {
	if len(seats) == 0 {
		return nil, apperrors.Validation("seats", "select at least one seat")
	}

	holdID := h.newID()
	keys := []string{
		constants.BuildHoldKey(holdID),
		constants.BuildHoldSeatsKey(holdID),
		constants.BuildUserHoldsKey(userID.String()),
	}
	args := []interface{}{userID.String(), eventID.String(), int(h.ttl.Seconds()), holdID}
	for _, seat := range seats {
		keys = append(keys, constants.BuildSeatHoldKey(eventID.String(), seat))
		args = append(args, seat)
	}

	res, err := holdScript.Run(ctx, h.client, keys, args...).Slice()
	if err != nil {
		return nil, fmt.Errorf("seat hold script: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("seat hold script: unexpected reply %v", res)
	}
	if ok, _ := res[0].(int64); ok != 1 {
		seat, _ := res[1].(string)
		return nil, apperrors.SeatUnavailable("hold seats", fmt.Errorf("seat %s is held by another customer", seat))
	}

	return &Hold{
		ID:        holdID,
		UserID:    userID,
		EventID:   eventID,
		Seats:     seats,
		ExpiresAt: h.now().Add(h.ttl).UTC(),
	}, nil
}

// Release drops a hold owned by userID and returns the number of seats freed.
func (h *HoldStore) Release(ctx context.Context, userID uuid.UUID, holdID string) (int, error) {
	keys := []string{
		constants.BuildHoldKey(holdID),
		constants.BuildHoldSeatsKey(holdID),
		constants.BuildUserHoldsKey(userID.String()),
	}
	res, err := releaseScript.Run(ctx, h.client, keys, userID.String(), holdID, constants.REDIS_KEY_SEAT_HOLD).Slice()
	if err != nil {
		return 0, fmt.Errorf("seat release script: %w", err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("seat release script: unexpected reply %v", res)
	}
	if ok, _ := res[0].(int64); ok != 1 {
		return 0, apperrors.NotFound("hold")
	}
	n, _ := res[1].(int64)
	return int(n), nil
}

// Holders reports who currently holds each of the given seats. Unheld seats are omitted.
func (h *HoldStore) Holders(ctx context.Context, eventID uuid.UUID, seats []string) (map[string]uuid.UUID, error) {
	out := make(map[string]uuid.UUID)
	if len(seats) == 0 {
		return out, nil
	}

	keys := make([]string, len(seats))
	for i, seat := range seats {
		keys[i] = constants.BuildSeatHoldKey(eventID.String(), seat)
	}
	vals, err := h.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("seat holders: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		owner, _, _ := strings.Cut(s, ":")
		if id, err := uuid.Parse(owner); err == nil {
			out[seats[i]] = id
		}
	}
	return out, nil
}
