package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/indigoair/indigo/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	holdExpiryIndexKey = "holds:expiry"
	holdDataKey        = "holds:data"
)

// The hold key carries a PX TTL so Redis drops it on expiry by itself. The
// expiry index and data hash remember the hold until some instance sweeps
// it, which is how expiry is noticed for holds armed by another process.
var createHoldScript = redis.NewScript(`
if redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
	redis.call('ZADD', KEYS[2], ARGV[3], ARGV[4])
	redis.call('HSET', KEYS[3], ARGV[4], ARGV[1])
	return 1
end
return 0
`)

// Returns 1 when the caller removed the hold identified by ARGV[1], either
// by deleting the live key or, once the key has expired, by being the one
// that took it out of the expiry index.
var deleteHoldScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
local v = redis.call('GET', KEYS[1])
if not v then
	return removed
end
if cjson.decode(v).holdId == ARGV[1] then
	redis.call('DEL', KEYS[1])
	return 1
end
return 0
`)

// RedisHoldStore is a SeatHoldStore shared by every instance pointed at the
// same Redis. SET NX makes the at-most-one-hold check atomic across them.
type RedisHoldStore struct {
	client *redis.Client
	clock  clock.Clock
}

func NewRedisHoldStore(client *redis.Client, clk clock.Clock) *RedisHoldStore {
	return &RedisHoldStore{client: client, clock: clk}
}

func (s *RedisHoldStore) Create(ctx context.Context, hold domain.SeatHold) error {
	ttl := hold.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return domain.Validation("hold already expired")
	}
	payload, err := json.Marshal(hold)
	if err != nil {
		return err
	}

	created, err := createHoldScript.Run(ctx, s.client,
		[]string{holdKey(hold.FlightID, hold.SeatNumber), holdExpiryIndexKey, holdDataKey},
		string(payload),
		strconv.FormatInt(ttl.Milliseconds(), 10),
		strconv.FormatInt(hold.ExpiresAt.UnixMilli(), 10),
		hold.HoldID,
	).Int()
	if err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	if created == 0 {
		return domain.ErrSeatAlreadyHeld
	}
	return nil
}

func (s *RedisHoldStore) Get(ctx context.Context, flightID, seat string) (*domain.SeatHold, error) {
	data, err := s.client.Get(ctx, holdKey(flightID, seat)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrHoldNotFoundOrExpired
	}
	if err != nil {
		return nil, err
	}

	var hold domain.SeatHold
	if err := json.Unmarshal(data, &hold); err != nil {
		return nil, err
	}
	if hold.Expired(s.clock.Now()) {
		return nil, domain.ErrHoldNotFoundOrExpired
	}
	return &hold, nil
}

func (s *RedisHoldStore) Delete(ctx context.Context, flightID, seat, holdID string) (bool, error) {
	removed, err := deleteHoldScript.Run(ctx, s.client,
		[]string{holdKey(flightID, seat), holdExpiryIndexKey, holdDataKey},
		holdID,
	).Int()
	if err != nil {
		return false, fmt.Errorf("delete hold: %w", err)
	}
	return removed == 1, nil
}

func (s *RedisHoldStore) Expired(ctx context.Context, now time.Time) ([]domain.SeatHold, error) {
	ids, err := s.client.ZRangeByScore(ctx, holdExpiryIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	values, err := s.client.HMGet(ctx, holdDataKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	holds := make([]domain.SeatHold, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var hold domain.SeatHold
		if err := json.Unmarshal([]byte(raw), &hold); err != nil {
			return nil, err
		}
		holds = append(holds, hold)
	}
	return holds, nil
}

func holdKey(flightID, seat string) string {
	return fmt.Sprintf("hold:flight:%s:seat:%s", flightID, seat)
}

var _ repository.SeatHoldStore = (*RedisHoldStore)(nil)
