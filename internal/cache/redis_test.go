package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/indigoair/indigo/internal/clock"
	"github.com/indigoair/indigo/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRedisCache_Flights(t *testing.T) {
	ctx := context.Background()
	db, mockRedis := redismock.NewClientMock()
	c := NewRedisCache(db, time.Minute)

	mockRedis.ExpectGet("cache:flights").RedisNil()
	flights, err := c.GetFlights(ctx)
	assert.NoError(t, err)
	assert.Nil(t, flights)

	want := []domain.Flight{{ID: "F1", FlightNumber: "6E-101"}}
	payload, _ := json.Marshal(want)
	mockRedis.ExpectSet("cache:flights", payload, time.Minute).SetVal("OK")
	require.NoError(t, c.SetFlights(ctx, want))

	mockRedis.ExpectGet("cache:flights").SetVal(string(payload))
	flights, err = c.GetFlights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "6E-101", flights[0].FlightNumber)

	mockRedis.ExpectDel("cache:flights").SetVal(1)
	require.NoError(t, c.InvalidateFlights(ctx))

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestRedisHoldStore_Create(t *testing.T) {
	ctx := context.Background()
	db, mockRedis := redismock.NewClientMock()
	store := NewRedisHoldStore(db, clock.Fake(epoch))

	hold := domain.SeatHold{HoldID: "H1", FlightID: "F1", SeatNumber: "12A", PrincipalID: "P1",
		ExpiresAt: epoch.Add(5 * time.Minute), CreatedAt: epoch}
	payload, _ := json.Marshal(hold)
	keys := []string{"hold:flight:F1:seat:12A", holdExpiryIndexKey, holdDataKey}
	args := []interface{}{string(payload), "300000", strconv.FormatInt(hold.ExpiresAt.UnixMilli(), 10), "H1"}

	mockRedis.ExpectEvalSha(createHoldScript.Hash(), keys, args...).SetVal(int64(1))
	require.NoError(t, store.Create(ctx, hold))

	mockRedis.ExpectEvalSha(createHoldScript.Hash(), keys, args...).SetVal(int64(0))
	assert.ErrorIs(t, store.Create(ctx, hold), domain.ErrSeatAlreadyHeld)

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestRedisHoldStore_CreateRejectsPastExpiry(t *testing.T) {
	db, _ := redismock.NewClientMock()
	store := NewRedisHoldStore(db, clock.Fake(epoch))

	err := store.Create(context.Background(), domain.SeatHold{HoldID: "H1", ExpiresAt: epoch})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRedisHoldStore_Get(t *testing.T) {
	ctx := context.Background()
	db, mockRedis := redismock.NewClientMock()
	clk := clock.Fake(epoch)
	store := NewRedisHoldStore(db, clk)

	hold := domain.SeatHold{HoldID: "H1", FlightID: "F1", SeatNumber: "12A", PrincipalID: "P1", ExpiresAt: epoch.Add(time.Minute)}
	payload, _ := json.Marshal(hold)

	mockRedis.ExpectGet("hold:flight:F1:seat:12A").SetVal(string(payload))
	got, err := store.Get(ctx, "F1", "12A")
	require.NoError(t, err)
	assert.Equal(t, "P1", got.PrincipalID)

	mockRedis.ExpectGet("hold:flight:F1:seat:12B").RedisNil()
	_, err = store.Get(ctx, "F1", "12B")
	assert.ErrorIs(t, err, domain.ErrHoldNotFoundOrExpired)

	// Redis may still hold the key for a moment after the deadline.
	clk.Advance(time.Minute)
	mockRedis.ExpectGet("hold:flight:F1:seat:12A").SetVal(string(payload))
	_, err = store.Get(ctx, "F1", "12A")
	assert.ErrorIs(t, err, domain.ErrHoldNotFoundOrExpired)

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestRedisHoldStore_Delete(t *testing.T) {
	ctx := context.Background()
	db, mockRedis := redismock.NewClientMock()
	store := NewRedisHoldStore(db, clock.Fake(epoch))
	keys := []string{"hold:flight:F1:seat:12A", holdExpiryIndexKey, holdDataKey}

	mockRedis.ExpectEvalSha(deleteHoldScript.Hash(), keys, "H1").SetVal(int64(1))
	deleted, err := store.Delete(ctx, "F1", "12A", "H1")
	require.NoError(t, err)
	assert.True(t, deleted)

	mockRedis.ExpectEvalSha(deleteHoldScript.Hash(), keys, "H1").SetVal(int64(0))
	deleted, err = store.Delete(ctx, "F1", "12A", "H1")
	require.NoError(t, err)
	assert.False(t, deleted)

	mockRedis.ExpectEvalSha(deleteHoldScript.Hash(), keys, "H1").SetErr(errors.New("connection refused"))
	_, err = store.Delete(ctx, "F1", "12A", "H1")
	assert.Error(t, err)

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}

func TestRedisHoldStore_Expired(t *testing.T) {
	ctx := context.Background()
	db, mockRedis := redismock.NewClientMock()
	store := NewRedisHoldStore(db, clock.Fake(epoch))

	hold := domain.SeatHold{HoldID: "H1", FlightID: "F1", SeatNumber: "12A", PrincipalID: "P1", ExpiresAt: epoch}
	payload, _ := json.Marshal(hold)
	rng := &redis.ZRangeBy{Min: "-inf", Max: strconv.FormatInt(epoch.UnixMilli(), 10)}

	mockRedis.ExpectZRangeByScore(holdExpiryIndexKey, rng).SetVal([]string{"H1", "H2"})
	mockRedis.ExpectHMGet(holdDataKey, "H1", "H2").SetVal([]interface{}{string(payload), nil})

	holds, err := store.Expired(ctx, epoch)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, "H1", holds[0].HoldID)

	mockRedis.ExpectZRangeByScore(holdExpiryIndexKey, rng).SetVal([]string{})
	holds, err = store.Expired(ctx, epoch)
	require.NoError(t, err)
	assert.Empty(t, holds)

	assert.NoError(t, mockRedis.ExpectationsWereMet())
}
