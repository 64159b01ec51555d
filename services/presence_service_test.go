package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"huddle_server/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRedis implements RedisAPI over an in-memory hash map.
type stubRedis struct {
	hashes map[string]map[string]string
	err    error
}

func newStubRedis() *stubRedis {
	return &stubRedis{hashes: make(map[string]map[string]string)}
}

func (s *stubRedis) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	for i := 0; i+1 < len(values); i += 2 {
		field := values[i].(string)
		switch v := values[i+1].(type) {
		case string:
			s.hashes[key][field] = v
		case []byte:
			s.hashes[key][field] = string(v)
		}
	}
	return redis.NewIntResult(1, nil)
}

func (s *stubRedis) HDel(_ context.Context, key string, fields ...string) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	for _, f := range fields {
		delete(s.hashes[key], f)
	}
	return redis.NewIntResult(int64(len(fields)), nil)
}

func (s *stubRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	if s.err != nil {
		return redis.NewMapStringStringResult(nil, s.err)
	}
	return redis.NewMapStringStringResult(s.hashes[key], nil)
}

func fixedClock(millis int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(millis) }
}

func TestSetTypingStoresRecord(t *testing.T) {
	store := newStubRedis()
	ps := &PresenceService{Redis: store, Now: fixedClock(10_000)}

	require.NoError(t, ps.SetTyping(context.Background(), "g1", "alice", "Alice", true))

	raw, ok := store.hashes[models.TypingKey("g1")]["alice"]
	require.True(t, ok)
	var record models.TypingPresence
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.Equal(t, "Alice", record.UserName)
	assert.Equal(t, int64(10_000), record.Timestamp)
}

func TestSetTypingFalseDeletes(t *testing.T) {
	store := newStubRedis()
	ps := &PresenceService{Redis: store, Now: fixedClock(10_000)}

	require.NoError(t, ps.SetTyping(context.Background(), "g1", "alice", "Alice", true))
	require.NoError(t, ps.SetTyping(context.Background(), "g1", "alice", "Alice", false))

	_, ok := store.hashes[models.TypingKey("g1")]["alice"]
	assert.False(t, ok)
}

func TestSetTypingUnavailableStore(t *testing.T) {
	store := newStubRedis()
	store.err = assert.AnError
	ps := &PresenceService{Redis: store, Now: fixedClock(10_000)}

	err := ps.SetTyping(context.Background(), "g1", "alice", "Alice", true)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestListTypingExcludesExpired(t *testing.T) {
	store := newStubRedis()
	ps := &PresenceService{Redis: store, Now: fixedClock(10_000)}

	require.NoError(t, ps.SetTyping(context.Background(), "g1", "alice", "Alice", true))

	// Still visible inside the window without any explicit stop.
	ps.Now = fixedClock(10_000 + models.TypingWindowMillis - 1)
	typing, err := ps.ListTyping(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, typing, 1)
	assert.Equal(t, "alice", typing[0].UserID)

	// Exactly at the window boundary the record no longer counts.
	ps.Now = fixedClock(10_000 + models.TypingWindowMillis)
	typing, err = ps.ListTyping(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, typing)

	// The row itself is never deleted by reads.
	_, ok := store.hashes[models.TypingKey("g1")]["alice"]
	assert.True(t, ok)
}

func TestListTypingSkipsMalformedRecords(t *testing.T) {
	store := newStubRedis()
	store.hashes[models.TypingKey("g1")] = map[string]string{"broken": "{not json"}
	ps := &PresenceService{Redis: store, Now: fixedClock(10_000)}

	typing, err := ps.ListTyping(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestFilterTypingWindow(t *testing.T) {
	records := []models.TypingPresence{
		{UserID: "fresh", Timestamp: 9_000},
		{UserID: "boundary", Timestamp: 10_000 - models.TypingWindowMillis},
		{UserID: "stale", Timestamp: 1_000},
	}

	valid := filterTyping(records, 10_000)
	require.Len(t, valid, 1)
	assert.Equal(t, "fresh", valid[0].UserID)
}
