package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"huddle_server/models"
	"huddle_server/pubsub"

	"github.com/redis/go-redis/v9"
)

// RedisAPI is the slice of the Redis client used for typing presence.
type RedisAPI interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// PresenceService tracks ephemeral typing indicators in a Redis hash per
// group. The store never expires entries; validity is a read-time filter
// over the record timestamp, re-evaluated on every read.
type PresenceService struct {
	Redis  RedisAPI
	Events *pubsub.Hub
	Now    func() time.Time // Injectable clock for tests; nil means time.Now
}

// InitializeRedisClient initializes the Redis client
func InitializeRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	return client
}

func (ps *PresenceService) now() time.Time {
	if ps.Now != nil {
		return ps.Now()
	}
	return time.Now()
}

// SetTyping upserts the (groupId, userId) typing record when isTyping is
// true and deletes it otherwise. Deletion on stop-typing is the only eager
// cleanup.
func (ps *PresenceService) SetTyping(ctx context.Context, groupID, userID, userName string, isTyping bool) error {
	key := models.TypingKey(groupID)

	if isTyping {
		record := models.TypingPresence{
			GroupID:   groupID,
			UserID:    userID,
			UserName:  userName,
			Timestamp: ps.now().UnixMilli(),
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal typing record: %w", err)
		}
		if err := ps.Redis.HSet(ctx, key, userID, payload).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	} else {
		if err := ps.Redis.HDel(ctx, key, userID).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if ps.Events != nil {
		ps.Events.Publish(pubsub.Event{
			Topic: pubsub.TypingTopic(groupID),
			Kind:  pubsub.KindUpdated,
		})
	}
	return nil
}

// ListTyping returns the group's currently valid typing records. Rows older
// than the typing window are excluded even though they still exist in the
// store.
func (ps *PresenceService) ListTyping(ctx context.Context, groupID string) ([]models.TypingPresence, error) {
	raw, err := ps.Redis.HGetAll(ctx, models.TypingKey(groupID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	records := make([]models.TypingPresence, 0, len(raw))
	for userID, payload := range raw {
		var record models.TypingPresence
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			log.Printf("❌ Dropping malformed typing record for %s in group %s: %v", userID, groupID, err)
			continue
		}
		records = append(records, record)
	}

	valid := filterTyping(records, ps.now().UnixMilli())
	sort.Slice(valid, func(i, j int) bool { return valid[i].UserID < valid[j].UserID })
	return valid, nil
}

// filterTyping keeps records satisfying now − timestamp < the typing
// window.
func filterTyping(records []models.TypingPresence, nowMillis int64) []models.TypingPresence {
	valid := make([]models.TypingPresence, 0, len(records))
	for _, r := range records {
		if nowMillis-r.Timestamp < models.TypingWindowMillis {
			valid = append(valid, r)
		}
	}
	return valid
}
