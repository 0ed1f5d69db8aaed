package presence

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps typing signals in a per-conversation hash of user id to
// last-keystroke epoch millis. Staleness is still evaluated by the reader;
// the hash TTL below is garbage collection, not the expiry mechanism.
type RedisStore struct {
	client *redis.Client
}

const redisHashTTL = 30 * time.Second

func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("presence: parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("presence: ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

var _ Store = (*RedisStore)(nil)

func typingKey(conversationID string) string {
	return "typing:" + conversationID
}

func (s *RedisStore) SetTyping(ctx context.Context, conversationID, userID string, at time.Time) error {
	key := typingKey(conversationID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, userID, at.UnixMilli())
	pipe.Expire(ctx, key, redisHashTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) ClearTyping(ctx context.Context, conversationID, userID string) error {
	return s.client.HDel(ctx, typingKey(conversationID), userID).Err()
}

func (s *RedisStore) ActiveTypers(ctx context.Context, conversationID string, now time.Time) ([]string, error) {
	entries, err := s.client.HGetAll(ctx, typingKey(conversationID)).Result()
	if err != nil {
		return nil, err
	}

	typers := make([]string, 0, len(entries))
	for userID, value := range entries {
		millis, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		if now.Sub(time.UnixMilli(millis)) < StaleAfter {
			typers = append(typers, userID)
		}
	}
	sort.Strings(typers)
	return typers, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
