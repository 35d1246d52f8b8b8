package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisIntakeKey = "intake:rsvps"

// RedisIntake is the list-backed intake driver used when submissions are
// dispatched into Redis instead of the issue tracker. Entries stay on the
// list until a sync pass promotes them; MarkProcessed removes by value so a
// crashed sync never loses a payload.
type RedisIntake struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisIntake(client *redis.Client, logger *zap.Logger) *RedisIntake {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisIntake{client: client, logger: logger}
}

// Enqueue pushes an incoming RSVP payload onto the intake list. The dispatch
// endpoint calls this; sync drains it.
func (q *RedisIntake) Enqueue(ctx context.Context, entry IntakeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = q.client.RPush(ctx, redisIntakeKey, raw).Err(); err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}

	q.logger.Debug("enqueued intake entry", zap.String("entry_id", entry.ID))

	return nil
}

func (q *RedisIntake) ListPending(ctx context.Context) ([]IntakeEntry, error) {
	raws, err := q.client.LRange(ctx, redisIntakeKey, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}

	entries := make([]IntakeEntry, 0, len(raws))
	for _, raw := range raws {
		var entry IntakeEntry
		if err = json.Unmarshal([]byte(raw), &entry); err != nil {
			q.logger.Warn("skipping malformed intake entry", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (q *RedisIntake) MarkProcessed(ctx context.Context, entry IntakeEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	if err = q.client.LRem(ctx, redisIntakeKey, 1, raw).Err(); err != nil {
		return fmt.Errorf("%w -> %v", ErrUnavailable, err)
	}

	return nil
}

var _ IntakeQueue = (*RedisIntake)(nil)
