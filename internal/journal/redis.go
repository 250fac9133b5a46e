// Package journal keeps a capped, expiring log of the snapshots a client
// applied, so a finished or broken session can be replayed.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"example.com/goban-client/internal/protocol"
)

type Entry struct {
	SessionID  string            `json:"session_id"`
	ReceivedAt time.Time         `json:"received_at"`
	Snapshot   protocol.Snapshot `json:"snapshot"`
}

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	max int64
}

// NewRedis keeps at most max entries per game (0 means unbounded); each
// append refreshes the ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration, max int) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, max: int64(max)}
}

func (j *Redis) key(gameID string) string {
	return fmt.Sprintf("game:%s:snapshots", gameID)
}

func (j *Redis) Append(ctx context.Context, gameID string, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := j.key(gameID)
	pipe := j.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	if j.max > 0 {
		pipe.LTrim(ctx, key, -j.max, -1)
	}
	if j.ttl > 0 {
		pipe.Expire(ctx, key, j.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("journal append %s: %w", gameID, err)
	}
	return nil
}

// Load returns the journal oldest first. LRANGE on a missing key yields an
// empty list, so an unknown game loads as an empty journal.
func (j *Redis) Load(ctx context.Context, gameID string) ([]Entry, error) {
	vals, err := j.rdb.LRange(ctx, j.key(gameID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("journal entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
