// Package redisstore provides a Redis-backed conversation store.
//
// Each conversation lives in a Redis list of JSON-encoded messages. Append
// and trim run in a single Lua script so concurrent chat turns against the
// same session cannot interleave between the push and the cap.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flookyhq/flooky-tools/internal/domain"
)

const keyPrefix = "conv:"

// conversationTTL bounds abandoned sessions.
const conversationTTL = 24 * time.Hour

// appendTrimScript pushes messages then reapplies the history cap, keeping
// a leading system turn pinned. KEYS[1]=list key, ARGV[1]=max history,
// ARGV[2..]=encoded messages.
const appendTrimScript = `
local key = KEYS[1]
local max = tonumber(ARGV[1])
for i = 2, #ARGV do
  redis.call("RPUSH", key, ARGV[i])
end
local len = redis.call("LLEN", key)
if max > 0 and len > max + 1 then
  local head = redis.call("LINDEX", key, 0)
  if string.find(head, '"role":"system"', 1, true) ~= nil then
    local tail = redis.call("LRANGE", key, len - max, -1)
    redis.call("DEL", key)
    redis.call("RPUSH", key, head)
    for _, v in ipairs(tail) do
      redis.call("RPUSH", key, v)
    end
  else
    redis.call("LTRIM", key, len - max, -1)
  end
end
return redis.call("LLEN", key)
`

// Store implements domain.ConversationStore on Redis.
type Store struct {
	rdb        *redis.Client
	maxHistory int
	script     *redis.Script
}

// New constructs a Store with the given history cap.
func New(rdb *redis.Client, maxHistory int) *Store {
	return &Store{
		rdb:        rdb,
		maxHistory: maxHistory,
		script:     redis.NewScript(appendTrimScript),
	}
}

// History returns the conversation for sessionID, oldest first.
func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	vals, err := s.rdb.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("op=redisstore.History: %w", err)
	}
	out := make([]domain.Message, 0, len(vals))
	for _, v := range vals {
		var m domain.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("op=redisstore.History: decode: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Append adds msgs to the conversation and applies the history cap
// atomically.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	args := make([]any, 0, len(msgs)+1)
	args = append(args, s.maxHistory)
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("op=redisstore.Append: encode: %w", err)
		}
		args = append(args, string(b))
	}
	key := keyPrefix + sessionID
	if err := s.script.Run(ctx, s.rdb, []string{key}, args...).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Append: %w", err)
	}
	if err := s.rdb.Expire(ctx, key, conversationTTL).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Append: expire: %w", err)
	}
	return nil
}

// Reset discards the conversation for sessionID.
func (s *Store) Reset(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Reset: %w", err)
	}
	return nil
}
