package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const suspiciousIPSetKey = "fraud:suspicious_ips"

// RequestSignals tracks per-user request activity in Redis sorted sets and
// answers the pre-flight questions: how many assessment requests has this
// user made recently, and does the request originate from a known-suspicious
// IP. It implements fraud.RequestSignals.
type RequestSignals struct {
	client *Client
	window time.Duration
}

// NewRequestSignals creates a Redis-backed request signal source. window is
// the sliding interval over which requests are counted.
func NewRequestSignals(client *Client, window time.Duration) *RequestSignals {
	return &RequestSignals{client: client, window: window}
}

// RecentRequestCount records the current request and returns the number of
// requests seen within the sliding window, the current one included. Each
// request is a timestamped member in a per-user sorted set so that expired
// entries can be trimmed by score.
func (s *RequestSignals) RecentRequestCount(ctx context.Context, userID uuid.UUID, sessionID string) (int64, error) {
	now := time.Now().UTC()
	key := fmt.Sprintf("fraud:requests:%s", userID)
	windowStart := now.Add(-s.window).UnixMilli()

	rdb := s.client.Redis()
	pipe := rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%s:%d", sessionID, now.UnixNano()),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, s.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count recent requests: %w", err)
	}
	return count.Val(), nil
}

// IsSuspiciousIP checks the shared suspicious-IP set. An empty IP is never
// suspicious.
func (s *RequestSignals) IsSuspiciousIP(ctx context.Context, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	suspicious, err := s.client.Redis().SIsMember(ctx, suspiciousIPSetKey, ip).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check suspicious IP: %w", err)
	}
	return suspicious, nil
}
