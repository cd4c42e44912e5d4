package services

import (
	"context"
	"encoding/json"
	"fmt"

	"eventpass/models"

	"github.com/redis/go-redis/v9"
)

// ScanFeed keeps a short per-event history of scan verdicts in redis
// for the volunteer console. It is best-effort display data, capped by
// LTRIM rather than a TTL.
type ScanFeed struct {
	Redis  *redis.Client
	MaxLen int
}

func NewScanFeed(redisClient *redis.Client, maxLen int) *ScanFeed {
	if maxLen <= 0 {
		maxLen = 50
	}
	return &ScanFeed{Redis: redisClient, MaxLen: maxLen}
}

func feedKey(eventID string) string {
	return fmt.Sprintf("scans:recent:%s", eventID)
}

func (f *ScanFeed) Record(ctx context.Context, ev models.ScanEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := feedKey(ev.EventID)
	pipe := f.Redis.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(f.MaxLen-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (f *ScanFeed) Recent(ctx context.Context, eventID string, n int) ([]models.ScanEvent, error) {
	if n <= 0 || n > f.MaxLen {
		n = f.MaxLen
	}

	raw, err := f.Redis.LRange(ctx, feedKey(eventID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	events := make([]models.ScanEvent, 0, len(raw))
	for _, item := range raw {
		var ev models.ScanEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			continue // skip corrupt entries, keep the feed alive
		}
		events = append(events, ev)
	}
	return events, nil
}
