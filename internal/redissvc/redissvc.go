package redissvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dmarchetti/scanventory/internal/models"
)

const (
	scanHistoryKey   = "scan:history"
	scansTodayPrefix = "scan:count:"
	eventChanPrefix  = "scan:events:"
)

// RedisService wraps the shared Redis client for the best-effort side
// channels of the scan workflow: the recent-scans strip, per-day scan
// counters and per-session event publishing. Every method here is
// fire-and-forget from the caller's point of view; failures are logged and
// never propagate into a scan outcome.
type RedisService struct {
	rdb          *redis.Client
	ctx          context.Context
	historyLimit int
}

func NewRedisService(rdb *redis.Client, ctx context.Context, historyLimit int) *RedisService {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &RedisService{rdb: rdb, ctx: ctx, historyLimit: historyLimit}
}

func (s *RedisService) Rdb() *redis.Client {
	return s.rdb
}

func (s *RedisService) Ctx() context.Context {
	return s.ctx
}

// AppendScanHistory pushes a scan event onto the capped history list.
func (s *RedisService) AppendScanHistory(event models.ScanEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		zap.L().Warn("failed to marshal scan event", zap.Error(err))
		return
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(s.ctx, scanHistoryKey, data)
	pipe.LTrim(s.ctx, scanHistoryKey, 0, int64(s.historyLimit-1))
	if _, err := pipe.Exec(s.ctx); err != nil {
		zap.L().Warn("failed to append scan history", zap.Error(err))
		return
	}

	day := event.ScannedAt.UTC().Format("2006-01-02")
	key := scansTodayPrefix + day
	if err := s.rdb.Incr(s.ctx, key).Err(); err == nil {
		s.rdb.Expire(s.ctx, key, 48*time.Hour)
	}
}

// RecentScans returns up to limit events from the history strip, newest first.
func (s *RedisService) RecentScans(limit int) ([]models.ScanEvent, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	raw, err := s.rdb.LRange(s.ctx, scanHistoryKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read scan history: %w", err)
	}

	events := make([]models.ScanEvent, 0, len(raw))
	for _, item := range raw {
		var e models.ScanEvent
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			zap.L().Warn("skipping malformed scan history entry", zap.Error(err))
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// ScansToday returns the scan counter for the current UTC day.
func (s *RedisService) ScansToday() int {
	key := scansTodayPrefix + time.Now().UTC().Format("2006-01-02")
	n, err := s.rdb.Get(s.ctx, key).Int()
	if err != nil {
		return 0
	}
	return n
}

// PublishSessionEvent fans a presenter transition out to any subscribed
// client (the haptic/toast channel). Best effort.
func (s *RedisService) PublishSessionEvent(sessionID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Warn("failed to marshal session event", zap.Error(err))
		return
	}
	if err := s.rdb.Publish(s.ctx, eventChanPrefix+sessionID, data).Err(); err != nil {
		zap.L().Warn("failed to publish session event",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
