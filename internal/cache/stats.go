package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/benvon/lockin/internal/stats"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no snapshot is cached.
var ErrMiss = errors.New("cache miss")

// StatsKey identifies one computed report for a user.
type StatsKey struct {
	UserID   uuid.UUID
	Year     int
	Day      string
	Settings stats.GrindSettings
	Birth    string
}

func (k StatsKey) field() string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", k.Year, k.Day,
		strconv.FormatFloat(k.Settings.SleepHours, 'f', -1, 64),
		strconv.FormatFloat(k.Settings.OtherHours, 'f', -1, 64),
		k.Birth)
}

func statsHashKey(userID uuid.UUID) string {
	return "lockin:stats:" + userID.String()
}

func statsVersionKey(userID uuid.UUID) string {
	return "lockin:stats:" + userID.String() + ":version"
}

// versionTTL outlives any report computation; an expired counter reads as 0.
const versionTTL = 24 * time.Hour

// ReportCache is the contract handlers and workers use. Version is read
// before loading the data a report is built from; Set stores the report only
// if no Invalidate happened since.
type ReportCache interface {
	Get(ctx context.Context, key StatsKey) (*stats.Report, error)
	Version(ctx context.Context, userID uuid.UUID) (int64, error)
	Set(ctx context.Context, key StatsKey, version int64, report *stats.Report) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// ErrSuperseded is returned by Set when the user's data changed after the
// report's version was read. Nothing is written.
var ErrSuperseded = errors.New("stats report superseded")

// KEYS[1] hash, KEYS[2] version; ARGV version, field, payload, ttl ms
var setIfCurrent = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or '0'
if v ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[2], ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

var _ ReportCache = (*StatsCache)(nil)

// StatsCache stores computed reports in one Redis hash per user so a single
// DEL invalidates every variant after the user's data changes.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatsCache creates a cache whose per-user hashes expire after ttl.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached report for key or ErrMiss.
func (c *StatsCache) Get(ctx context.Context, key StatsKey) (*stats.Report, error) {
	raw, err := c.client.HGet(ctx, statsHashKey(key.UserID), key.field()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stats cache: %w", err)
	}

	var report stats.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached stats: %w", err)
	}
	return &report, nil
}

// Version returns the user's invalidation counter.
func (c *StatsCache) Version(ctx context.Context, userID uuid.UUID) (int64, error) {
	v, err := c.client.Get(ctx, statsVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stats version: %w", err)
	}
	return v, nil
}

// Set stores report under key if the user's version is still version.
func (c *StatsCache) Set(ctx context.Context, key StatsKey, version int64, report *stats.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	keys := []string{statsHashKey(key.UserID), statsVersionKey(key.UserID)}
	stored, err := setIfCurrent.Run(ctx, c.client, keys,
		strconv.FormatInt(version, 10), key.field(), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("failed to write stats cache: %w", err)
	}
	if stored == 0 {
		return ErrSuperseded
	}
	return nil
}

// Invalidate drops every cached report of the user and bumps the version so
// reports computed from older data are not written back.
func (c *StatsCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	version := statsVersionKey(userID)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, version)
	pipe.Expire(ctx, version, versionTTL)
	pipe.Del(ctx, statsHashKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}
