package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/q3a-report/pkg/game"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each run's reports in a Redis list and publishes every
// saved report on the run's channel.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure RedisStore implements ReportStore interface
var _ ReportStore = (*RedisStore)(nil)

// NewRedisStore connects to redisURL. Both redis://host:port/db URLs and bare
// host:port addresses are accepted. A ttl of zero keeps reports forever.
func NewRedisStore(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	opt := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		opt = parsed
	}

	return &RedisStore{
		client: redis.NewClient(opt),
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Debug("Redis connection closed")
	return nil
}

// WaitForConnection pings Redis until it answers, the attempts run out or
// ctx is done.
func (r *RedisStore) WaitForConnection(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		err := r.Ping(ctx)
		if err == nil {
			r.logger.Info("Redis connection established")
			return nil
		}
		r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("redis did not become available after %d attempts", attempts)
}

// SaveReport appends report to the run's list, refreshes the list's expiry
// and publishes the report, all in one transaction.
func (r *RedisStore) SaveReport(ctx context.Context, runID uuid.UUID, report *game.Report) error {
	if report == nil {
		return errors.New("report cannot be nil")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	key := reportsKey(runID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		pipe.Publish(ctx, ChannelName(runID), data)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save report", "run_id", runID, "game", report.Key(), "error", err)
		return fmt.Errorf("failed to save report %s: %w", report.Key(), err)
	}

	r.logger.Debug("Report saved", "run_id", runID, "game", report.Key())
	return nil
}

// ListReports returns the run's reports in the order they were saved. An
// unknown or expired run yields an empty slice.
func (r *RedisStore) ListReports(ctx context.Context, runID uuid.UUID) ([]*game.Report, error) {
	values, err := r.client.LRange(ctx, reportsKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*game.Report, 0, len(values))
	for i, v := range values {
		var report game.Report
		if err := json.Unmarshal([]byte(v), &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %d: %w", i, err)
		}
		reports = append(reports, &report)
	}
	return reports, nil
}

// Subscribe streams reports published for runID until ctx is done. The
// returned channel is closed when the subscription ends.
func (r *RedisStore) Subscribe(ctx context.Context, runID uuid.UUID) (<-chan *game.Report, error) {
	sub := r.client.Subscribe(ctx, ChannelName(runID))
	// Wait for the subscription to be confirmed so no report is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to run %s: %w", runID, err)
	}

	out := make(chan *game.Report)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var report game.Report
				if err := json.Unmarshal([]byte(msg.Payload), &report); err != nil {
					r.logger.Warn("Dropping malformed report message", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- &report:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
