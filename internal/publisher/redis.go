package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hero-analyzer/internal/report"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	// ReportStream receives one entry per reducer run
	ReportStream = "herostats.reports"
	// LatestKey holds the most recent report document
	LatestKey = "herostats:latest"

	streamMaxLen = 100
)

// ErrNoReport is returned by Latest when nothing has been published
var ErrNoReport = errors.New("no report published")

// RedisPublisher publishes hero stats reports to Redis
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis and checks the connection
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisPublisher{client: client}, nil
}

// NewRedisPublisherFromClient wraps an existing client
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Close closes the Redis connection
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// PublishReport appends the report to the stream and replaces the latest key
func (rp *RedisPublisher) PublishReport(ctx context.Context, export report.DataExport) (string, error) {
	data, err := json.Marshal(export)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	pipe := rp.client.TxPipeline()
	add := pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: ReportStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"heroes":    len(export.Heroes),
			"timestamp": time.Now().Unix(),
		},
	})
	pipe.Set(ctx, LatestKey, data, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to publish report: %w", err)
	}
	return add.Val(), nil
}

// Latest returns the most recently published report
func (rp *RedisPublisher) Latest(ctx context.Context) (*report.DataExport, error) {
	data, err := rp.client.Get(ctx, LatestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, err
	}

	var export report.DataExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse latest report: %w", err)
	}
	return &export, nil
}
