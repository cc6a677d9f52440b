package youtube

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/vidshelf/youtube-list-ingestion-go/internal/metrics"
	"github.com/vidshelf/youtube-list-ingestion-go/pkg/logger"
)

const breakerName = "youtube-api"

// BreakerClient wraps Client with a circuit breaker so a broken or throttled
// API fails workers fast instead of stacking up timed-out calls.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[[]*Metadata]
}

// NewBreakerClient wraps client. The circuit opens after a 60% failure rate
// over at least 10 requests, and probes again after 2 minutes.
// ErrVideoNotFound is a valid answer, not a failure.
func NewBreakerClient(client *Client) *BreakerClient {
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]*Metadata](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrVideoNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("YouTube API circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// FetchVideo retrieves one video's metadata through the breaker.
func (b *BreakerClient) FetchVideo(ctx context.Context, videoID string) (*Metadata, error) {
	items, err := b.FetchVideos(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrVideoNotFound
	}
	return items[0], nil
}

// FetchVideos retrieves a batch through the breaker.
func (b *BreakerClient) FetchVideos(ctx context.Context, videoIDs []string) ([]*Metadata, error) {
	items, err := b.cb.Execute(func() ([]*Metadata, error) {
		return b.client.FetchVideos(ctx, videoIDs)
	})
	switch {
	case err == nil:
		metrics.SourceRequestsTotal.WithLabelValues("youtube_api", "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SourceRequestsTotal.WithLabelValues("youtube_api", "rejected").Inc()
	case errors.Is(err, ErrVideoNotFound):
		metrics.SourceRequestsTotal.WithLabelValues("youtube_api", "not_found").Inc()
	default:
		metrics.SourceRequestsTotal.WithLabelValues("youtube_api", "failure").Inc()
	}
	return items, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
