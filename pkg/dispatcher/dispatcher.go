package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quietloop/orchestrator/pkg/connector"
	"github.com/quietloop/orchestrator/pkg/crypto"
	"github.com/quietloop/orchestrator/pkg/indexerhealth"
	"github.com/quietloop/orchestrator/pkg/orcherr"
	"github.com/quietloop/orchestrator/pkg/registry"
	"github.com/quietloop/orchestrator/pkg/throttle"
)

// SearchOptions selects which of the three connector verbs to invoke.
type SearchOptions struct {
	EpisodeIDs   []int
	SeriesID     int
	SeasonNumber int
	MovieIDs     []int
}

// Result is the outcome of a single dispatchSearch call.
type Result struct {
	Success        bool
	CommandID      int
	Error          string
	RateLimited    bool
	ConnectorPaused bool
	FailureCategory string
}

// Dispatch is one item queued for dispatchBatch.
type Dispatch struct {
	RegistryID  uuid.UUID
	ConnectorID uuid.UUID
	ContentType registry.ContentType
	SearchType  registry.SearchType
	Options     SearchOptions
}

// Service implements 4.G's dispatchSearch and dispatchBatch.
type Service struct {
	connectors       *connector.Store
	throttle         *throttle.ConnectorThrottle
	health           *indexerhealth.Store
	healthStaleAfter time.Duration
	secretBox        *crypto.Box
	clientTimeout    time.Duration
	logger           *slog.Logger
}

// NewService creates a dispatcher Service. healthStaleAfter controls how old
// a cached indexer-health row can be before it's logged as stale.
func NewService(connectors *connector.Store, th *throttle.ConnectorThrottle, health *indexerhealth.Store, healthStaleAfter time.Duration, secretBox *crypto.Box, clientTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{connectors: connectors, throttle: th, health: health, healthStaleAfter: healthStaleAfter, secretBox: secretBox, clientTimeout: clientTimeout, logger: logger}
}

// DispatchSearch implements 4.G steps 1-8.
func (s *Service) DispatchSearch(ctx context.Context, connectorID uuid.UUID, opts SearchOptions, now time.Time) Result {
	c, err := s.connectors.Get(ctx, connectorID)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("resolving connector: %v", err), FailureCategory: "configuration"}
	}

	decision, err := s.throttle.CanDispatch(ctx, connectorID, c.RateLimitPerMinute, now)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("checking throttle: %v", err)}
	}
	if !decision.Allowed {
		return Result{Success: false, Error: "Throttled:" + decision.Reason, RateLimited: decision.Reason == "rate_limit"}
	}

	// Informational indexer-health snapshot: logged, never blocks dispatch.
	if s.health != nil {
		snapshot, err := s.health.GetAllCached(ctx, s.healthStaleAfter, now)
		if err != nil {
			s.logger.Warn("indexer health snapshot unavailable", "error", err)
		} else {
			for _, h := range snapshot {
				if h.IsRateLimited {
					s.logger.Warn("indexer is rate-limited", "indexer_id", h.IndexerID, "instance_id", h.InstanceID)
				}
				if h.IsStale {
					s.logger.Warn("indexer health cache is stale", "indexer_id", h.IndexerID, "instance_id", h.InstanceID)
				}
			}
		}
	}

	apiKey, err := s.secretBox.Decrypt(c.APIKeyEncrypted)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("decrypting API key: %v", err), FailureCategory: "configuration"}
	}

	client := NewConnectorClient(c.BaseURL, apiKey, s.clientTimeout)

	var cmdResp CommandResponse
	switch {
	case len(opts.MovieIDs) > 0:
		cmdResp, err = client.SendMoviesSearch(ctx, opts.MovieIDs)
	case len(opts.EpisodeIDs) > 0:
		cmdResp, err = client.SendEpisodeSearch(ctx, opts.EpisodeIDs)
	case opts.SeriesID != 0:
		cmdResp, err = client.SendSeasonSearch(ctx, opts.SeriesID, opts.SeasonNumber)
	default:
		return Result{Success: false, Error: "no search target specified", FailureCategory: "validation"}
	}

	if err != nil {
		return s.classifyDispatchErr(ctx, connectorID, err, c.RateLimitPauseSeconds, now)
	}

	if recErr := s.throttle.RecordRequest(ctx, connectorID, now); recErr != nil {
		s.logger.Warn("recording dispatch request failed", "error", recErr)
	}
	return Result{Success: true, CommandID: cmdResp.ID}
}

func (s *Service) classifyDispatchErr(ctx context.Context, connectorID uuid.UUID, err error, pauseSeconds int, now time.Time) Result {
	oe, ok := orcherr.As(err)
	if !ok {
		return Result{Success: false, Error: err.Error()}
	}

	if oe.Category == orcherr.CategoryRateLimit {
		retryAfterSeconds := int(oe.RetryAfter / time.Second)
		if handleErr := s.throttle.HandleRateLimitResponse(ctx, connectorID, retryAfterSeconds, pauseSeconds, now); handleErr != nil {
			s.logger.Error("pausing connector after 429 failed", "error", handleErr)
		}
		return Result{Success: false, RateLimited: true, ConnectorPaused: true, Error: oe.Error(), FailureCategory: string(oe.Category)}
	}

	return Result{Success: false, Error: oe.Error(), FailureCategory: string(oe.Category)}
}

// DispatchBatch runs dispatches sequentially, stopping on the first
// rate-limited-and-paused result and marking the rest as skipped.
func (s *Service) DispatchBatch(ctx context.Context, dispatches []Dispatch, now time.Time) []Result {
	results := make([]Result, len(dispatches))
	stopped := false

	for i, d := range dispatches {
		if stopped {
			results[i] = Result{Success: false, Error: "skipped: connector rate-limited", RateLimited: true}
			continue
		}

		r := s.DispatchSearch(ctx, d.ConnectorID, d.Options, now)
		results[i] = r
		if r.RateLimited && r.ConnectorPaused {
			stopped = true
		}
	}

	return results
}
