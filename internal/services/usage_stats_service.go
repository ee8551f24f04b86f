package services

import (
	"context"
	"database/sql"
	"time"

	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// UsageDateLayout is the format of the usage_date column
const UsageDateLayout = "2006-01-02"

// UsageStatsServiceInterface defines the interface for AI usage tracking
type UsageStatsServiceInterface interface {
	UsageRecorder
	// Summary returns the daily counters since the given day, newest first
	Summary(ctx context.Context, since time.Time) ([]*UsageStats, error)
	// Enabled reports whether counters are persisted
	Enabled() bool
}

// UsageEvent describes one completion call
type UsageEvent struct {
	Provider         string
	Model            string
	UsageType        string
	PromptTokens     int
	CompletionTokens int
	Failed           bool
	Score            *int
	At               time.Time
}

// UsageStats holds the counters of one day, provider, model and usage type
type UsageStats struct {
	UsageDate        string    `json:"usage_date"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model"`
	UsageType        string    `json:"usage_type"`
	RequestCount     int       `json:"request_count"`
	FailureCount     int       `json:"failure_count"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	ScoredCount      int       `json:"scored_count"`
	ScoreSum         int       `json:"score_sum"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AverageScore returns the mean parsed score, or 0 when nothing was scored
func (u *UsageStats) AverageScore() float64 {
	if u.ScoredCount == 0 {
		return 0
	}
	return float64(u.ScoreSum) / float64(u.ScoredCount)
}

// UsageStatsService persists AI usage counters. With a nil database every
// operation is a no-op.
type UsageStatsService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewUsageStatsService creates a new usage stats service
func NewUsageStatsService(db *sql.DB, logger *observability.Logger) *UsageStatsService {
	return &UsageStatsService{
		db:     db,
		logger: logger,
	}
}

// Enabled reports whether a database is attached
func (s *UsageStatsService) Enabled() bool {
	return s.db != nil
}

// Record adds one call to the counters of its day, provider, model and usage type
func (s *UsageStatsService) Record(ctx context.Context, event UsageEvent) (err error) {
	if s.db == nil {
		return nil
	}
	ctx, span := observability.TraceUsageStatsFunction(ctx, "record",
		observability.AttributeProvider(event.Provider),
		observability.AttributeModel(event.Model),
		attribute.String("usage_type", event.UsageType),
		attribute.Bool("failed", event.Failed),
	)
	defer observability.FinishSpan(span, &err)

	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	failures, scored, score := 0, 0, 0
	if event.Failed {
		failures = 1
	}
	if event.Score != nil {
		scored = 1
		score = *event.Score
	}

	query := `
		INSERT INTO ai_usage_stats (usage_date, provider, model, usage_type, request_count, failure_count, prompt_tokens, completion_tokens, scored_count, score_sum, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (usage_date, provider, model, usage_type)
		DO UPDATE SET
			request_count = ai_usage_stats.request_count + 1,
			failure_count = ai_usage_stats.failure_count + excluded.failure_count,
			prompt_tokens = ai_usage_stats.prompt_tokens + excluded.prompt_tokens,
			completion_tokens = ai_usage_stats.completion_tokens + excluded.completion_tokens,
			scored_count = ai_usage_stats.scored_count + excluded.scored_count,
			score_sum = ai_usage_stats.score_sum + excluded.score_sum,
			updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		at.Format(UsageDateLayout), event.Provider, event.Model, event.UsageType,
		failures, event.PromptTokens, event.CompletionTokens, scored, score, at,
	)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to record usage: %w", err)
	}
	return nil
}

// Summary returns the counters of every day from since (inclusive), newest first
func (s *UsageStatsService) Summary(ctx context.Context, since time.Time) (result []*UsageStats, err error) {
	if s.db == nil {
		return nil, nil
	}
	ctx, span := observability.TraceUsageStatsFunction(ctx, "summary",
		attribute.String("since", since.UTC().Format(UsageDateLayout)),
	)
	defer observability.FinishSpan(span, &err)

	query := `
		SELECT usage_date, provider, model, usage_type, request_count, failure_count,
			prompt_tokens, completion_tokens, scored_count, score_sum, updated_at
		FROM ai_usage_stats
		WHERE usage_date >= $1
		ORDER BY usage_date DESC, provider, model, usage_type`

	rows, err := s.db.QueryContext(ctx, query, since.UTC().Format(UsageDateLayout))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to query usage stats: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Error(ctx, "Failed to close rows", closeErr)
		}
	}()

	for rows.Next() {
		stat := &UsageStats{}
		if err := rows.Scan(
			&stat.UsageDate,
			&stat.Provider,
			&stat.Model,
			&stat.UsageType,
			&stat.RequestCount,
			&stat.FailureCount,
			&stat.PromptTokens,
			&stat.CompletionTokens,
			&stat.ScoredCount,
			&stat.ScoreSum,
			&stat.UpdatedAt,
		); err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to scan usage stats: %w", err)
		}
		result = append(result, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to iterate usage stats: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", len(result)))
	return result, nil
}
