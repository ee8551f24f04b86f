package services

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"
)

// CleanupService prunes usage counters older than a retention window
type CleanupService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewCleanupServiceWithLogger creates a new cleanup service with logger
func NewCleanupServiceWithLogger(db *sql.DB, logger *observability.Logger) *CleanupService {
	return &CleanupService{
		db:     db,
		logger: logger,
	}
}

// CountExpiredUsageStats returns how many usage rows are older than before
func (c *CleanupService) CountExpiredUsageStats(ctx context.Context, before time.Time) (count int, err error) {
	cutoff := before.UTC().Format(UsageDateLayout)
	ctx, span := observability.TraceUsageStatsFunction(ctx, "count_expired", attribute.String("cleanup.before", cutoff))
	defer observability.FinishSpan(span, &err)

	if c.db == nil {
		return 0, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database connection not available")
	}

	err = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_usage_stats WHERE usage_date < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to count expired usage stats: %w", err)
	}
	span.SetAttributes(attribute.Int("cleanup.expired_count", count))
	return count, nil
}

// PruneUsageStats deletes usage rows older than before and returns the number removed
func (c *CleanupService) PruneUsageStats(ctx context.Context, before time.Time) (rowsAffected int64, err error) {
	cutoff := before.UTC().Format(UsageDateLayout)
	ctx, span := observability.TraceUsageStatsFunction(ctx, "prune", attribute.String("cleanup.before", cutoff))
	defer observability.FinishSpan(span, &err)

	if c.db == nil {
		return 0, contextutils.WrapError(contextutils.ErrDatabaseConnection, "database connection not available")
	}

	result, err := c.db.ExecContext(ctx, `DELETE FROM ai_usage_stats WHERE usage_date < $1`, cutoff)
	if err != nil {
		return 0, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to prune usage stats: %w", err)
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return 0, contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "failed to read pruned row count: %w", err)
	}

	span.SetAttributes(attribute.Int64("cleanup.rows_affected", rowsAffected))
	if rowsAffected == 0 {
		c.logger.Info(ctx, "No expired usage stats found to cleanup", map[string]interface{}{"before": cutoff})
		return 0, nil
	}
	c.logger.Info(ctx, "Pruned expired usage stats", map[string]interface{}{
		"before":        cutoff,
		"rows_affected": rowsAffected,
	})
	return rowsAffected, nil
}
