package sqlc

import (
	"context"

	"github.com/sqlc-dev/pqtype"
)

// AnalyticsManager tracks per-server counters keyed by the dedicated
// server's IP. Failures here never abort a match; callers log and move on.
type AnalyticsManager struct {
	queries Querier
}

func NewAnalyticsManager(queries Querier) *AnalyticsManager {
	return &AnalyticsManager{queries: queries}
}

func (a *AnalyticsManager) IncrementMatchesCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementMatchesCreatedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) IncrementUnitsPlacedCount(ctx context.Context, serverIpNet pqtype.Inet) error {
	return a.queries.AnalyticsIncrementUnitsPlacedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetMatchesCreatedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.GetMatchesCreatedCount(ctx, serverIpNet)
}

func (a *AnalyticsManager) GetUnitsPlacedCount(ctx context.Context, serverIpNet pqtype.Inet) (int64, error) {
	return a.queries.GetUnitsPlacedCount(ctx, serverIpNet)
}
