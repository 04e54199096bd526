package recorder

import (
	"context"

	"MarketDecline/internal/model"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, _ *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) RecentRuns(_ context.Context, _ int) ([]RunSummary, error)  { return nil, nil }
func (n *NoopRecorder) Close() error                                               { return nil }
