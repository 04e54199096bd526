package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MarketDecline/internal/model"
)

// RunSummary is a stored run without its per-instrument rows.
type RunSummary struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	MarketName string      `json:"market_name"`
	PeriodDays int         `json:"period_days"`
	Requested  int         `json:"requested"`
	Skipped    int         `json:"skipped"`
	Stats      model.Stats `json:"stats"`
}

// Recorder persists analysis runs for later inspection.
type Recorder interface {
	RecordRun(ctx context.Context, res *model.AnalysisResult) error
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
	Close() error
}

// Open returns the recorder for a database type: sqlite, postgres or none.
func Open(dbType, sqlitePath, postgresDSN string) (Recorder, error) {
	switch dbType {
	case "sqlite", "":
		if dir := filepath.Dir(sqlitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return NewSQLiteRecorder(sqlitePath)
	case "postgres":
		return NewPostgresRecorder(postgresDSN)
	case "none":
		return NewNoopRecorder(), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}
