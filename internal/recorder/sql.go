package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
)

type dialect struct {
	driver   string
	serialPK string
	postgres bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite", serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{driver: "postgres", serialPK: "BIGSERIAL PRIMARY KEY", postgres: true}
)

// rebind rewrites ? placeholders to $n for postgres.
func (d dialect) rebind(q string) string {
	if !d.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLRecorder persists runs to SQLite or PostgreSQL.
type SQLRecorder struct {
	db  *sql.DB
	d   dialect
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLRecorder, error) {
	db, err := sql.Open(sqliteDialect.driver, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; WAL lets readers proceed alongside it.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return newSQLRecorder(db, sqliteDialect, dbPath)
}

// NewPostgresRecorder connects to PostgreSQL and runs migrations.
func NewPostgresRecorder(dsn string) (*SQLRecorder, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLRecorder(db, postgresDialect, "postgres")
}

func newSQLRecorder(db *sql.DB, d dialect, name string) (*SQLRecorder, error) {
	r := &SQLRecorder{db: db, d: d, log: logging.Component("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	r.log.Info().Str("driver", d.driver).Str("target", name).Msg("Recorder opened")
	return r, nil
}

func (r *SQLRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id        TEXT PRIMARY KEY,
			started_at    BIGINT NOT NULL,
			finished_at   BIGINT NOT NULL,
			market_name   TEXT,
			period_days   INTEGER,
			requested     INTEGER,
			skipped       INTEGER,
			record_count  INTEGER,
			mean_pct      DOUBLE PRECISION,
			median_pct    DOUBLE PRECISION,
			std_pct       DOUBLE PRECISION,
			min_pct       DOUBLE PRECISION,
			max_pct       DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON analysis_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS decline_records (
			id                ` + r.d.serialPK + `,
			run_id            TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			code              TEXT NOT NULL,
			name              TEXT,
			market            TEXT,
			max_decline_pct   DOUBLE PRECISION,
			period_return_pct DOUBLE PRECISION,
			max_price         DOUBLE PRECISION,
			min_price         DOUBLE PRECISION,
			current_price     DOUBLE PRECISION,
			category          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_run ON decline_records(run_id)`,

		`CREATE TABLE IF NOT EXISTS market_stats (
			id           ` + r.d.serialPK + `,
			run_id       TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			market       TEXT NOT NULL,
			record_count INTEGER,
			mean_pct     DOUBLE PRECISION,
			median_pct   DOUBLE PRECISION,
			std_pct      DOUBLE PRECISION,
			min_pct      DOUBLE PRECISION,
			max_pct      DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_stats_run ON market_stats(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run, its records and its per-market statistics in a
// single transaction.
func (r *SQLRecorder) RecordRun(ctx context.Context, res *model.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s := res.Summary.Stats
	if _, err := tx.ExecContext(ctx, r.d.rebind(`INSERT INTO analysis_runs
		(run_id, started_at, finished_at, market_name, period_days, requested, skipped,
		 record_count, mean_pct, median_pct, std_pct, min_pct, max_pct)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		res.RunID, res.StartedAt.Unix(), res.FinishedAt.Unix(), res.MarketName, res.PeriodDays,
		res.Requested, res.Skipped, s.Count, s.Mean, s.Median, s.Std, s.Min, s.Max,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.d.rebind(`INSERT INTO decline_records
		(run_id, code, name, market, max_decline_pct, period_return_pct,
		 max_price, min_price, current_price, category)
		VALUES (?,?,?,?,?,?,?,?,?,?)`))
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()
	for _, rec := range res.Records {
		if _, err := stmt.ExecContext(ctx,
			res.RunID, rec.Code, rec.Name, string(rec.Market),
			rec.MaxDeclinePct, rec.PeriodReturnPct,
			rec.MaxPrice, rec.MinPrice, rec.CurrentPrice,
			decline.Categorize(rec.MaxDeclinePct).String(),
		); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Code, err)
		}
	}

	for m, ms := range res.Summary.ByMarket {
		if _, err := tx.ExecContext(ctx, r.d.rebind(`INSERT INTO market_stats
			(run_id, market, record_count, mean_pct, median_pct, std_pct, min_pct, max_pct)
			VALUES (?,?,?,?,?,?,?,?)`),
			res.RunID, string(m), ms.Count, ms.Mean, ms.Median, ms.Std, ms.Min, ms.Max,
		); err != nil {
			return fmt.Errorf("insert market stats %s: %w", m, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.log.Debug().Str("run_id", res.RunID).Int("records", len(res.Records)).Msg("Run recorded")
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLRecorder) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, r.d.rebind(`SELECT
		run_id, started_at, finished_at, market_name, period_days, requested, skipped,
		record_count, mean_pct, median_pct, std_pct, min_pct, max_pct
		FROM analysis_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var started, finished int64
		if err := rows.Scan(&rs.RunID, &started, &finished, &rs.MarketName, &rs.PeriodDays,
			&rs.Requested, &rs.Skipped, &rs.Stats.Count, &rs.Stats.Mean, &rs.Stats.Median,
			&rs.Stats.Std, &rs.Stats.Min, &rs.Stats.Max); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rs.StartedAt = time.Unix(started, 0)
		rs.FinishedAt = time.Unix(finished, 0)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *SQLRecorder) Close() error {
	r.log.Info().Msg("Closing recorder")
	return r.db.Close()
}
