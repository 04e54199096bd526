// Package analyzer runs a batch decline analysis over a market sample.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"MarketDecline/internal/collector"
	"MarketDecline/internal/config"
	"MarketDecline/internal/decline"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
)

const progressEvery = 10

// Analyzer lists a market, fetches price history for a sample of it and
// reduces the histories to decline statistics.
type Analyzer struct {
	Lister  collector.Lister
	Fetcher collector.Fetcher
	Now     func() time.Time
	log     zerolog.Logger
}

// New creates a new Analyzer.
func New(lister collector.Lister, fetcher collector.Fetcher) *Analyzer {
	return &Analyzer{
		Lister:  lister,
		Fetcher: fetcher,
		Now:     time.Now,
		log:     logging.Component("analyzer"),
	}
}

// Sample picks the instruments to analyze: the first SampleSize of a single
// market, or the first SampleSize/2 of each market for both.
func (a *Analyzer) Sample(ctx context.Context, cfg config.AnalysisConfig) ([]model.Instrument, error) {
	markets := cfg.Markets()
	per := cfg.SampleSize
	if len(markets) > 1 {
		per = cfg.SampleSize / len(markets)
	}

	var out []model.Instrument
	for _, m := range markets {
		list, err := a.Lister.ListStocks(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", m, err)
		}
		if len(list) > per {
			list = list[:per]
		}
		out = append(out, list...)
	}
	return out, nil
}

// Run executes one analysis. Instruments whose history cannot be fetched or
// is unusable are skipped; listing failures and cancellation abort the run.
func (a *Analyzer) Run(ctx context.Context, cfg config.AnalysisConfig) (*model.AnalysisResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	res := &model.AnalysisResult{
		RunID:      uuid.NewString(),
		StartedAt:  a.Now(),
		MarketName: cfg.MarketName(),
		PeriodDays: cfg.PeriodDays,
	}
	log := a.log.With().Str("run_id", res.RunID).Logger()

	instruments, err := a.Sample(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res.Requested = len(instruments)
	log.Info().
		Str("market", res.MarketName).
		Int("period_days", cfg.PeriodDays).
		Int("instruments", len(instruments)).
		Msg("Starting decline analysis")

	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	slots := make([]*model.DeclineRecord, len(instruments))
	var done, skipped int64

	for i, inst := range instruments {
		g.Go(func() error {
			rec, err := a.analyzeOne(gctx, inst, cfg)
			n := atomic.AddInt64(&done, 1)
			if n%progressEvery == 0 {
				log.Info().Msgf("Progress: %d/%d (%.1f%%)", n, len(instruments), float64(n)/float64(len(instruments))*100)
			}
			if err != nil {
				if skip(err) {
					atomic.AddInt64(&skipped, 1)
					log.Debug().Err(err).Str("code", inst.Code).Msg("Skipping instrument")
					return nil
				}
				return fmt.Errorf("analyze %s: %w", inst.Code, err)
			}
			slots[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range slots {
		if r != nil {
			res.Records = append(res.Records, *r)
		}
	}
	res.Skipped = int(skipped)
	res.Summary = decline.Summarize(res.Records)
	res.FinishedAt = a.Now()

	log.Info().
		Int("analyzed", len(res.Records)).
		Int("skipped", res.Skipped).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Msg("Decline analysis finished")
	return res, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, inst model.Instrument, cfg config.AnalysisConfig) (*model.DeclineRecord, error) {
	bars, err := a.Fetcher.FetchDailyBars(ctx, inst.YahooSymbol(), cfg.FetchDays())
	if err != nil {
		return nil, err
	}
	d, err := decline.ComputeDecline(bars, cfg.PeriodDays)
	if err != nil {
		return nil, err
	}
	return &model.DeclineRecord{Instrument: inst, Decline: d}, nil
}

func skip(err error) bool {
	var fe *collector.FetchError
	return errors.As(err, &fe) || decline.Skippable(err)
}
