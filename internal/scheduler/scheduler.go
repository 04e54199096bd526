package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MarketDecline/internal/config"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
	"MarketDecline/internal/notifier"
	"MarketDecline/internal/recorder"
	"MarketDecline/internal/report"
)

// ErrAlreadyRunning is returned when an analysis is requested while one is
// in progress.
var ErrAlreadyRunning = errors.New("analysis already running")

// Runner executes one decline analysis.
type Runner interface {
	Run(ctx context.Context, cfg config.AnalysisConfig) (*model.AnalysisResult, error)
}

// Sender delivers a notification.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the scheduled analysis and the bot commands around it.
type Scheduler struct {
	Cron          *cron.Cron
	Runner        Runner
	Analysis      config.AnalysisConfig
	Reports       report.Paths
	ReportOptions report.Options
	Notifier      Sender
	Recorder      recorder.Recorder
	Calendar      *TradingCalendar
	Ctx           context.Context
	Now           func() time.Time

	mu      sync.Mutex
	running bool
	last    *model.AnalysisResult
	log     zerolog.Logger
}

// NewScheduler creates a new Scheduler firing in the calendar's timezone.
// A nil notifier disables notifications.
func NewScheduler(ctx context.Context, runner Runner, analysis config.AnalysisConfig, rec recorder.Recorder, n Sender, cal *TradingCalendar) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	loc := time.Local
	if cal != nil && cal.Timezone != nil {
		loc = cal.Timezone
	}
	return &Scheduler{
		Cron:          cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Runner:        runner,
		Analysis:      analysis,
		ReportOptions: report.DefaultOptions(),
		Notifier:      n,
		Recorder:      rec,
		Calendar:      cal,
		Ctx:           ctx,
		Now:           time.Now,
		log:           logging.Component("scheduler"),
	}
}

// Register adds the analysis job on spec (six-field cron with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("Scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// Last returns the most recent successful result, if any.
func (s *Scheduler) Last() *model.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) analysisTask() {
	now := s.Now()
	if s.Calendar != nil && !s.Calendar.IsTradingDay(now) {
		s.log.Info().Time("now", now).Msg("Not a KRX trading day, skipping analysis")
		return
	}
	if _, err := s.RunNow(s.Ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
		s.log.Error().Err(err).Msg("Scheduled analysis failed")
	}
}

// RunNow executes the analysis immediately, writes the reports, records the
// run and sends the summary.
func (s *Scheduler) RunNow(ctx context.Context) (*model.AnalysisResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log.Info().Str("market", s.Analysis.Market).Msg("Running decline analysis")
	res, err := s.Runner.Run(ctx, s.Analysis)
	if err != nil {
		s.trySend(ctx, notifier.FormatError("하락률 분석", err))
		return nil, fmt.Errorf("run analysis: %w", err)
	}

	if err := report.SaveAll(s.Reports, res, s.ReportOptions, s.Now()); err != nil {
		s.log.Error().Err(err).Msg("Write reports failed")
	}
	if err := s.Recorder.RecordRun(ctx, res); err != nil {
		s.log.Error().Err(err).Msg("Record run failed")
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	s.trySend(ctx, notifier.FormatAnalysisReport(res, s.ReportOptions.ChartTop))
	return res, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/summary", "요약":
		last := s.Last()
		if last == nil {
			return "아직 완료된 분석이 없습니다. /run 으로 실행하세요."
		}
		return notifier.FormatAnalysisReport(last, s.ReportOptions.ChartTop)
	case "/history", "기록":
		runs, err := s.Recorder.RecentRuns(ctx, 5)
		if err != nil {
			return notifier.FormatError("기록 조회", err)
		}
		return notifier.FormatRunHistory(runs)
	case "/run", "실행":
		s.mu.Lock()
		busy := s.running
		s.mu.Unlock()
		if busy {
			return "분석이 이미 실행 중입니다."
		}
		go func() {
			if _, err := s.RunNow(s.Ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				s.log.Error().Err(err).Msg("Manual analysis failed")
			}
		}()
		return "분석을 시작합니다. 완료되면 결과를 보내드립니다."
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("Send notification failed")
	}
}
