package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"MarketDecline/internal/analyzer"
	"MarketDecline/internal/collector"
	"MarketDecline/internal/config"
	"MarketDecline/internal/decline"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/notifier"
	"MarketDecline/internal/recorder"
	"MarketDecline/internal/report"
	"MarketDecline/internal/scheduler"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "config file path")
	market := flag.String("market", "", "market to analyze: kospi, kosdaq or both")
	period := flag.Int("period", 0, "analysis window in trading days")
	sample := flag.Int("sample", 0, "number of instruments to analyze")
	mock := flag.Bool("mock", false, "use generated data instead of live sources")
	daemon := flag.Bool("schedule", false, "run on the configured cron schedule with Telegram commands")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *market != "" {
		cfg.Analysis.Market = *market
	}
	if *period > 0 {
		cfg.Analysis.PeriodDays = *period
	}
	if *sample > 0 {
		cfg.Analysis.SampleSize = *sample
	}
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	if err := run(cfg, *mock, *daemon); err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
}

func run(cfg *config.Config, mock, daemon bool) error {
	var lister collector.Lister
	var fetcher collector.Fetcher
	if mock {
		lister = &collector.MockLister{}
		fetcher = &collector.MockFetcher{}
	} else {
		client := collector.NewClient(collector.ClientOptions{
			Timeout:     cfg.Timeout(),
			MaxRetries:  cfg.API.MaxRetries,
			MinInterval: cfg.RequestDelay(),
			Proxy:       cfg.Proxy,
		})
		lister = collector.NewKRXLister(client)
		fetcher = collector.NewYahooFetcher(client)
	}
	log.Info().Str("lister", lister.Name()).Str("fetcher", fetcher.Name()).Msg("Data sources ready")

	rec, err := recorder.Open(cfg.Database.Type, cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		log.Warn().Err(err).Msg("Recorder unavailable, runs will not be stored")
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	paths := report.Paths{
		HTML:   cfg.OutputPath(cfg.Output.HTMLReport),
		Excel:  cfg.OutputPath(cfg.Output.ExcelFile),
		Charts: cfg.OutputPath(cfg.Output.ChartFile),
	}
	opts := report.Options{
		ReportTop:     cfg.Visualization.ReportTopCount,
		ExcelTop:      cfg.Visualization.ExcelTopCount,
		ChartTop:      cfg.Visualization.TopDeclineCount,
		HistogramBins: cfg.Visualization.HistogramBins,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := analyzer.New(lister, fetcher)
	if !daemon {
		return runOnce(ctx, a, cfg.AnalysisConfig(), rec, paths, opts)
	}

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramConfigured() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	} else {
		log.Warn().Msg("Telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, a, cfg.AnalysisConfig(), rec, sender, scheduler.NewKRXCalendar())
	sched.Reports = paths
	sched.ReportOptions = opts
	if err := sched.Register(cfg.Schedule.AnalysisCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("Telegram polling started")
	}
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, running analysis now")
		go func() {
			if _, err := sched.RunNow(ctx); err != nil {
				log.Error().Err(err).Msg("Startup analysis failed")
			}
		}()
	}

	log.Info().Str("cron", cfg.Schedule.AnalysisCron).Msg("Scheduler running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received, stopping")
	return nil
}

func runOnce(ctx context.Context, a *analyzer.Analyzer, ac config.AnalysisConfig, rec recorder.Recorder, paths report.Paths, opts report.Options) error {
	res, err := a.Run(ctx, ac)
	if err != nil {
		return err
	}
	if len(res.Records) == 0 {
		log.Warn().Int("skipped", res.Skipped).Msg("No instruments could be analyzed")
		return nil
	}
	if err := report.SaveAll(paths, res, opts, time.Now()); err != nil {
		log.Error().Err(err).Msg("Failed to write reports")
	}
	if err := rec.RecordRun(ctx, res); err != nil {
		log.Error().Err(err).Msg("Failed to record run")
	}

	s := res.Summary.Stats
	fmt.Printf("\n=== %s %d일 하락률 분석 (%d/%d 종목) ===\n", res.MarketName, res.PeriodDays, len(res.Records), res.Requested)
	fmt.Printf("평균 최대 하락률: %s\n", report.Pct(s.Mean))
	fmt.Printf("중앙값: %s  표준편차: %.2f%%\n", report.Pct(s.Median), s.Std)
	fmt.Printf("최대 하락률: %s  최소 하락률: %s\n\n", report.Pct(s.MaxDecline()), report.Pct(s.MinDecline()))
	for _, c := range res.Summary.Distribution {
		fmt.Printf("  %-12s %4d개 (%s)\n", c.Label, c.Count, report.Pct(res.Summary.Share(c)))
	}
	fmt.Println()
	for i, r := range decline.RankWorst(res.Records, opts.ChartTop) {
		fmt.Printf("%2d. %s (%s) %s\n", i+1, r.Name, r.Code, report.Pct(r.MaxDeclinePct))
	}
	fmt.Printf("\n리포트: %s, %s, %s\n", paths.HTML, paths.Excel, paths.Charts)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
