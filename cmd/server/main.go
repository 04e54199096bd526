package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"MarketDecline/internal/analyzer"
	"MarketDecline/internal/collector"
	"MarketDecline/internal/config"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/recorder"
	"MarketDecline/internal/server"
	"MarketDecline/internal/trends"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "config file path")
	mock := flag.Bool("mock", false, "serve decline analysis from generated data")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	client := collector.NewClient(collector.ClientOptions{
		Timeout:     cfg.Timeout(),
		MaxRetries:  cfg.API.MaxRetries,
		MinInterval: cfg.RequestDelay(),
		Proxy:       cfg.Proxy,
		Cookies:     true,
	})
	naver := trends.NewNaverClient(cfg.Trends.NaverClientID, cfg.Trends.NaverClientSecret, client)
	google := trends.NewGoogleClient(cfg.Trends.Language, cfg.Trends.TimezoneOffset, client)

	var lister collector.Lister = collector.NewKRXLister(client)
	var fetcher collector.Fetcher = collector.NewYahooFetcher(client)
	if *mock {
		lister, fetcher = &collector.MockLister{}, &collector.MockFetcher{}
	}

	rec, err := recorder.Open(cfg.Database.Type, cfg.Database.SQLitePath, cfg.Database.PostgresDSN)
	if err != nil {
		log.Warn().Err(err).Msg("Recorder unavailable, runs will not be stored")
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := server.New(addr, naver, google, analyzer.New(lister, fetcher), rec, cfg.AnalysisConfig())

	log.Info().
		Bool("naver_configured", naver.Configured()).
		Msg("Endpoints: POST /api/naver-blog-trends, /api/google-trends, /api/combined-analysis, /api/decline-analysis; GET /api/decline-runs, /api/health")
	if !naver.Configured() {
		log.Warn().Msg("Set NAVER_CLIENT_ID and NAVER_CLIENT_SECRET to enable blog search")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
