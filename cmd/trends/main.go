package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"MarketDecline/internal/collector"
	"MarketDecline/internal/config"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/trends"
)

func main() {
	cfgPath := flag.String("config", envOr("CONFIG_PATH", "configs/config.yaml"), "config file path")
	keywords := flag.String("keywords", "", "comma separated keywords, at most 5 (default: popular blog topics)")
	timeframe := flag.String("timeframe", "", "one of: "+strings.Join(trends.Timeframes, ", "))
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	tf := *timeframe
	if tf == "" {
		tf = cfg.Trends.Timeframe
	}
	if !validTimeframe(tf) {
		log.Fatal().Str("timeframe", tf).Strs("supported", trends.Timeframes).Msg("Unsupported timeframe")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := collector.NewClient(collector.ClientOptions{
		Timeout:    cfg.Timeout(),
		MaxRetries: cfg.API.MaxRetries,
		Proxy:      cfg.Proxy,
		Cookies:    true,
	})
	google := trends.NewGoogleClient(cfg.Trends.Language, cfg.Trends.TimezoneOffset, client)
	a := trends.NewKeywordAnalyzer(google, cfg.Trends.Geo, cfg.Trends.DefaultKeywords)

	rep, err := a.Analyze(ctx, splitKeywords(*keywords), tf)
	if err != nil {
		log.Fatal().Err(err).Msg("Keyword analysis failed")
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("분석 결과")
	fmt.Println(strings.Repeat("=", 50))
	if len(rep.Ranking) > 0 {
		fmt.Println("\n키워드별 평균 관심도 순위:")
		for i, s := range rep.Ranking {
			fmt.Printf("%d. %s: %.2f\n", i+1, s.Keyword, s.Score)
		}
	} else {
		fmt.Println("\n관심도 데이터가 없습니다.")
	}
	if len(rep.TrendingSearches) > 0 {
		fmt.Println("\n실시간 트렌딩 검색어 (Top 10):")
		for i, t := range rep.TrendingSearches {
			if i == 10 {
				break
			}
			fmt.Printf("%d. %s\n", i+1, t)
		}
	}

	reportPath := cfg.OutputPath(cfg.Output.TrendsReport)
	if err := trends.SaveReport(reportPath, rep); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
	chartPath := cfg.OutputPath(cfg.Output.TrendsCharts)
	if len(rep.Interest) > 0 {
		if err := trends.SaveCharts(chartPath, rep); err != nil {
			log.Fatal().Err(err).Msg("Failed to write charts")
		}
	} else {
		log.Warn().Msg("No interest data, skipping charts")
		chartPath = "-"
	}
	fmt.Printf("\n리포트: %s\n그래프: %s\n", reportPath, chartPath)
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func validTimeframe(tf string) bool {
	for _, t := range trends.Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
