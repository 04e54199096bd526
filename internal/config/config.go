package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketDecline/internal/model"
)

// Market selection values accepted by analysis.market.
const (
	MarketKOSPI  = "kospi"
	MarketKOSDAQ = "kosdaq"
	MarketBoth   = "both"
)

// Supported database backends.
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseNone     = "none"
)

// Config holds all application configuration.
type Config struct {
	Analysis struct {
		Market      string `yaml:"market"`
		PeriodDays  int    `yaml:"period_days"`
		SampleSize  int    `yaml:"sample_size"`
		HistoryDays int    `yaml:"history_days"`
	} `yaml:"analysis"`
	API struct {
		TimeoutSeconds         int `yaml:"timeout_seconds"`
		MaxRetries             int `yaml:"max_retries"`
		DelayBetweenRequestsMs int `yaml:"delay_between_requests_ms"`
		Concurrency            int `yaml:"concurrency"`
	} `yaml:"api"`
	Output struct {
		Dir          string `yaml:"dir"`
		ExcelFile    string `yaml:"excel_file"`
		HTMLReport   string `yaml:"html_report"`
		ChartFile    string `yaml:"chart_file"`
		TrendsReport string `yaml:"trends_report"`
		TrendsCharts string `yaml:"trends_charts"`
	} `yaml:"output"`
	Visualization struct {
		HistogramBins   int `yaml:"histogram_bins"`
		TopDeclineCount int `yaml:"top_decline_count"`
		ReportTopCount  int `yaml:"report_top_count"`
		ExcelTopCount   int `yaml:"excel_top_count"`
	} `yaml:"visualization"`
	Trends struct {
		NaverClientID     string   `yaml:"naver_client_id"`
		NaverClientSecret string   `yaml:"naver_client_secret"`
		Language          string   `yaml:"language"`
		TimezoneOffset    int      `yaml:"timezone_offset"`
		Geo               string   `yaml:"geo"`
		DefaultKeywords   []string `yaml:"default_keywords"`
		Timeframe         string   `yaml:"timeframe"`
	} `yaml:"trends"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Type        string `yaml:"type"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
		Timezone     string `yaml:"timezone"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy    string `yaml:"proxy"`
	LogLevel string `yaml:"log_level"`
}

// AnalysisConfig is the immutable input of one decline analysis run.
type AnalysisConfig struct {
	Market      string
	PeriodDays  int
	SampleSize  int
	HistoryDays int
	Concurrency int
}

// Markets expands the market selection into listing venues.
func (a AnalysisConfig) Markets() []model.Market {
	switch strings.ToLower(a.Market) {
	case MarketKOSPI:
		return []model.Market{model.MarketKOSPI}
	case MarketKOSDAQ:
		return []model.Market{model.MarketKOSDAQ}
	case MarketBoth:
		return []model.Market{model.MarketKOSPI, model.MarketKOSDAQ}
	}
	return nil
}

// MarketName is the display name of the selection.
func (a AnalysisConfig) MarketName() string {
	switch strings.ToLower(a.Market) {
	case MarketKOSPI:
		return "KOSPI"
	case MarketKOSDAQ:
		return "KOSDAQ"
	case MarketBoth:
		return "KOSPI + KOSDAQ"
	}
	return a.Market
}

// Validate checks that the run parameters are usable.
func (a AnalysisConfig) Validate() error {
	if len(a.Markets()) == 0 {
		return fmt.Errorf("market must be one of %s, %s, %s", MarketKOSPI, MarketKOSDAQ, MarketBoth)
	}
	if a.PeriodDays <= 0 {
		return fmt.Errorf("period_days must be positive")
	}
	if a.SampleSize < len(a.Markets()) {
		return fmt.Errorf("sample_size must be at least %d for %s", len(a.Markets()), a.MarketName())
	}
	if a.HistoryDays < 0 {
		return fmt.Errorf("history_days must not be negative")
	}
	return nil
}

// CalendarDays converts a count of trading sessions into a calendar span
// that holds at least that many KRX sessions, weekends and holidays included.
func CalendarDays(sessions int) int {
	return sessions*3/2 + 10
}

// FetchDays is the calendar span of history to fetch per instrument: the
// configured history_days, widened when it cannot hold period_days sessions.
func (a AnalysisConfig) FetchDays() int {
	if need := CalendarDays(a.PeriodDays); a.HistoryDays < need {
		return need
	}
	return a.HistoryDays
}

// Load reads .env, then config from a YAML file, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Analysis.Market, "ANALYSIS_MARKET")
	setInt(&c.Analysis.PeriodDays, "ANALYSIS_PERIOD_DAYS")
	setInt(&c.Analysis.SampleSize, "ANALYSIS_SAMPLE_SIZE")
	setInt(&c.API.Concurrency, "API_CONCURRENCY")
	setString(&c.Output.Dir, "OUTPUT_DIR")
	setString(&c.Trends.NaverClientID, "NAVER_CLIENT_ID")
	setString(&c.Trends.NaverClientSecret, "NAVER_CLIENT_SECRET")
	setInt(&c.Server.Port, "PORT")
	setString(&c.Database.Type, "DATABASE_TYPE")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Database.PostgresDSN, "DATABASE_URL")
	setString(&c.Schedule.AnalysisCron, "CRON_ANALYSIS")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Proxy, "HTTPS_PROXY")
	setString(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Analysis.Market == "" {
		c.Analysis.Market = MarketBoth
	}
	if c.Analysis.PeriodDays == 0 {
		c.Analysis.PeriodDays = 30
	}
	if c.Analysis.SampleSize == 0 {
		c.Analysis.SampleSize = 100
	}
	if c.Analysis.HistoryDays == 0 {
		c.Analysis.HistoryDays = 365
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 30
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = 3
	}
	if c.API.DelayBetweenRequestsMs == 0 {
		c.API.DelayBetweenRequestsMs = 100
	}
	if c.API.Concurrency == 0 {
		c.API.Concurrency = 4
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.ExcelFile == "" {
		c.Output.ExcelFile = "stock_decline_analysis.xlsx"
	}
	if c.Output.HTMLReport == "" {
		c.Output.HTMLReport = "stock_decline_report.html"
	}
	if c.Output.ChartFile == "" {
		c.Output.ChartFile = "stock_decline_charts.html"
	}
	if c.Output.TrendsReport == "" {
		c.Output.TrendsReport = "trends_report.txt"
	}
	if c.Output.TrendsCharts == "" {
		c.Output.TrendsCharts = "trends_charts.html"
	}
	if c.Visualization.HistogramBins == 0 {
		c.Visualization.HistogramBins = 30
	}
	if c.Visualization.TopDeclineCount == 0 {
		c.Visualization.TopDeclineCount = 10
	}
	if c.Visualization.ReportTopCount == 0 {
		c.Visualization.ReportTopCount = 20
	}
	if c.Visualization.ExcelTopCount == 0 {
		c.Visualization.ExcelTopCount = 50
	}
	if c.Trends.Language == "" {
		c.Trends.Language = "ko"
	}
	if c.Trends.TimezoneOffset == 0 {
		c.Trends.TimezoneOffset = -540
	}
	if c.Trends.Geo == "" {
		c.Trends.Geo = "KR"
	}
	if c.Trends.Timeframe == "" {
		c.Trends.Timeframe = "today 12-m"
	}
	if len(c.Trends.DefaultKeywords) == 0 {
		c.Trends.DefaultKeywords = []string{
			"맛집", "여행", "카페", "맛집 추천", "데이트",
			"운동", "다이어트", "요리", "패션", "뷰티",
			"육아", "일상", "취미", "독서", "영화",
			"드라마", "K-pop", "게임", "투자", "부동산",
		}
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Database.Type == "" {
		c.Database.Type = DatabaseSQLite
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market_decline.db"
	}
	if c.Schedule.AnalysisCron == "" {
		c.Schedule.AnalysisCron = "0 30 16 * * 1-5"
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Asia/Seoul"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// AnalysisConfig returns the run parameters as an immutable value.
func (c *Config) AnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Market:      strings.ToLower(c.Analysis.Market),
		PeriodDays:  c.Analysis.PeriodDays,
		SampleSize:  c.Analysis.SampleSize,
		HistoryDays: c.Analysis.HistoryDays,
		Concurrency: c.API.Concurrency,
	}
}

// Timeout is the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// RequestDelay is the minimum spacing between outbound requests.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.API.DelayBetweenRequestsMs) * time.Millisecond
}

// OutputPath joins name onto the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}

// NaverConfigured reports whether Naver API credentials are present.
func (c *Config) NaverConfigured() bool {
	return c.Trends.NaverClientID != "" && c.Trends.NaverClientSecret != ""
}

// TelegramConfigured reports whether notifications can be sent.
func (c *Config) TelegramConfigured() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if err := c.AnalysisConfig().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be positive")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative")
	}
	if c.API.Concurrency <= 0 {
		return fmt.Errorf("api.concurrency must be positive")
	}
	switch c.Database.Type {
	case DatabaseSQLite, DatabaseNone:
	case DatabasePostgres:
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.type %q is not supported", c.Database.Type)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
