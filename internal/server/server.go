// Package server exposes keyword trends and decline analysis over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"MarketDecline/internal/config"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
	"MarketDecline/internal/recorder"
	"MarketDecline/internal/trends"
)

const (
	defaultGoogleTimeframe = "today 1-m"
	defaultGeo             = "KR"

	errKeywordRequired = "검색 키워드가 필요합니다."
)

// BlogSearcher counts blog posts per day.
type BlogSearcher interface {
	SearchBlogTrend(ctx context.Context, keyword, start, end, sort string) (*model.BlogTrend, error)
	Configured() bool
}

// TrendSource fetches Google Trends data for one keyword.
type TrendSource interface {
	Trend(ctx context.Context, keyword, timeframe, geo string) (*model.GoogleTrend, error)
}

// DeclineRunner executes a decline analysis.
type DeclineRunner interface {
	Run(ctx context.Context, cfg config.AnalysisConfig) (*model.AnalysisResult, error)
}

// Server is the HTTP API.
type Server struct {
	Addr     string
	Naver    BlogSearcher
	Google   TrendSource
	Runner   DeclineRunner
	Recorder recorder.Recorder
	// Analysis supplies defaults for fields a decline request omits.
	Analysis config.AnalysisConfig
	Now      func() time.Time

	engine *gin.Engine
	log    zerolog.Logger
}

// New creates the API server. runner and rec may be nil, which disables
// the decline endpoints.
func New(addr string, naver BlogSearcher, google TrendSource, runner DeclineRunner, rec recorder.Recorder, analysis config.AnalysisConfig) *Server {
	s := &Server{
		Addr:     addr,
		Naver:    naver,
		Google:   google,
		Runner:   runner,
		Recorder: rec,
		Analysis: analysis,
		Now:      time.Now,
		engine:   gin.New(),
		log:      logging.Component("server"),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger(), cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.POST("/naver-blog-trends", s.naverBlogTrends)
	api.POST("/google-trends", s.googleTrends)
	api.POST("/combined-analysis", s.combinedAnalysis)
	api.POST("/decline-analysis", s.declineAnalysis)
	api.GET("/decline-runs", s.declineRuns)
	api.GET("/health", s.health)
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.Addr).Msg("Starting API server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("Shutting down API server")
	return srv.Shutdown(shutdownCtx)
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}

type naverRequest struct {
	Keyword   string `json:"keyword"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Sort      string `json:"sort"`
}

type googleRequest struct {
	Keyword   string `json:"keyword"`
	Timeframe string `json:"timeframe"`
	Geo       string `json:"geo"`
}

type declineRequest struct {
	Market     string `json:"market"`
	PeriodDays int    `json:"period_days"`
	SampleSize int    `json:"sample_size"`
}

func (s *Server) naverBlogTrends(c *gin.Context) {
	var req naverRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errKeywordRequired})
		return
	}
	res, err := s.Naver.SearchBlogTrend(c.Request.Context(), req.Keyword, req.StartDate, req.EndDate, req.Sort)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) googleTrends(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errKeywordRequired})
		return
	}
	if req.Timeframe == "" {
		req.Timeframe = defaultGoogleTimeframe
	}
	if req.Geo == "" {
		req.Geo = defaultGeo
	}
	res, err := s.Google.Trend(c.Request.Context(), req.Keyword, req.Timeframe, req.Geo)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) combinedAnalysis(c *gin.Context) {
	var req googleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errKeywordRequired})
		return
	}
	ctx := c.Request.Context()

	naver, err := s.Naver.SearchBlogTrend(ctx, req.Keyword, "", "", "")
	if err != nil {
		s.fail(c, err)
		return
	}

	// Google Trends is unofficial and often throttled; its failure is
	// reported inline.
	var google interface{}
	if g, err := s.Google.Trend(ctx, req.Keyword, defaultGoogleTimeframe, defaultGeo); err != nil {
		s.log.Warn().Err(err).Str("keyword", req.Keyword).Msg("Google Trends failed in combined analysis")
		google = gin.H{"error": err.Error()}
	} else {
		google = g
	}

	c.JSON(http.StatusOK, gin.H{
		"keyword":            req.Keyword,
		"naver_blog_trends":  naver,
		"google_trends":      google,
		"analysis_timestamp": s.Now().Format(time.RFC3339),
	})
}

func (s *Server) declineAnalysis(c *gin.Context) {
	if s.Runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "decline analysis is not enabled"})
		return
	}
	var req declineRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cfg := s.Analysis
	if req.Market != "" {
		cfg.Market = req.Market
	}
	if req.PeriodDays != 0 {
		cfg.PeriodDays = req.PeriodDays
	}
	if req.SampleSize != 0 {
		cfg.SampleSize = req.SampleSize
	}
	if err := cfg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.Runner.Run(c.Request.Context(), cfg)
	if err != nil {
		s.fail(c, err)
		return
	}
	if s.Recorder != nil {
		if err := s.Recorder.RecordRun(c.Request.Context(), res); err != nil {
			s.log.Error().Err(err).Str("run_id", res.RunID).Msg("Failed to record run")
		}
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) declineRuns(c *gin.Context) {
	if s.Recorder == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history is not enabled"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid limit %q", c.Query("limit"))})
		return
	}
	runs, err := s.Recorder.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":                  "healthy",
		"timestamp":               s.Now().Format(time.RFC3339),
		"naver_api_configured":    s.Naver != nil && s.Naver.Configured(),
		"google_trends_available": true,
	})
}

// fail maps request errors to 400 and upstream failures to 500.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, trends.ErrInvalidPeriod) || errors.Is(err, trends.ErrNaverNotConfigured) {
		status = http.StatusBadRequest
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
