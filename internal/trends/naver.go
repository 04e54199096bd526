package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"MarketDecline/internal/collector"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
)

const (
	naverBaseURL = "https://openapi.naver.com"

	// Blog search API paging limits.
	naverPageSize = 100
	naverMaxStart = 1000

	dateLayout = "2006-01-02"
)

// ErrNaverNotConfigured is returned when Naver API credentials are missing.
var ErrNaverNotConfigured = errors.New("naver api credentials not configured")

// ErrInvalidPeriod is returned for malformed or reversed date ranges.
var ErrInvalidPeriod = errors.New("invalid period")

// NaverClient queries the Naver blog search API.
type NaverClient struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	Client       *collector.Client
	Now          func() time.Time
	log          zerolog.Logger
}

// NewNaverClient creates a new Naver blog search client.
func NewNaverClient(clientID, clientSecret string, client *collector.Client) *NaverClient {
	return &NaverClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		BaseURL:      naverBaseURL,
		Client:       client,
		Now:          time.Now,
		log:          logging.Component("naver"),
	}
}

// Configured reports whether credentials are set.
func (n *NaverClient) Configured() bool {
	return n.ClientID != "" && n.ClientSecret != ""
}

type naverBlogResponse struct {
	Total   int `json:"total"`
	Start   int `json:"start"`
	Display int `json:"display"`
	Items   []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		PostDate string `json:"postdate"`
	} `json:"items"`
}

func (n *NaverClient) searchPage(ctx context.Context, keyword, sort string, start int) (*naverBlogResponse, error) {
	q := url.Values{
		"query":   {keyword},
		"display": {strconv.Itoa(naverPageSize)},
		"start":   {strconv.Itoa(start)},
		"sort":    {sort},
	}
	header := http.Header{}
	header.Set("X-Naver-Client-Id", n.ClientID)
	header.Set("X-Naver-Client-Secret", n.ClientSecret)

	body, err := n.Client.Get(ctx, n.BaseURL+"/v1/search/blog.json?"+q.Encode(), header)
	if err != nil {
		return nil, err
	}
	var resp naverBlogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode blog search: %w", err)
	}
	return &resp, nil
}

// SearchBlogTrend counts blog posts mentioning keyword per day between
// start and end (YYYY-MM-DD, inclusive). Empty dates default to the last
// 30 days. Counts come from paging the search results and bucketing each
// post by its post date, so they are bounded by the first 1000 results.
func (n *NaverClient) SearchBlogTrend(ctx context.Context, keyword, start, end, sort string) (*model.BlogTrend, error) {
	if !n.Configured() {
		return nil, ErrNaverNotConfigured
	}
	from, to, err := n.period(start, end)
	if err != nil {
		return nil, err
	}
	if sort == "" {
		sort = "date"
	}

	counts := make(map[string]int)
	oldest := ""
	var pageErr error
	for offset := 1; offset <= naverMaxStart; offset += naverPageSize {
		page, err := n.searchPage(ctx, keyword, sort, offset)
		if err != nil {
			if offset == 1 || ctx.Err() != nil {
				return nil, fmt.Errorf("naver blog search %q: %w", keyword, err)
			}
			pageErr = err
			n.log.Warn().Err(err).Int("start", offset).Msg("Blog search page failed, returning partial counts")
			break
		}
		for _, item := range page.Items {
			day, err := time.Parse("20060102", item.PostDate)
			if err != nil {
				continue
			}
			key := day.Format(dateLayout)
			if oldest == "" || key < oldest {
				oldest = key
			}
			if day.Before(from) || day.After(to) {
				continue
			}
			counts[key]++
		}
		if len(page.Items) < naverPageSize || offset+naverPageSize > page.Total {
			break
		}
		// Date-sorted results are exhausted once they pass the window.
		if sort == "date" && oldest != "" && oldest < from.Format(dateLayout) {
			break
		}
	}

	var daily []model.DailyCount
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		dc := model.DailyCount{Date: key, Count: counts[key]}
		if pageErr != nil && (oldest == "" || key < oldest) {
			dc.Error = pageErr.Error()
		}
		daily = append(daily, dc)
	}

	summary := Summarize(daily)
	return &model.BlogTrend{
		Keyword:     keyword,
		Period:      fmt.Sprintf("%s ~ %s", from.Format(dateLayout), to.Format(dateLayout)),
		DailyTrends: daily,
		Summary:     &summary,
	}, nil
}

func (n *NaverClient) period(start, end string) (time.Time, time.Time, error) {
	now := n.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	to := today
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", ErrInvalidPeriod, end)
		}
		to = t
	}
	from := today.AddDate(0, 0, -30)
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", ErrInvalidPeriod, start)
		}
		from = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %s is after end_date %s", ErrInvalidPeriod, from.Format(dateLayout), to.Format(dateLayout))
	}
	return from, to, nil
}
