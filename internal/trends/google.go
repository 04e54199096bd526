package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MarketDecline/internal/collector"
	"MarketDecline/internal/logging"
	"MarketDecline/internal/model"
)

const googleBaseURL = "https://trends.google.com"

// MaxKeywords is the most keywords Google Trends compares at once.
const MaxKeywords = 5

// Supported Google Trends timeframes.
var Timeframes = []string{"today 7-d", "today 1-m", "today 3-m", "today 12-m", "today 5-y"}

// ErrWidgetMissing is returned when an explore response lacks a widget.
var ErrWidgetMissing = errors.New("trends widget missing")

// GoogleClient talks to the unofficial Google Trends web endpoints.
type GoogleClient struct {
	BaseURL  string
	Language string
	TZOffset int // minutes west of UTC, -540 for KST
	Client   *collector.Client
	log      zerolog.Logger

	once sync.Once
}

// NewGoogleClient creates a new Google Trends client. The shared client
// must keep cookies.
func NewGoogleClient(language string, tzOffset int, client *collector.Client) *GoogleClient {
	return &GoogleClient{
		BaseURL:  googleBaseURL,
		Language: language,
		TZOffset: tzOffset,
		Client:   client,
		log:      logging.Component("google_trends"),
	}
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
	Keyword string          `json:"-"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Geo     string `json:"geo"`
	Time    string `json:"time"`
}

// warmUp fetches the landing page once so the session carries the NID
// cookie the API endpoints expect.
func (g *GoogleClient) warmUp(ctx context.Context, geo string) {
	g.once.Do(func() {
		if _, err := g.Client.Get(ctx, g.BaseURL+"/?geo="+url.QueryEscape(geo), nil); err != nil {
			g.log.Debug().Err(err).Msg("Cookie warm-up failed")
		}
	})
}

// stripPrefix removes the anti-JSON-hijacking prefix of Trends responses.
func stripPrefix(body []byte) []byte {
	if i := bytes.IndexByte(body, '{'); i >= 0 {
		return body[i:]
	}
	return body
}

func (g *GoogleClient) commonParams() url.Values {
	return url.Values{
		"hl": {g.Language},
		"tz": {strconv.Itoa(g.TZOffset)},
	}
}

func (g *GoogleClient) explore(ctx context.Context, keywords []string, timeframe, geo string) ([]widget, error) {
	g.warmUp(ctx, geo)

	items := make([]comparisonItem, len(keywords))
	for i, kw := range keywords {
		items[i] = comparisonItem{Keyword: kw, Geo: geo, Time: timeframe}
	}
	req, err := json.Marshal(map[string]interface{}{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, err
	}
	params := g.commonParams()
	params.Set("req", string(req))

	body, err := g.Client.Get(ctx, g.BaseURL+"/trends/api/explore?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("explore: %w", err)
	}
	var resp struct {
		Widgets []widget `json:"widgets"`
	}
	if err := json.Unmarshal(stripPrefix(body), &resp); err != nil {
		return nil, fmt.Errorf("decode explore: %w", err)
	}

	for i := range resp.Widgets {
		w := &resp.Widgets[i]
		var r struct {
			Restriction struct {
				ComplexKeywordsRestriction struct {
					Keyword []struct {
						Value string `json:"value"`
					} `json:"keyword"`
				} `json:"complexKeywordsRestriction"`
			} `json:"restriction"`
		}
		if json.Unmarshal(w.Request, &r) == nil && len(r.Restriction.ComplexKeywordsRestriction.Keyword) > 0 {
			w.Keyword = r.Restriction.ComplexKeywordsRestriction.Keyword[0].Value
		}
	}
	return resp.Widgets, nil
}

func findWidget(widgets []widget, prefix, keyword string) (widget, error) {
	for _, w := range widgets {
		if !strings.HasPrefix(w.ID, prefix) {
			continue
		}
		if keyword == "" || w.Keyword == "" || w.Keyword == keyword {
			return w, nil
		}
	}
	return widget{}, fmt.Errorf("%w: %s", ErrWidgetMissing, prefix)
}

func (g *GoogleClient) widgetData(ctx context.Context, kind string, w widget, out interface{}) error {
	params := g.commonParams()
	params.Set("req", string(w.Request))
	params.Set("token", w.Token)
	body, err := g.Client.Get(ctx, g.BaseURL+"/trends/api/widgetdata/"+kind+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("widgetdata %s: %w", kind, err)
	}
	if err := json.Unmarshal(stripPrefix(body), out); err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

func (g *GoogleClient) interestOverTime(ctx context.Context, widgets []widget, keywords []string) ([]model.InterestPoint, error) {
	w, err := findWidget(widgets, "TIMESERIES", "")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Default struct {
			TimelineData []struct {
				Time      string `json:"time"`
				Value     []int  `json:"value"`
				HasData   []bool `json:"hasData"`
				IsPartial bool   `json:"isPartial"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := g.widgetData(ctx, "multiline", w, &resp); err != nil {
		return nil, err
	}

	points := make([]model.InterestPoint, 0, len(resp.Default.TimelineData))
	for _, td := range resp.Default.TimelineData {
		sec, err := strconv.ParseInt(td.Time, 10, 64)
		if err != nil {
			continue
		}
		p := model.InterestPoint{
			Time:      time.Unix(sec, 0).UTC(),
			Values:    make(map[string]int, len(keywords)),
			IsPartial: td.IsPartial,
		}
		for i, kw := range keywords {
			if i < len(td.Value) {
				p.Values[kw] = td.Value[i]
			}
		}
		points = append(points, p)
	}
	return points, nil
}

func (g *GoogleClient) relatedQueries(ctx context.Context, widgets []widget, keyword string) (model.RelatedQueries, error) {
	w, err := findWidget(widgets, "RELATED_QUERIES", keyword)
	if err != nil {
		return model.RelatedQueries{}, err
	}
	var resp struct {
		Default struct {
			RankedList []struct {
				RankedKeyword []struct {
					Query string `json:"query"`
					Value int    `json:"value"`
				} `json:"rankedKeyword"`
			} `json:"rankedList"`
		} `json:"default"`
	}
	if err := g.widgetData(ctx, "relatedsearches", w, &resp); err != nil {
		return model.RelatedQueries{}, err
	}

	var out model.RelatedQueries
	for i, list := range resp.Default.RankedList {
		queries := make([]model.RankedQuery, 0, len(list.RankedKeyword))
		for _, rk := range list.RankedKeyword {
			queries = append(queries, model.RankedQuery{Query: rk.Query, Value: rk.Value})
		}
		switch i {
		case 0:
			out.Top = queries
		case 1:
			out.Rising = queries
		}
	}
	return out, nil
}

func (g *GoogleClient) interestByRegion(ctx context.Context, widgets []widget, keyword string) ([]model.RegionInterest, error) {
	w, err := findWidget(widgets, "GEO_MAP", keyword)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Default struct {
			GeoMapData []struct {
				GeoName string `json:"geoName"`
				Value   []int  `json:"value"`
			} `json:"geoMapData"`
		} `json:"default"`
	}
	if err := g.widgetData(ctx, "comparedgeo", w, &resp); err != nil {
		return nil, err
	}

	out := make([]model.RegionInterest, 0, len(resp.Default.GeoMapData))
	for _, gm := range resp.Default.GeoMapData {
		v := 0
		if len(gm.Value) > 0 {
			v = gm.Value[0]
		}
		out = append(out, model.RegionInterest{Region: gm.GeoName, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, nil
}

// InterestOverTime returns the relative interest of up to five keywords.
func (g *GoogleClient) InterestOverTime(ctx context.Context, keywords []string, timeframe, geo string) ([]model.InterestPoint, error) {
	if len(keywords) == 0 || len(keywords) > MaxKeywords {
		return nil, fmt.Errorf("compare 1 to %d keywords, got %d", MaxKeywords, len(keywords))
	}
	widgets, err := g.explore(ctx, keywords, timeframe, geo)
	if err != nil {
		return nil, err
	}
	return g.interestOverTime(ctx, widgets, keywords)
}

// RelatedQueries returns the top and rising searches related to keyword.
func (g *GoogleClient) RelatedQueries(ctx context.Context, keyword, timeframe, geo string) (model.RelatedQueries, error) {
	widgets, err := g.explore(ctx, []string{keyword}, timeframe, geo)
	if err != nil {
		return model.RelatedQueries{}, err
	}
	return g.relatedQueries(ctx, widgets, keyword)
}

// Trend collects interest over time, related queries and regional interest
// for a single keyword. Related queries and regions are best effort.
func (g *GoogleClient) Trend(ctx context.Context, keyword, timeframe, geo string) (*model.GoogleTrend, error) {
	widgets, err := g.explore(ctx, []string{keyword}, timeframe, geo)
	if err != nil {
		return nil, err
	}
	points, err := g.interestOverTime(ctx, widgets, []string{keyword})
	if err != nil {
		return nil, err
	}
	out := &model.GoogleTrend{
		Keyword:          keyword,
		Geo:              geo,
		Timeframe:        timeframe,
		InterestOverTime: points,
	}
	if rq, err := g.relatedQueries(ctx, widgets, keyword); err != nil {
		g.log.Warn().Err(err).Str("keyword", keyword).Msg("Related queries unavailable")
	} else {
		out.RelatedQueries = rq
	}
	if regions, err := g.interestByRegion(ctx, widgets, keyword); err != nil {
		g.log.Warn().Err(err).Str("keyword", keyword).Msg("Regional interest unavailable")
	} else {
		out.InterestByRegion = regions
	}
	return out, nil
}

type trendingRSS struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

// TrendingSearches returns today's trending searches of a country.
func (g *GoogleClient) TrendingSearches(ctx context.Context, geo string) ([]string, error) {
	body, err := g.Client.Get(ctx, g.BaseURL+"/trending/rss?geo="+url.QueryEscape(geo), nil)
	if err != nil {
		return nil, fmt.Errorf("trending searches: %w", err)
	}
	var feed trendingRSS
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode trending rss: %w", err)
	}
	out := make([]string, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		if t := strings.TrimSpace(it.Title); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}
