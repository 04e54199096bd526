package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"MarketDecline/internal/model"
)

const krxBaseURL = "http://data.krx.co.kr"

// KRXLister implements Lister using the KRX market data listing endpoint.
type KRXLister struct {
	Client  *Client
	BaseURL string
}

// NewKRXLister creates a new KRX lister.
func NewKRXLister(client *Client) *KRXLister {
	return &KRXLister{Client: client, BaseURL: krxBaseURL}
}

func (l *KRXLister) Name() string { return "krx" }

// krxListing is the JSON shape of the MDCSTAT01901 listing.
type krxListing struct {
	OutBlock []struct {
		ShortCode string `json:"ISU_SRT_CD"`
		Name      string `json:"ISU_ABBRV"`
		Market    string `json:"MKT_TP_NM"`
	} `json:"OutBlock_1"`
}

func krxMarketID(m model.Market) (string, error) {
	switch m {
	case model.MarketKOSPI:
		return "STK", nil
	case model.MarketKOSDAQ:
		return "KSQ", nil
	}
	return "", fmt.Errorf("unsupported market %q", m)
}

// ListStocks returns the listed stocks of market in the order KRX reports
// them.
func (l *KRXLister) ListStocks(ctx context.Context, market model.Market) ([]model.Instrument, error) {
	mktID, err := krxMarketID(market)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT01901"},
		"locale":      {"ko_KR"},
		"mktId":       {mktID},
		"share":       {"1"},
		"csvxls_isNo": {"false"},
	}
	header := http.Header{}
	header.Set("Referer", l.BaseURL+"/contents/MDC/MDI/mdiLoader/index.cmd")

	body, err := l.Client.PostForm(ctx, l.BaseURL+"/comm/bldAttendant/getJsonData.cmd", form, header)
	if err != nil {
		return nil, fmt.Errorf("krx list %s: %w", market, err)
	}

	var listing krxListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("krx decode %s: %w", market, err)
	}

	out := make([]model.Instrument, 0, len(listing.OutBlock))
	for _, row := range listing.OutBlock {
		code := strings.TrimSpace(row.ShortCode)
		if code == "" {
			continue
		}
		out = append(out, model.Instrument{
			Code:   code,
			Name:   strings.TrimSpace(row.Name),
			Market: market,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("krx list %s: %w", market, ErrNoData)
	}
	return out, nil
}
