package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDecline/internal/model"
)

func TestKRXListStocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/comm/bldAttendant/getJsonData.cmd", r.URL.Path)
		assert.Equal(t, "dbms/MDC/STAT/standard/MDCSTAT01901", r.PostForm.Get("bld"))
		assert.Contains(t, r.Header.Get("Referer"), "/contents/MDC/")
		switch r.PostForm.Get("mktId") {
		case "STK":
			w.Write([]byte(`{"OutBlock_1":[
				{"ISU_SRT_CD":"005930","ISU_ABBRV":"삼성전자","MKT_TP_NM":"KOSPI"},
				{"ISU_SRT_CD":"","ISU_ABBRV":"blank","MKT_TP_NM":"KOSPI"},
				{"ISU_SRT_CD":"000660","ISU_ABBRV":"SK하이닉스 ","MKT_TP_NM":"KOSPI"}]}`))
		case "KSQ":
			w.Write([]byte(`{"OutBlock_1":[]}`))
		}
	}))
	defer srv.Close()

	l := NewKRXLister(testClient(0))
	l.BaseURL = srv.URL

	got, err := l.ListStocks(context.Background(), model.MarketKOSPI)
	require.NoError(t, err)
	assert.Equal(t, []model.Instrument{
		{Code: "005930", Name: "삼성전자", Market: model.MarketKOSPI},
		{Code: "000660", Name: "SK하이닉스", Market: model.MarketKOSPI},
	}, got)

	_, err = l.ListStocks(context.Background(), model.MarketKOSDAQ)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = l.ListStocks(context.Background(), model.Market("NYSE"))
	assert.Error(t, err)
}

func TestMockFetcherDeterministic(t *testing.T) {
	m := &MockFetcher{}
	a, err := m.FetchDailyBars(context.Background(), "005930.KS", 60)
	require.NoError(t, err)
	b, err := m.FetchDailyBars(context.Background(), "005930.KS", 60)
	require.NoError(t, err)
	require.Len(t, a, 60)
	assert.Equal(t, a[10].Close, b[10].Close)
	for _, bar := range a {
		assert.GreaterOrEqual(t, bar.High, bar.Low)
	}
}

func TestMockLister(t *testing.T) {
	m := &MockLister{Size: 5}
	got, err := m.ListStocks(context.Background(), model.MarketKOSDAQ)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, model.MarketKOSDAQ, got[0].Market)
	assert.Equal(t, "100000", got[0].Code)
}
