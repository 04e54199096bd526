package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
	"MarketDecline/internal/recorder"
)

func testNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.BaseURL = srv.URL
	n.RetryInterval = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "42", payload["chat_id"])
		assert.Equal(t, "HTML", payload["parse_mode"])
		assert.Equal(t, "hello", payload["text"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv).Send(context.Background(), "hello"))
}

func TestSendWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, testNotifier(srv).SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSendWithRetryStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := testNotifier(srv).SendWithRetry(context.Background(), "hi", 3)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSendWithRetryExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := testNotifier(srv).SendWithRetry(context.Background(), "hi", 2)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPollingDispatchesCommands(t *testing.T) {
	var replies []string
	replied := make(chan struct{}, 1)
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /summary ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/run","chat":{"id":99}}}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			time.Sleep(10 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			replies = append(replies, payload["text"])
			w.Write([]byte(`{"ok":true}`))
			replied <- struct{}{}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []string
	done := make(chan struct{})
	go func() {
		testNotifier(srv).StartPolling(ctx, func(_ context.Context, cmd string) string {
			seen = append(seen, cmd)
			return "ok:" + cmd
		})
		close(done)
	}()

	select {
	case <-replied:
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done

	assert.Equal(t, []string{"/summary"}, seen)
	assert.Equal(t, []string{"ok:/summary"}, replies)
}

func sampleResult() *model.AnalysisResult {
	recs := []model.DeclineRecord{
		{Instrument: model.Instrument{Code: "005930", Name: "삼성전자", Market: model.MarketKOSPI}, Decline: model.Decline{MaxDeclinePct: -8}},
		{Instrument: model.Instrument{Code: "123456", Name: "A&B", Market: model.MarketKOSDAQ}, Decline: model.Decline{MaxDeclinePct: -42}},
	}
	return &model.AnalysisResult{
		MarketName: "KOSPI + KOSDAQ",
		PeriodDays: 30,
		Skipped:    3,
		FinishedAt: time.Date(2024, 6, 3, 16, 40, 0, 0, time.UTC),
		Records:    recs,
		Summary:    decline.Summarize(recs),
	}
}

func TestFormatAnalysisReport(t *testing.T) {
	msg := FormatAnalysisReport(sampleResult(), 5)
	assert.Contains(t, msg, "2024-06-03 16:40")
	assert.Contains(t, msg, "분석 종목: 2개 (제외 3개)")
	assert.Contains(t, msg, "최대 하락률: -42.00%")
	assert.Contains(t, msg, "-30% 이상: 1 (50.0%)")
	assert.Contains(t, msg, "1. A&amp;B (123456) -42.00%")
	assert.Contains(t, msg, "KOSDAQ: 1개")
}

func TestFormatAnalysisReportEmpty(t *testing.T) {
	res := &model.AnalysisResult{MarketName: "KOSPI", Summary: decline.Summarize(nil)}
	msg := FormatAnalysisReport(res, 5)
	assert.Contains(t, msg, "분석할 수 있는 데이터가 없습니다.")
}

func TestFormatRunHistory(t *testing.T) {
	assert.Equal(t, "기록된 분석이 없습니다.", FormatRunHistory(nil))
	msg := FormatRunHistory([]recorder.RunSummary{{
		StartedAt:  time.Date(2024, 6, 3, 16, 30, 0, 0, time.UTC),
		MarketName: "KOSPI",
		PeriodDays: 30,
		Stats:      model.Stats{Count: 10, Mean: -7.5, Min: -20},
	}})
	assert.Contains(t, msg, "06-03 16:30 KOSPI 30일: 10개, 평균 -7.50%, 최대 -20.00%")
}

func TestFormatError(t *testing.T) {
	assert.Contains(t, FormatError("분석", errors.New("a<b")), "a&lt;b")
}

func TestTruncateUTF8(t *testing.T) {
	s := "가나다"
	assert.Equal(t, "가", truncateUTF8(s, 4))
	assert.Equal(t, s, truncateUTF8(s, 100))
	assert.Equal(t, s, truncateUTF8(s, len(s)))
	assert.Equal(t, "", truncateUTF8(s, 0))
}
