package decline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketDecline/internal/model"
)

func bars(high, low, close []float64) []model.OHLCV {
	out := make([]model.OHLCV, len(close))
	for i := range close {
		out[i] = model.OHLCV{High: high[i], Low: low[i], Close: close[i]}
	}
	return out
}

func flatBars(n int, price float64) []model.OHLCV {
	out := make([]model.OHLCV, n)
	for i := range out {
		out[i] = model.OHLCV{High: price, Low: price, Close: price}
	}
	return out
}

func records(pcts ...float64) []model.DeclineRecord {
	out := make([]model.DeclineRecord, len(pcts))
	for i, p := range pcts {
		out[i] = model.DeclineRecord{Decline: model.Decline{MaxDeclinePct: p}}
	}
	return out
}

func TestComputeDecline(t *testing.T) {
	d, err := ComputeDecline(bars(
		[]float64{100, 110, 105},
		[]float64{95, 100, 98},
		[]float64{100, 108, 101},
	), 3)
	require.NoError(t, err)

	assert.InDelta(t, -13.6364, d.MaxDeclinePct, 1e-4)
	assert.InDelta(t, 1.0, d.PeriodReturnPct, 1e-9)
	assert.Equal(t, 110.0, d.MaxPrice)
	assert.Equal(t, 95.0, d.MinPrice)
	assert.Equal(t, 101.0, d.CurrentPrice)
}

func TestComputeDeclineUsesTrailingWindow(t *testing.T) {
	b := bars(
		[]float64{500, 100, 110, 105},
		[]float64{1, 95, 100, 98},
		[]float64{300, 100, 108, 101},
	)
	d, err := ComputeDecline(b, 3)
	require.NoError(t, err)
	assert.Equal(t, 110.0, d.MaxPrice)
	assert.Equal(t, 95.0, d.MinPrice)
	assert.InDelta(t, 1.0, d.PeriodReturnPct, 1e-9)
}

func TestComputeDeclineErrors(t *testing.T) {
	tests := []struct {
		name   string
		bars   []model.OHLCV
		window int
		want   error
	}{
		{"window larger than history", flatBars(10, 100), 30, ErrInsufficientData},
		{"empty history", nil, 1, ErrInsufficientData},
		{"zero window", flatBars(5, 100), 0, ErrInvalidWindow},
		{"negative window", flatBars(5, 100), -1, ErrInvalidWindow},
		{"zero high", flatBars(5, 0), 5, ErrZeroPrice},
		{"zero first close", bars([]float64{10, 10}, []float64{9, 9}, []float64{0, 9}), 2, ErrZeroPrice},
		{"low above high", bars([]float64{10, 10}, []float64{12, 11}, []float64{10, 10}), 2, ErrInconsistentRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeDecline(tt.bars, tt.window)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComputeDeclineRejectsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name string
		bars []model.OHLCV
	}{
		{"nan close", bars([]float64{10, 10}, []float64{9, 9}, []float64{10, nan})},
		{"nan high and low", bars([]float64{nan, 110, 120}, []float64{90, 95, nan}, []float64{100, 105, 110})},
		{"nan high", bars([]float64{nan, 110, 120}, []float64{90, 95, 100}, []float64{100, 105, 110})},
		{"nan low", bars([]float64{100, 110, 120}, []float64{90, nan, 100}, []float64{100, 105, 110})},
		{"infinite high", bars([]float64{100, inf, 120}, []float64{90, 95, 100}, []float64{100, 105, 110})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeDecline(tt.bars, len(tt.bars))
			assert.ErrorIs(t, err, ErrNonFinite)
		})
	}

	// Bars before the window do not matter.
	b := bars([]float64{nan, 110, 120}, []float64{90, 95, 100}, []float64{100, 105, 110})
	_, err := ComputeDecline(b, 2)
	assert.NoError(t, err)
}

func TestComputeDeclineFlatWindow(t *testing.T) {
	d, err := ComputeDecline(flatBars(30, 50), 30)
	require.NoError(t, err)
	assert.Zero(t, d.MaxDeclinePct)
	assert.Zero(t, d.PeriodReturnPct)
}

func TestSkippable(t *testing.T) {
	assert.True(t, Skippable(ErrInsufficientData))
	assert.True(t, Skippable(ErrZeroPrice))
	assert.True(t, Skippable(ErrInconsistentRange))
	assert.True(t, Skippable(ErrNonFinite))
	assert.False(t, Skippable(ErrInvalidWindow))
	assert.False(t, Skippable(nil))
}

func TestCategorizeBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want model.Category
	}{
		{-100, model.CategoryCrash},
		{-30.0001, model.CategoryCrash},
		{-30, model.CategorySevere},
		{-20.5, model.CategorySevere},
		{-20, model.CategoryHeavy},
		{-10, model.CategoryModerate},
		{-5, model.CategoryMild},
		{-0.0001, model.CategoryMild},
		{0, model.CategoryGain},
		{9.999, model.CategoryGain},
		{10, model.CategorySurge},
		{250, model.CategorySurge},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Categorize(tt.pct), "pct=%v", tt.pct)
	}
}

func TestCategoryLabels(t *testing.T) {
	assert.Equal(t, "-20~-30%", Categorize(-30).String())
	assert.Equal(t, "0~10%", Categorize(0).String())
	assert.Equal(t, "10% 이상", Categorize(10).String())
	assert.Equal(t, "-30% 이상", Categorize(-35).String())
}

func TestSummarizeDistribution(t *testing.T) {
	s := Summarize(records(-35, -25, -15, -8, -3, 5, 15, -35, -12, 2))

	got := make(map[string]int)
	total := 0
	for _, c := range s.Distribution {
		got[c.Label] = c.Count
		total += c.Count
	}
	assert.Equal(t, map[string]int{
		"-30% 이상": 2,
		"-20~-30%": 1,
		"-10~-20%": 2,
		"-5~-10%":  1,
		"-5~0%":    1,
		"0~10%":    2,
		"10% 이상":  1,
	}, got)
	assert.Equal(t, s.Count, total)
	assert.Equal(t, 10, s.Count)
	assert.Equal(t, -35.0, s.MaxDecline())
	assert.Equal(t, 15.0, s.MinDecline())
}

func TestSummarizeStats(t *testing.T) {
	s := Summarize(records(2, 4, 4, 4, 5, 5, 7, 9))
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 4.5, s.Median, 1e-9)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s.Std, 1e-9)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
}

func TestSummarizeSingleRecord(t *testing.T) {
	s := Summarize(records(-12))
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, -12.0, s.Mean)
	assert.Equal(t, -12.0, s.Median)
	assert.Zero(t, s.Std)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.Std)
	require.Len(t, s.Distribution, 7)
	for i, c := range s.Distribution {
		assert.Equal(t, model.Categories[i], c.Category)
		assert.Zero(t, c.Count)
	}
	assert.Nil(t, s.ByMarket)
}

func TestSummarizeByMarket(t *testing.T) {
	recs := []model.DeclineRecord{
		{Instrument: model.Instrument{Code: "005930", Market: model.MarketKOSPI}, Decline: model.Decline{MaxDeclinePct: -10}},
		{Instrument: model.Instrument{Code: "000660", Market: model.MarketKOSPI}, Decline: model.Decline{MaxDeclinePct: -20}},
		{Instrument: model.Instrument{Code: "035720", Market: model.MarketKOSDAQ}, Decline: model.Decline{MaxDeclinePct: -5}},
		{Instrument: model.Instrument{Code: "UNTAGGED"}, Decline: model.Decline{MaxDeclinePct: -1}},
	}
	s := Summarize(recs)
	require.Len(t, s.ByMarket, 2)
	assert.Equal(t, 2, s.ByMarket[model.MarketKOSPI].Count)
	assert.InDelta(t, -15.0, s.ByMarket[model.MarketKOSPI].Mean, 1e-9)
	assert.Equal(t, -20.0, s.ByMarket[model.MarketKOSPI].MaxDecline())
	assert.Equal(t, 1, s.ByMarket[model.MarketKOSDAQ].Count)
	assert.Equal(t, 4, s.Count)
}

func TestShare(t *testing.T) {
	s := Summarize(records(-35, -25, -15, 5))
	assert.InDelta(t, 25.0, s.Share(s.Distribution[0]), 1e-9)
	assert.Zero(t, Summarize(nil).Share(model.CategoryCount{}))
}

func TestRankWorst(t *testing.T) {
	recs := records(-5, -40, 3, -12, -40)
	recs[1].Code = "A"
	recs[4].Code = "B"

	top := RankWorst(recs, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "A", top[0].Code)
	assert.Equal(t, "B", top[1].Code)
	assert.Equal(t, -12.0, top[2].MaxDeclinePct)
	assert.Equal(t, -5.0, recs[0].MaxDeclinePct, "input must not be reordered")

	assert.Len(t, RankWorst(recs, 0), 5)
	assert.Len(t, RankWorst(recs, 50), 5)
}

func TestHistogram(t *testing.T) {
	h := Histogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, 5)
	require.Len(t, h, 5)
	total := 0
	for _, b := range h {
		total += b.Count
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 0.0, h[0].Lower)
	assert.Equal(t, 10.0, h[4].Upper)
	assert.Equal(t, 2, h[4].Count)

	assert.Nil(t, Histogram(nil, 30))
	single := Histogram([]float64{-3, -3}, 3)
	require.Len(t, single, 3)
	assert.Equal(t, 2, single[1].Count)
}

func TestBoxStats(t *testing.T) {
	b := BoxStats([]float64{5, 1, 3, 2, 4})
	assert.Equal(t, [5]float64{1, 2, 3, 4, 5}, b)
	assert.Equal(t, [5]float64{}, BoxStats(nil))
}

func TestFilterMarket(t *testing.T) {
	recs := []model.DeclineRecord{
		{Instrument: model.Instrument{Market: model.MarketKOSPI}},
		{Instrument: model.Instrument{Market: model.MarketKOSDAQ}},
		{Instrument: model.Instrument{Market: model.MarketKOSPI}},
	}
	assert.Len(t, FilterMarket(recs, model.MarketKOSPI), 2)
	assert.Len(t, FilterMarket(recs, model.MarketKOSDAQ), 1)
}
