package model

import (
	"strings"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Market identifies a Korean listing venue.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// ParseMarket accepts kospi/kosdaq in any case.
func ParseMarket(s string) (Market, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KOSPI":
		return MarketKOSPI, true
	case "KOSDAQ":
		return MarketKOSDAQ, true
	}
	return "", false
}

// Instrument is one listed stock.
type Instrument struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market Market `json:"market"`
}

// YahooSymbol returns the Yahoo Finance ticker for the instrument.
func (i Instrument) YahooSymbol() string {
	if strings.Contains(i.Code, ".") {
		return i.Code
	}
	switch i.Market {
	case MarketKOSPI:
		return i.Code + ".KS"
	case MarketKOSDAQ:
		return i.Code + ".KQ"
	}
	return i.Code
}
