package collector

import (
	"context"
	"errors"
	"fmt"

	"MarketDecline/internal/model"
)

// ErrNoData is returned when a source answers without any usable rows.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching daily price history.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	Name() string
}

// Lister defines the interface for listing the stocks of a market.
type Lister interface {
	ListStocks(ctx context.Context, market model.Market) ([]model.Instrument, error)
	Name() string
}

// FetchError marks a failure that only concerns one symbol. Batch callers
// skip the symbol and continue.
type FetchError struct {
	Source string
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
