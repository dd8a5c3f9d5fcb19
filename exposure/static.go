package exposure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/perilpool/sdk/asset"
)

// daysPerYear is the ACT/365 Fixed day-count basis used to prorate annual
// cashflows over arbitrary periods.
const daysPerYear = 365.0

// Entry holds the financial data recorded for one asset.
//
// Monetary amounts are decimals in the provider's base currency so that
// values parsed from configuration keep their exact magnitude until the final
// conversion to float64.
type Entry struct {
	// Value is the current value of the asset.
	Value decimal.Decimal

	// AnnualCashflow is the expected cashflow generated by the asset over a
	// full year.
	AnnualCashflow decimal.Decimal
}

// Static is an in-memory FinancialDataProvider.
//
// Amounts are stored in a base currency and converted on demand through a
// fixed FX table. The base currency always converts at rate one. Static is
// safe for concurrent use.
type Static struct {
	mu       sync.RWMutex
	currency string
	rates    map[string]decimal.Decimal
	entries  map[string]Entry
}

// NewStatic creates an empty provider whose amounts are denominated in
// baseCurrency.
func NewStatic(baseCurrency string) *Static {
	return &Static{
		currency: baseCurrency,
		rates:    make(map[string]decimal.Decimal),
		entries:  make(map[string]Entry),
	}
}

// SetEntry records the financial data for an asset ID, replacing any previous
// entry.
func (s *Static) SetEntry(assetID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[assetID] = e
}

// SetRate records the conversion rate from the base currency into currency:
// one unit of the base currency buys rate units of currency.
func (s *Static) SetRate(currency string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[currency] = rate
}

// GetAssetValue returns the asset's current value converted into currency.
func (s *Static) GetAssetValue(_ context.Context, a asset.Asset, currency string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[a.ID()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAsset, a.ID())
	}

	rate, err := s.rate(currency)
	if err != nil {
		return 0, err
	}
	return entry.Value.Mul(rate).InexactFloat64(), nil
}

// GetAssetAggregateCashflows prorates the asset's annual cashflow over
// [start, end] inclusive on an ACT/365 basis and converts it into currency.
func (s *Static) GetAssetAggregateCashflows(_ context.Context, a asset.Asset, start, end time.Time, currency string) (float64, error) {
	if end.Before(start) {
		return 0, fmt.Errorf("%w: %s after %s", ErrInvalidPeriod, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[a.ID()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAsset, a.ID())
	}

	rate, err := s.rate(currency)
	if err != nil {
		return 0, err
	}

	days := end.Sub(start).Hours()/24 + 1
	fraction := decimal.NewFromFloat(days / daysPerYear)
	return entry.AnnualCashflow.Mul(fraction).Mul(rate).InexactFloat64(), nil
}

// rate returns the conversion factor from the base currency into currency.
// Callers must hold at least a read lock.
func (s *Static) rate(currency string) (decimal.Decimal, error) {
	if currency == s.currency {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s.rates[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, currency)
	}
	return rate, nil
}
