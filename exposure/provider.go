// Package exposure supplies monetary exposure values for assets.
//
// The aggregation engine converts fractional impacts into currency losses by
// multiplying them with an exposure scalar: the asset's current value for
// damage impacts, or its expected cashflow over a period for disruption
// impacts. FinancialDataProvider is the contract for the component that
// supplies those scalars; Static is an in-memory implementation and Cache is a
// Redis-backed read-through decorator for providers with slow upstream calls.
package exposure

import (
	"context"
	"errors"
	"time"

	"github.com/perilpool/sdk/asset"
)

// Sentinel errors returned by providers.
var (
	// ErrUnknownAsset indicates the provider holds no financial data for the
	// asset.
	ErrUnknownAsset = errors.New("no financial data for asset")

	// ErrUnsupportedCurrency indicates the provider cannot express values in
	// the requested currency.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidPeriod indicates a cashflow period whose end precedes its start.
	ErrInvalidPeriod = errors.New("period end precedes start")
)

// FinancialDataProvider resolves assets to monetary exposure scalars.
//
// Both operations must fail with a descriptive error when the asset or
// currency is unsupported. Returning zero for missing data is forbidden: a
// silent zero would understate portfolio risk, so the aggregation engine
// treats provider failures as fatal for the whole run.
type FinancialDataProvider interface {
	// GetAssetValue returns the current value of the asset in the specified
	// currency.
	GetAssetValue(ctx context.Context, a asset.Asset, currency string) (float64, error)

	// GetAssetAggregateCashflows returns the expected sum of the cashflows
	// generated by the asset between start and end inclusive, in the
	// specified currency.
	GetAssetAggregateCashflows(ctx context.Context, a asset.Asset, start, end time.Time, currency string) (float64, error)
}
