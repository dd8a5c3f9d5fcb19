// Package portfolio loads asset inventories from YAML files.
//
// A portfolio file names the assets of an aggregation run together with the
// financial data needed to scale their losses: a base currency, an optional
// FX table, and per-asset values and annual cashflows. Monetary amounts are
// written as strings and parsed into decimals so that portfolio files never
// lose precision on the way in.
//
// Example:
//
//	name: coastal-plants
//	currency: EUR
//	fx:
//	  USD: "1.08"
//	assets:
//	  - id: plant-1
//	    kind: power_generating
//	    name: Delta Station
//	    region: EU
//	    latitude: 51.9
//	    longitude: 4.4
//	    capacity_mw: 120
//	    value: "250000000"
//	    annual_cashflow: "18000000"
package portfolio

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/exposure"
)

// Asset kinds accepted in portfolio files.
const (
	KindBase            = "base"
	KindPowerGenerating = "power_generating"
)

// document is the raw YAML schema of a portfolio file.
type document struct {
	Name     string            `yaml:"name"`
	Currency string            `yaml:"currency,omitempty"` // base currency, default "EUR"
	FX       map[string]string `yaml:"fx,omitempty"`       // currency -> units per base unit
	Assets   []assetEntry      `yaml:"assets"`
}

type assetEntry struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind,omitempty"` // "base" (default) or "power_generating"
	Name string `yaml:"name,omitempty"`

	Region string `yaml:"region,omitempty"`
	Sector string `yaml:"sector,omitempty"`

	Latitude  float64 `yaml:"latitude,omitempty"`
	Longitude float64 `yaml:"longitude,omitempty"`

	// CapacityMW is only meaningful for power_generating assets.
	CapacityMW float64 `yaml:"capacity_mw,omitempty"`

	// Value is the current asset value in the base currency, as a decimal string.
	Value string `yaml:"value"`

	// AnnualCashflow is the expected yearly cashflow in the base currency,
	// as a decimal string. Defaults to zero.
	AnnualCashflow string `yaml:"annual_cashflow,omitempty"`
}

// Portfolio is a parsed and validated portfolio file. It exposes the declared
// assets in file order and a FinancialDataProvider backed by the declared
// values, cashflows, and FX table.
type Portfolio struct {
	Name     string
	Currency string

	assets   []asset.Asset
	provider *exposure.Static
}

// Parse parses and validates a YAML portfolio document.
func Parse(data []byte) (*Portfolio, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse portfolio file: %w", err)
	}

	if len(doc.Assets) == 0 {
		return nil, fmt.Errorf("portfolio defines no assets")
	}
	if doc.Currency == "" {
		doc.Currency = "EUR"
	}

	provider := exposure.NewStatic(doc.Currency)
	for currency, raw := range doc.FX {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("fx rate for %s: invalid decimal %q: %w", currency, raw, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("fx rate for %s must be positive, got %s", currency, rate)
		}
		provider.SetRate(currency, rate)
	}

	assets := make([]asset.Asset, 0, len(doc.Assets))
	seen := make(map[string]bool, len(doc.Assets))
	for i, entry := range doc.Assets {
		if entry.ID == "" {
			return nil, fmt.Errorf("asset %d: missing id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate asset id %q", entry.ID)
		}
		seen[entry.ID] = true

		a, err := buildAsset(entry)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)

		value, err := decimal.NewFromString(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("asset %q: invalid value %q: %w", entry.ID, entry.Value, err)
		}
		cashflow := decimal.Zero
		if entry.AnnualCashflow != "" {
			cashflow, err = decimal.NewFromString(entry.AnnualCashflow)
			if err != nil {
				return nil, fmt.Errorf("asset %q: invalid annual_cashflow %q: %w", entry.ID, entry.AnnualCashflow, err)
			}
		}
		provider.SetEntry(entry.ID, exposure.Entry{
			Value:          value,
			AnnualCashflow: cashflow,
		})
	}

	return &Portfolio{
		Name:     doc.Name,
		Currency: doc.Currency,
		assets:   assets,
		provider: provider,
	}, nil
}

// Load reads and parses a portfolio file from the given path.
func Load(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read portfolio file: %w", err)
	}
	return Parse(data)
}

// Assets returns the portfolio's assets in file order.
func (p *Portfolio) Assets() []asset.Asset {
	out := make([]asset.Asset, len(p.assets))
	copy(out, p.assets)
	return out
}

// Provider returns a FinancialDataProvider over the portfolio's financial
// data. The provider resolves values and cashflows for exactly the assets in
// the file, converted through the FX table when a non-base currency is
// requested.
func (p *Portfolio) Provider() *exposure.Static {
	return p.provider
}

func buildAsset(entry assetEntry) (asset.Asset, error) {
	base := asset.Base{
		AssetID:   entry.ID,
		AssetName: entry.Name,
		Region:    entry.Region,
		Sector:    entry.Sector,
		Latitude:  entry.Latitude,
		Longitude: entry.Longitude,
	}

	switch entry.Kind {
	case "", KindBase:
		return &base, nil
	case KindPowerGenerating:
		return &asset.PowerGeneratingAsset{Base: base, Capacity: entry.CapacityMW}, nil
	default:
		return nil, fmt.Errorf("asset %q: unknown kind %q", entry.ID, entry.Kind)
	}
}
