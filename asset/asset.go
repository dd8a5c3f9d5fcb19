// Package asset defines the asset handles that flow through impact and loss
// aggregation calculations.
//
// The aggregation engine treats assets as opaque: it uses them as map keys and
// passes them to the impact source, the financial data provider, and the
// aggregation keying policy, but never inspects their internals. Concrete asset
// types carry the location and classification attributes those collaborators
// need, exposed through Attributes for policies that group assets dynamically.
package asset

// Asset is the opaque identity handle for a single physical asset.
//
// Implementations should use pointer receivers so that asset values are
// comparable and usable as map keys, and IDs should be unique within a
// portfolio.
type Asset interface {
	// ID returns the portfolio-unique identifier of the asset.
	ID() string
}

// Attributed is implemented by assets that expose their attributes as a map.
// Keying policies use this to group assets by arbitrary fields (region,
// sector, custom tags) without depending on concrete asset types.
type Attributed interface {
	Attributes() map[string]any
}

// Base holds the fields common to all asset types.
type Base struct {
	// AssetID is the portfolio-unique identifier.
	AssetID string

	// AssetName is a human-readable label.
	AssetName string

	// Region is a caller-defined geography tag (e.g. "EU", "APAC").
	Region string

	// Sector is a caller-defined industry tag (e.g. "power", "real_estate").
	Sector string

	// Latitude and Longitude locate the asset for hazard lookups.
	Latitude  float64
	Longitude float64
}

// ID returns the asset identifier.
func (b *Base) ID() string {
	return b.AssetID
}

// Name returns the human-readable label of the asset.
func (b *Base) Name() string {
	return b.AssetName
}

// Attributes returns the asset's fields as a map for dynamic keying policies.
func (b *Base) Attributes() map[string]any {
	return map[string]any{
		"id":        b.AssetID,
		"name":      b.AssetName,
		"region":    b.Region,
		"sector":    b.Sector,
		"latitude":  b.Latitude,
		"longitude": b.Longitude,
	}
}

// PowerGeneratingAsset is a power plant or generation unit.
type PowerGeneratingAsset struct {
	Base

	// Capacity is the nameplate generation capacity in megawatts.
	Capacity float64
}

// Attributes returns the base attributes plus generation-specific fields.
func (p *PowerGeneratingAsset) Attributes() map[string]any {
	attrs := p.Base.Attributes()
	attrs["capacity_mw"] = p.Capacity
	return attrs
}
