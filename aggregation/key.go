package aggregation

// Key names a loss pool. Keys are opaque labels produced by keying policies;
// pools with different keys accumulate independently and may overlap in the
// assets they draw from.
type Key string

const (
	// KeyTotal is the grand-total pool. The default policy keys every asset
	// into it in addition to its per-hazard pool.
	KeyTotal Key = "root"

	// KeyUnclassified collects losses of assets a policy could not place.
	// Policies return it instead of failing mid-run.
	KeyUnclassified Key = "unclassified"
)

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}
