package impact

import "fmt"

// Type classifies what an impact fraction applies to.
type Type string

const (
	// TypeDamage is a fractional, typically permanent, reduction in asset value.
	TypeDamage Type = "damage"

	// TypeDisruption is a fractional reduction of periodic cashflow over a
	// stated horizon.
	TypeDisruption Type = "disruption"
)

// IsValid returns true if the impact type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeDamage, TypeDisruption:
		return true
	default:
		return false
	}
}

// String returns the string representation of the impact type.
func (t Type) String() string {
	return string(t)
}

// ParseType parses a string into a Type value.
// Returns an error if the string is not a recognized impact type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unrecognized impact type: %s", s)
	}
	return t, nil
}

// AllTypes returns all recognized impact types.
func AllTypes() []Type {
	return []Type{TypeDamage, TypeDisruption}
}
