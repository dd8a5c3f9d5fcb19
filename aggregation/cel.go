package aggregation

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"

	"github.com/perilpool/sdk/asset"
	"github.com/perilpool/sdk/impact"
)

var stringSliceType = reflect.TypeOf([]string{})

// CELAggregator is a keying policy compiled from a CEL expression, letting
// deployments define pool structure in configuration instead of code.
//
// The expression is evaluated per asset with two variables in scope:
//
//	asset   map with "id", "name", "region", "sector", and any other
//	        attributes the concrete asset type exposes
//	impact  map with "type" ("damage"/"disruption") and "event" (hazard name)
//
// It must produce a string (one pool) or a list of strings (several pools).
// Runtime evaluation failures, including references to attributes an asset
// does not carry, yield [KeyUnclassified]: policies never abort a run.
//
// Example, pooling by region and hazard with a grand total:
//
//	[asset.region + "/" + impact.event, "root"]
type CELAggregator struct {
	program cel.Program
}

// NewCELAggregator compiles and plans the expression. All compilation and
// type errors surface here; a constructed aggregator does not fail later.
func NewCELAggregator(expr string) (*CELAggregator, error) {
	env, err := cel.NewEnv(
		cel.Variable("asset", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("impact", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile keying expression: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to plan keying expression: %w", err)
	}

	return &CELAggregator{program: program}, nil
}

// AggregationKeys evaluates the expression for the asset and its impact
// distribution.
func (c *CELAggregator) AggregationKeys(a asset.Asset, d impact.Distribution) []Key {
	out, _, err := c.program.Eval(map[string]any{
		"asset": assetVars(a),
		"impact": map[string]any{
			"type":  d.ImpactType().String(),
			"event": d.Event().String(),
		},
	})
	if err != nil {
		return []Key{KeyUnclassified}
	}

	if s, ok := out.Value().(string); ok {
		return []Key{Key(s)}
	}

	native, err := out.ConvertToNative(stringSliceType)
	if err != nil {
		return []Key{KeyUnclassified}
	}

	strs := native.([]string)
	keys := make([]Key, 0, len(strs))
	for _, s := range strs {
		keys = append(keys, Key(s))
	}
	return keys
}

// assetVars flattens an asset into the expression's "asset" variable. Assets
// that expose no attributes are still addressable by id.
func assetVars(a asset.Asset) map[string]any {
	if attributed, ok := a.(asset.Attributed); ok {
		return attributed.Attributes()
	}
	return map[string]any{"id": a.ID()}
}
