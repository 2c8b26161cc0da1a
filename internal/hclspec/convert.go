package hclspec

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// decodeAttrs evaluates every attribute in a body into its native Go form.
func decodeAttrs(body hcl.Body) (map[string]any, error) {
	attrs := make(map[string]any)
	if err := mergeAttrs(attrs, body); err != nil {
		return nil, err
	}
	return attrs, nil
}

// mergeAttrs decodes a body's attributes into an existing map, overwriting
// any keys already present.
func mergeAttrs(dst map[string]any, body hcl.Body) error {
	if body == nil {
		return nil
	}
	hclAttrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return fmt.Errorf("invalid attributes: %w", diags)
	}
	for name, attr := range hclAttrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("invalid value for attribute '%s': %w", name, diags)
		}
		native, err := ctyToNative(val)
		if err != nil {
			return fmt.Errorf("in attribute '%s': %w", name, err)
		}
		dst[name] = native
	}
	return nil
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers become int because they overwhelmingly name
// dimensions and axes; everything else numeric becomes float64.
func ctyToNative(v cty.Value) (any, error) {
	// A nil or unknown value becomes a nil interface{}.
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i), nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("internal error: failed to convert cty.Bool to bool: %w", err)
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for attribute conversion: %s", ty.FriendlyName())
	}
}
