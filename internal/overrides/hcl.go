package overrides

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/nvandessel/hydrorun/internal/tree"
)

// FromHCL decodes an HCL override file. Blocks open branches and
// attributes set leaves; object values nest the same way:
//
//	basin_settings {
//	  model {
//	    calibration { n_tail_years_to_trim = 2 }
//	  }
//	}
//	physical_parameters {
//	  basin_area = { val = 524, opt = true }
//	}
//	data { streamflow = "${env.HOME}/flow.prn" }
//
// Expressions may read environment variables through env.
func FromHCL(src []byte, filename string) (tree.Partial, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("failed to parse HCL file %s: unexpected body type %T", filename, file.Body)
	}
	out := tree.Partial{}
	if err := decodeBody(body, out, envContext()); err != nil {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, err)
	}
	return out, nil
}

func decodeBody(body *hclsyntax.Body, out tree.Partial, ctx *hcl.EvalContext) error {
	for name, attr := range body.Attributes {
		val, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return diags
		}
		native, err := ctyToNative(val)
		if err != nil {
			return fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = native
	}
	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			return fmt.Errorf("block %q: labels are not supported", block.Type)
		}
		sub, ok := out[block.Type].(tree.Partial)
		if !ok {
			sub = tree.Partial{}
			out[block.Type] = sub
		}
		if err := decodeBody(block.Body, sub, ctx); err != nil {
			return fmt.Errorf("block %q: %w", block.Type, err)
		}
	}
	return nil
}

// ctyToNative converts a cty value to a tree scalar or a nested Partial.
// Whole numbers become int64 so integer leaves accept them.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("value is null or unknown")
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := tree.Partial{}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			native, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", k.AsString(), err)
			}
			out[k.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

func envContext() *hcl.EvalContext {
	env := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}
