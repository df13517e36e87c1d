// Package values coerces the untyped port and variable values seen by the
// built-in node types. Port data is opaque to the engine, so each node
// decides how strictly it reads its inputs. Coercion goes through cty with
// the same conversion rules HCL applies to attribute values.
package values

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/flowcore/internal/hcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var conv = hcl.NewConverter()

// Cty binds v to a cty value.
func Cty(v any) (cty.Value, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return conv.ToCtyValue(v)
}

// Go turns a cty value back into a plain port value. Integral numbers come
// back as int.
func Go(v cty.Value) (any, error) {
	return conv.FromCtyValue(v)
}

// ToNumber reads v as a cty number. Numeric strings are accepted; nil is
// zero.
func ToNumber(v any) (cty.Value, error) {
	if v == nil {
		return cty.Zero, nil
	}
	cv, err := Cty(v)
	if err != nil {
		return cty.NilVal, err
	}
	if cv.IsNull() {
		return cty.Zero, nil
	}
	n, err := convert.Convert(cv, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot use %s as a number: %w", cv.Type().FriendlyName(), err)
	}
	return n, nil
}

// Float reads v as a float64.
func Float(v any) (float64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	var f float64
	if err := gocty.FromCtyValue(n, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// Int reads v as an integer and reports whether it was integral.
func Int(v any) (int, bool) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, false
	}
	var i int
	if err := gocty.FromCtyValue(n, &i); err != nil {
		return 0, false
	}
	return i, true
}

// Number turns a cty number into a port value. Integral results come back
// as int.
func Number(n cty.Value) any {
	v, err := Go(n)
	if err != nil {
		return nil
	}
	return v
}

// Truthy reports whether v counts as true for a condition input. Values cty
// cannot represent count as true.
func Truthy(v any) bool {
	cv, err := conv.ToCtyValue(v)
	if err != nil {
		return true
	}
	if cv.IsNull() {
		return false
	}
	ty := cv.Type()
	switch {
	case ty == cty.Bool:
		return cv.True()
	case ty == cty.String:
		s := strings.TrimSpace(strings.ToLower(cv.AsString()))
		return s != "" && s != "false" && s != "0"
	case ty == cty.Number:
		return cv.Equals(cty.Zero).False()
	case ty.IsCollectionType(), ty.IsTupleType(), ty.IsObjectType():
		return cv.LengthInt() > 0
	}
	return true
}

// String renders v for display. Nil renders as "(null)" and numbers render
// in their shortest form.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return "(null)"
	case string:
		return x
	}
	cv, err := conv.ToCtyValue(v)
	if err != nil || cv.IsNull() || !cv.Type().IsPrimitiveType() {
		return fmt.Sprint(v)
	}
	if cv.Type() == cty.Number {
		return fmt.Sprint(Number(cv))
	}
	s, err := convert.Convert(cv, cty.String)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s.AsString()
}
