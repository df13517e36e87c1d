package codec

import (
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// value is an optional cty value. An unset value is omitted; a set null is
// written explicitly so that "never written" and "written nil" survive a
// round trip.
type value struct {
	set bool
	v   cty.Value
}

func optional(v cty.Value) value {
	if v == cty.NilVal {
		return value{}
	}
	return value{set: true, v: v}
}

func optionalPtr(v *cty.Value) value {
	if v == nil {
		return value{}
	}
	return value{set: true, v: *v}
}

func (v value) IsZero() bool { return !v.set }

func (v value) get() cty.Value {
	if !v.set {
		return cty.NilVal
	}
	return v.v
}

func (v value) ptr() *cty.Value {
	if !v.set {
		return nil
	}
	out := v.v
	return &out
}

func (v value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return ctyjson.SimpleJSONValue{Value: v.v}.MarshalJSON()
}

func (v *value) UnmarshalJSON(data []byte) error {
	var s ctyjson.SimpleJSONValue
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v.set, v.v = true, s.Value
	return nil
}

var _ msgpack.CustomEncoder = value{}
var _ msgpack.CustomDecoder = (*value)(nil)

// EncodeMsgpack stores the value in cty's own msgpack form, which keeps
// the exact cty type alongside the value.
func (v value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if !v.set {
		return enc.EncodeNil()
	}
	b, err := ctymsgpack.Marshal(v.v, cty.DynamicPseudoType)
	if err != nil {
		return err
	}
	return enc.EncodeBytes(b)
}

func (v *value) DecodeMsgpack(dec *msgpack.Decoder) error {
	b, err := dec.DecodeBytes()
	if err != nil {
		return err
	}
	if len(b) == 0 {
		*v = value{}
		return nil
	}
	out, err := ctymsgpack.Unmarshal(b, cty.DynamicPseudoType)
	if err != nil {
		return err
	}
	v.set, v.v = true, out
	return nil
}
