package wire

// Value is implemented by small wrapper types so heterogeneous tuples
// (schema entries, RPC results built by hand) can be assembled without
// reflection when the call site already knows their shape.
type Value interface {
	Encode(e *Encoder) bool
}

type Uint uint64

func (v Uint) Encode(e *Encoder) bool { return e.EncodeUint(uint64(v)) }

type Int int64

func (v Int) Encode(e *Encoder) bool { return e.EncodeInt(int64(v)) }

type Bytes []byte

func (v Bytes) Encode(e *Encoder) bool { return e.EncodeBytes(v) }

type Text string

func (v Text) Encode(e *Encoder) bool { return e.EncodeText(string(v)) }

type Bool bool

func (v Bool) Encode(e *Encoder) bool { return e.EncodeBool(bool(v)) }

type nullType struct{}

// Null is the tagged-value null.
var Null Value = nullType{}

func (nullType) Encode(e *Encoder) bool { return e.EncodeNull() }

type undefinedType struct{}

// Undefined is the tagged-value undefined, used for void returns.
var Undefined Value = undefinedType{}

func (undefinedType) Encode(e *Encoder) bool { return e.EncodeUndefined() }

type Float32 float32

func (v Float32) Encode(e *Encoder) bool { return e.EncodeFloat32(float32(v)) }

type Float64 float64

func (v Float64) Encode(e *Encoder) bool { return e.EncodeFloat64(float64(v)) }

// Array encodes as a fixed-arity tuple: its own length is the arity.
type Array []Value

func (v Array) Encode(e *Encoder) bool {
	if !e.EncodeArrayHeader(len(v)) {
		return false
	}
	for _, item := range v {
		if !item.Encode(e) {
			return false
		}
	}
	return true
}

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map encodes as major 5, pairs in the given order.
type Map []MapEntry

func (v Map) Encode(e *Encoder) bool {
	if !e.EncodeMapHeader(len(v)) {
		return false
	}
	for _, entry := range v {
		if !entry.Key.Encode(e) || !entry.Value.Encode(e) {
			return false
		}
	}
	return true
}

// Tag wraps one item with a tag number.
type Tag struct {
	N     uint64
	Value Value
}

func (v Tag) Encode(e *Encoder) bool {
	return e.EncodeTag(v.N) && v.Value.Encode(e)
}
