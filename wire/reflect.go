package wire

import (
	"reflect"
)

// EncodeReflect encodes an arbitrary Go value by kind: integers (signed
// and unsigned) map to major 0/1, booleans to the major 7 true/false
// simple values, strings to major 3, []byte to major 2,
// floats to major 7, and arrays/slices/structs to major 4 tuples whose
// elements are encoded recursively. It exists so the RPC dispatcher can
// serialise ordinary registered Go functions without per-call codegen.
func EncodeReflect(e *Encoder, v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return e.EncodeBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.EncodeInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.EncodeUint(v.Uint())
	case reflect.Float32:
		return e.EncodeFloat32(float32(v.Float()))
	case reflect.Float64:
		return e.EncodeFloat64(v.Float())
	case reflect.String:
		return e.EncodeText(v.String())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if v.Kind() == reflect.Array {
				// An array value (e.g. a handler's [N]byte return) may not
				// be addressable, which Value.Bytes requires.
				b := make([]byte, v.Len())
				reflect.Copy(reflect.ValueOf(b), v)
				return e.EncodeBytes(b)
			}
			return e.EncodeBytes(v.Bytes())
		}
		if !e.EncodeArrayHeader(v.Len()) {
			return false
		}
		for i := 0; i < v.Len(); i++ {
			if !EncodeReflect(e, v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		n := v.NumField()
		if !e.EncodeArrayHeader(n) {
			return false
		}
		for i := 0; i < n; i++ {
			if !EncodeReflect(e, v.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Ptr:
		if v.IsNil() {
			return e.EncodeNull()
		}
		return EncodeReflect(e, v.Elem())
	default:
		return false
	}
}

// DecodeReflect decodes into a settable reflect.Value of the given shape,
// the mirror image of EncodeReflect.
func DecodeReflect(d *Decoder, v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		b, ok := d.DecodeBool()
		if !ok {
			return false
		}
		v.SetBool(b)
		return true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := d.DecodeInt()
		if !ok || v.OverflowInt(n) {
			return false
		}
		v.SetInt(n)
		return true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := d.DecodeUint()
		if !ok || v.OverflowUint(n) {
			return false
		}
		v.SetUint(n)
		return true
	case reflect.Float32:
		f, ok := d.DecodeFloat32()
		if !ok {
			return false
		}
		v.SetFloat(float64(f))
		return true
	case reflect.Float64:
		f, ok := d.DecodeFloat64()
		if !ok {
			return false
		}
		v.SetFloat(f)
		return true
	case reflect.String:
		s, ok := d.DecodeText()
		if !ok {
			return false
		}
		v.SetString(s)
		return true
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := d.DecodeBytes()
			if !ok {
				return false
			}
			v.SetBytes(append([]byte(nil), b...))
			return true
		}
		n, indef, ok := d.DecodeArrayHeader()
		if !ok || indef {
			return false
		}
		out := reflect.MakeSlice(v.Type(), n, n)
		for i := 0; i < n; i++ {
			if !DecodeReflect(d, out.Index(i)) {
				return false
			}
		}
		v.Set(out)
		return true
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := d.DecodeBytes()
			if !ok || len(b) != v.Len() {
				return false
			}
			reflect.Copy(v, reflect.ValueOf(b))
			return true
		}
		n, indef, ok := d.DecodeArrayHeader()
		if !ok || indef || n != v.Len() {
			return false
		}
		for i := 0; i < n; i++ {
			if !DecodeReflect(d, v.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		n, indef, ok := d.DecodeArrayHeader()
		if !ok || indef || n != v.NumField() {
			return false
		}
		for i := 0; i < n; i++ {
			if !DecodeReflect(d, v.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Ptr:
		if d.AtBreak() {
			return false
		}
		major, minor, ok := d.peekInitial()
		if ok && major == MajorSimple && minor == simpleNull {
			d.pos++
			v.Set(reflect.Zero(v.Type()))
			return true
		}
		elem := reflect.New(v.Type().Elem())
		if !DecodeReflect(d, elem.Elem()) {
			return false
		}
		v.Set(elem)
		return true
	default:
		return false
	}
}

// TypeString returns the closed-set schema type tag for a Go type: "int"
// for any integer kind or bool (bool is schema-typed as an integer even
// though it still wire-encodes as a tagged boolean), "str" for string,
// "bytes" for []byte, "tuple[...]" recursively for arrays/slices/structs,
// and "Any" for anything else.
func TypeString(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.String:
		return "str"
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return "bytes"
		}
		return "tuple[" + TypeString(t.Elem()) + ", ...]"
	case reflect.Struct:
		s := "tuple["
		for i := 0; i < t.NumField(); i++ {
			if i > 0 {
				s += ", "
			}
			s += TypeString(t.Field(i).Type)
		}
		return s + "]"
	case reflect.Ptr:
		return TypeString(t.Elem())
	default:
		return "Any"
	}
}

// FormatTuple renders parts as a "tuple[a, b, ...]" type string, the same
// bracketed form TypeString produces for structs.
func FormatTuple(parts ...string) string {
	s := "tuple["
	for i, p := range parts {
		if i > 0 {
			s += ", "
		}
		s += p
	}
	return s + "]"
}
