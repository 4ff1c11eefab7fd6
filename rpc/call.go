// Package rpc is the startup-time RPC registry: a fixed list of typed
// calls that can decode their arguments, invoke a handler, encode the
// result, and emit their own schema as function id 0.
package rpc

import (
	"fmt"
	"reflect"

	"github.com/commsccf/ccf/wire"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Call is one registered, typed RPC entry: a name, a doc string, argument
// names, and a handler whose argument/return types were captured at
// registration time via reflection.
type Call struct {
	name     string
	doc      string
	argNames []string
	argTypes []reflect.Type
	retType  reflect.Type // nil if the handler has no meaningful return
	hasErr   bool         // handler's last return value is an error
	fn       reflect.Value
}

// NewCall registers a typed call. fn must be a function; its argument
// count must match len(argNames). fn may return nothing, a single value,
// a single error, or (value, error); any other shape panics. Because this
// runs once at startup (before any byte is ever received), a malformed
// registration panics immediately rather than surfacing as a runtime
// dispatch failure.
func NewCall[F any](name, doc string, argNames []string, fn F) *Call {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("rpc: NewCall(%q): fn is not a function", name))
	}
	if len(argNames) != t.NumIn() {
		panic(fmt.Sprintf("rpc: NewCall(%q): %d argNames for %d parameters", name, len(argNames), t.NumIn()))
	}

	argTypes := make([]reflect.Type, t.NumIn())
	for i := range argTypes {
		argTypes[i] = t.In(i)
	}

	var retType reflect.Type
	hasErr := false
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errType {
			hasErr = true
		} else {
			retType = t.Out(0)
		}
	case 2:
		if t.Out(1) != errType {
			panic(fmt.Sprintf("rpc: NewCall(%q): second return value must be error", name))
		}
		retType = t.Out(0)
		hasErr = true
	default:
		panic(fmt.Sprintf("rpc: NewCall(%q): at most two return values (value, error) supported", name))
	}

	return &Call{
		name:     name,
		doc:      doc,
		argNames: argNames,
		argTypes: argTypes,
		retType:  retType,
		hasErr:   hasErr,
		fn:       v,
	}
}

// Name reports the call's registered name.
func (c *Call) Name() string { return c.name }

// invoke decodes an argument tuple from args, calls the handler, and
// encodes its result into ret. It returns false on decode failure, a
// handler error, or encode-buffer exhaustion; the caller turns that
// into a dispatch failure.
func (c *Call) invoke(args, ret []byte) (n int, ok bool) {
	dec := wire.NewDecoder(args)
	arity, indefinite, ok := dec.DecodeArrayHeader()
	if !ok || indefinite || arity != len(c.argTypes) {
		return 0, false
	}

	in := make([]reflect.Value, len(c.argTypes))
	for i, at := range c.argTypes {
		val := reflect.New(at).Elem()
		if !wire.DecodeReflect(dec, val) {
			return 0, false
		}
		in[i] = val
	}

	out := c.fn.Call(in)
	if c.hasErr {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return 0, false
		}
		out = out[:len(out)-1]
	}

	enc := wire.NewEncoder(ret)
	if c.retType == nil {
		if !enc.EncodeUndefined() {
			return 0, false
		}
		return enc.Pos(), true
	}
	if !wire.EncodeReflect(enc, out[0]) {
		return 0, false
	}
	return enc.Pos(), true
}

// schemaEntry builds the tagged-value tuple this call contributes to the
// function-id-0 schema array: a flat (name, doc, return type string,
// arg name, arg type string, ...) tuple of arity 3 + 2*len(argNames).
// The arg names/types are not grouped into a nested sub-array.
func (c *Call) schemaEntry() wire.Value {
	retTypeStr := "Any"
	if c.retType != nil {
		retTypeStr = wire.TypeString(c.retType)
	}

	entry := make(wire.Array, 0, 3+2*len(c.argNames))
	entry = append(entry, wire.Text(c.name), wire.Text(c.doc), wire.Text(retTypeStr))
	for i, name := range c.argNames {
		entry = append(entry, wire.Text(name), wire.Text(wire.TypeString(c.argTypes[i])))
	}
	return entry
}
