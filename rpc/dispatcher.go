package rpc

import "github.com/commsccf/ccf/wire"

// Dispatcher is a fixed, ordered registry of calls, built once at startup
// and read-only thereafter. Function id 0 is reserved for schema
// emission; id 1 maps to the first registered call, id 2 to the second,
// and so on.
type Dispatcher struct {
	calls []*Call
}

// NewDispatcher builds a Dispatcher from an ordered list of calls.
func NewDispatcher(calls ...*Call) *Dispatcher {
	return &Dispatcher{calls: calls}
}

// Calls returns the registered calls in registration order, read-only.
func (d *Dispatcher) Calls() []*Call { return d.calls }

// Call implements ccf.Dispatcher: function 0 emits the schema; ids
// 1..len(calls) invoke the corresponding registered call; any other id
// fails the dispatch.
func (d *Dispatcher) Call(function byte, args []byte, ret []byte) (n int, ok bool) {
	if function == 0 {
		return d.emitSchema(ret)
	}
	idx := int(function) - 1
	if idx < 0 || idx >= len(d.calls) {
		return 0, false
	}
	return d.calls[idx].invoke(args, ret)
}

// emitSchema writes the self-describing array of (name, doc, return
// type, args...) tuples, one per registered call, in registration order.
func (d *Dispatcher) emitSchema(ret []byte) (int, bool) {
	enc := wire.NewEncoder(ret)
	arr := make(wire.Array, len(d.calls))
	for i, c := range d.calls {
		arr[i] = c.schemaEntry()
	}
	if !arr.Encode(enc) {
		return 0, false
	}
	return enc.Pos(), true
}
