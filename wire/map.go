package wire

// DecodeMap decodes a map (major 5) into a map[string]Value, the decode
// counterpart to the Map value type. The wire order of the pairs is not
// kept, and a repeated key keeps its last value. It mirrors
// DecodeReflect's array loop, peeking each entry's shape and
// reconstructing a generic Value rather than decoding into a
// caller-supplied static type. Map keys are decoded as text; a
// non-text key fails the decode, matching this codec's only documented
// use of major 5 (structured keyword returns for host-side tooling).
func DecodeMap(d *Decoder) (map[string]Value, bool) {
	pairs, ok := decodeMapPairs(d)
	if !ok {
		return nil, false
	}
	out := make(map[string]Value, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out, true
}

type textMapEntry struct {
	Key   string
	Value Value
}

func decodeMapPairs(d *Decoder) ([]textMapEntry, bool) {
	n, indefinite, ok := d.DecodeMapHeader()
	if !ok {
		return nil, false
	}
	var pairs []textMapEntry
	if indefinite {
		pairs = make([]textMapEntry, 0)
		for !d.AtBreak() {
			k, v, ok := decodeTextMapEntry(d)
			if !ok {
				return nil, false
			}
			pairs = append(pairs, textMapEntry{k, v})
		}
		d.ConsumeBreak()
		return pairs, true
	}
	pairs = make([]textMapEntry, n)
	for i := 0; i < n; i++ {
		k, v, ok := decodeTextMapEntry(d)
		if !ok {
			return nil, false
		}
		pairs[i] = textMapEntry{k, v}
	}
	return pairs, true
}

func decodeTextMapEntry(d *Decoder) (string, Value, bool) {
	k, ok := d.DecodeText()
	if !ok {
		return "", nil, false
	}
	v, ok := DecodeValue(d)
	if !ok {
		return "", nil, false
	}
	return k, v, true
}

// DecodeValue decodes the next item of any shape into a generic Value,
// recursing into arrays/maps/tagged items as needed. It is the decode
// mirror of the Value interface's hand-built encode side, used wherever
// a caller doesn't know a value's shape ahead of time (map values,
// tagged payloads).
func DecodeValue(d *Decoder) (Value, bool) {
	major, minor, ok := d.peekInitial()
	if !ok {
		return nil, false
	}
	switch major {
	case MajorUint:
		v, ok := d.DecodeUint()
		return Uint(v), ok
	case MajorNegInt:
		v, ok := d.DecodeInt()
		return Int(v), ok
	case MajorBytes:
		v, ok := d.DecodeBytes()
		return Bytes(v), ok
	case MajorText:
		v, ok := d.DecodeText()
		return Text(v), ok
	case MajorArray:
		return decodeArrayValue(d)
	case MajorMap:
		pairs, ok := decodeMapPairs(d)
		if !ok {
			return nil, false
		}
		m := make(Map, len(pairs))
		for i, p := range pairs {
			m[i] = MapEntry{Key: Text(p.Key), Value: p.Value}
		}
		return m, true
	case MajorTag:
		n, ok := d.DecodeTag()
		if !ok {
			return nil, false
		}
		inner, ok := DecodeValue(d)
		if !ok {
			return nil, false
		}
		return Tag{N: n, Value: inner}, true
	case MajorSimple:
		return decodeSimpleValue(d, minor)
	default:
		return nil, false
	}
}

func decodeArrayValue(d *Decoder) (Value, bool) {
	n, indefinite, ok := d.DecodeArrayHeader()
	if !ok {
		return nil, false
	}
	if indefinite {
		arr := make(Array, 0)
		for !d.AtBreak() {
			item, ok := DecodeValue(d)
			if !ok {
				return nil, false
			}
			arr = append(arr, item)
		}
		d.ConsumeBreak()
		return arr, true
	}
	arr := make(Array, n)
	for i := 0; i < n; i++ {
		item, ok := DecodeValue(d)
		if !ok {
			return nil, false
		}
		arr[i] = item
	}
	return arr, true
}

func decodeSimpleValue(d *Decoder, minor byte) (Value, bool) {
	switch minor {
	case simpleFalse, simpleTrue:
		b, ok := d.DecodeBool()
		return Bool(b), ok
	case simpleNull:
		return Null, d.DecodeNull()
	case simpleUndef:
		return Undefined, d.DecodeUndefined()
	case simpleFloat2, simpleFloat4, simpleFloat8:
		f, ok := d.DecodeFloat64()
		return Float64(f), ok
	default:
		return nil, false
	}
}
