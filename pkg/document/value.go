package document

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind tells which of the four shapes a Value has.
type Kind int

const (
	NullKind Kind = iota
	ScalarKind
	SequenceKind
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case ScalarKind:
		return "scalar"
	case SequenceKind:
		return "sequence"
	case MappingKind:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a node of a structured document: an explicit null, a
// scalar (string, bool or number), a sequence or a mapping. The zero
// Value is an explicit null.
//
// Values are treated as immutable once built; the slices and maps
// handed out by Items and Fields must not be modified.
type Value struct {
	kind   Kind
	scalar interface{} // string, bool or json.Number in canonical form
	items  []Value
	fields map[string]Value
}

func NullValue() Value {
	return Value{}
}

func String(s string) Value {
	return Value{kind: ScalarKind, scalar: s}
}

func Bool(b bool) Value {
	return Value{kind: ScalarKind, scalar: b}
}

// Number makes a numeric scalar. Numbers are held in a canonical
// form, so that 1, 1.0 and 1e0 are the same value.
func Number(n json.Number) (Value, error) {
	c, err := canonicalNumber(n)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: ScalarKind, scalar: c}, nil
}

func NewSequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: SequenceKind, items: items}
}

func NewMapping(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: MappingKind, fields: fields}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == NullKind
}

// Scalar returns the scalar held, or nil for anything but a scalar.
func (v Value) Scalar() interface{} {
	if v.kind != ScalarKind {
		return nil
	}
	return v.scalar
}

func (v Value) Items() []Value {
	return v.items
}

func (v Value) Fields() map[string]Value {
	return v.fields
}

// Len is the number of items or fields; zero for nulls and scalars.
func (v Value) Len() int {
	switch v.kind {
	case SequenceKind:
		return len(v.items)
	case MappingKind:
		return len(v.fields)
	}
	return 0
}

// Keys returns the keys of a mapping in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get looks up a key in a mapping. The boolean distinguishes a key
// mapped to null from an absent key.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != MappingKind {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Lookup follows a path of mapping keys.
func (v Value) Lookup(path ...string) (Value, bool) {
	cur := v
	for _, key := range path {
		next, ok := cur.Get(key)
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Equal is deep structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case ScalarKind:
		return v.scalar == o.scalar
	case SequenceKind:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case MappingKind:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, f := range v.fields {
			of, ok := o.fields[k]
			if !ok || !f.Equal(of) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts the value back into plain decoded data:
// nil, string, bool, json.Number, []interface{} and
// map[string]interface{}. The result is freshly allocated.
func (v Value) Interface() interface{} {
	switch v.kind {
	case ScalarKind:
		return v.scalar
	case SequenceKind:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case MappingKind:
		out := make(map[string]interface{}, len(v.fields))
		for k, f := range v.fields {
			out[k] = f.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON gives the canonical JSON encoding, with mapping keys in
// sorted order.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders the value as compact JSON, for logs and messages.
func (v Value) String() string {
	bytes, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<unencodable %s>", v.kind)
	}
	return string(bytes)
}
