package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ValueKind uint8

const (
	ValueAbsent ValueKind = iota
	ValueScalar
	ValueSequence
)

// Value is the content of one record field: absent, a scalar string or an
// ordered sequence of strings.
type Value struct {
	kind  ValueKind
	text  string
	items []string
}

func Scalar(s string) Value {
	return Value{kind: ValueScalar, text: s}
}

func Sequence(items ...string) Value {
	return Value{kind: ValueSequence, items: append([]string{}, items...)}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == ValueAbsent }

// Text returns the scalar content; empty for absent and sequence values.
func (v Value) Text() string { return v.text }

// Items returns a copy of the sequence content.
func (v Value) Items() []string {
	if v.kind != ValueSequence {
		return nil
	}
	return append([]string{}, v.items...)
}

func (v Value) clone() Value {
	if v.kind == ValueSequence {
		return Sequence(v.items...)
	}
	return v
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueScalar:
		return json.Marshal(v.text)
	case ValueSequence:
		items := v.items
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Scalar(s)
	case '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("sequence value must hold strings: %w", err)
		}
		*v = Sequence(items...)
	default:
		// numbers and booleans coming back from a patch are kept as text
		*v = Scalar(string(data))
	}
	return nil
}

// Record maps field names to values and keeps the field order it was created with.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord creates a record where every named field is absent.
func NewRecord(fields ...string) *Record {
	r := &Record{
		fields: make([]string, 0, len(fields)),
		values: make(map[string]Value, len(fields)),
	}
	for _, name := range fields {
		if _, ok := r.values[name]; ok {
			continue
		}
		r.fields = append(r.fields, name)
		r.values[name] = Value{}
	}
	return r
}

// Fields returns the field names in record order.
func (r *Record) Fields() []string {
	return append([]string{}, r.fields...)
}

func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *Record) Get(name string) Value {
	return r.values[name]
}

func (r *Record) IsAbsent(name string) bool {
	return r.values[name].IsAbsent()
}

// Set stores v under an existing field. Unknown names are rejected so the record
// never grows keys outside its catalog.
func (r *Record) Set(name string, v Value) error {
	if !r.Has(name) {
		return fmt.Errorf("unknown record field %q", name)
	}
	r.values[name] = v.clone()
	return nil
}

// Append adds item to the sequence at name, starting a one element sequence when
// the field is absent.
func (r *Record) Append(name, item string) error {
	cur, ok := r.values[name]
	if !ok {
		return fmt.Errorf("unknown record field %q", name)
	}
	if cur.kind == ValueScalar {
		return fmt.Errorf("record field %q holds a scalar", name)
	}
	r.values[name] = Sequence(append(cur.items, item)...)
	return nil
}

// Values returns a copy of the field map.
func (r *Record) Values() map[string]Value {
	out := make(map[string]Value, len(r.values))
	for k, v := range r.values {
		out[k] = v.clone()
	}
	return out
}

func (r *Record) Clone() *Record {
	out := NewRecord(r.fields...)
	for k, v := range r.values {
		out.values[k] = v.clone()
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.values)
}
