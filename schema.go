package grove

import (
	"fmt"
	"reflect"
)

// FieldWidth is the normalized composite-key payload width an index field
// maps onto: every indexable field is either <= 64 bits (Kind64) or in
// (64, 128] bits (Kind128); spec.md rejects anything wider at build time.
type FieldWidth int

const (
	Kind64 FieldWidth = iota
	Kind128
)

// IndexField describes one generated index: how to pull its value out of a
// record, widened to Uint128 so a single derive signature covers both
// normalized payload widths (the CompositeKey64/CompositeKey128 split
// happens only at the tree-construction boundary, see NewGrove).
type IndexField[R any] struct {
	Name   string
	Width  FieldWidth
	Derive func(r *R) (Uint128, bool)
}

// DerivedField is the build-time declaration of a computed index: a name
// and a pure projection from record to an optional typed value.
type DerivedField[R any] struct {
	Name  string
	Width FieldWidth
	Fn    func(r *R) (Uint128, bool)
}

// Schema is the build-time description of one record type: its
// timestamp accessor, the fields to skip when generating indexes, and any
// derived fields. Schema is built once (analogous to the teacher's
// go:generate-driven Value/Group variants) and reused for the lifetime of
// the process; it does not support runtime schema evolution (spec.md
// Non-goals).
type Schema[R any] struct {
	// Timestamp returns the record's monotonic 64-bit timestamp.
	Timestamp func(r *R) uint64
	// TimestampField is the Go struct field name backing Timestamp; it is
	// implicitly excluded from index generation since the object tree is
	// already keyed by it.
	TimestampField string
	// WithTombstoneTimestamp returns a zero-filled record carrying only ts
	// with its tombstone bit set, used by ObjectTree.TombstoneFromKey.
	WithTombstoneTimestamp func(ts uint64) R
	// Ignore lists field names (matching Go struct field names) that are
	// never turned into index trees, even though they are ordinary
	// exported fields of R.
	Ignore []string
	// Derived declares computed fields alongside the direct ones.
	Derived []DerivedField[R]
}

// fields returns every index this schema generates: one IndexField per
// non-ignored, non-timestamp exported struct field of R, plus all derived
// fields. Each such struct field must be an indexable kind (unsigned
// integer, unsigned-tag enum, or Uint128); any other type makes fields
// return an error (see fieldWidth). Unlike the teacher's go:generate-time code generation, this
// walks R's reflect.Type once (inspection over the wire the stdlib itself
// uses for encoding/json-style struct introspection) since a general
// library has no per-caller build step to hook a code generator into.
func (s *Schema[R]) fields() ([]IndexField[R], error) {
	if s.TimestampField == "" {
		return nil, ErrMissingTimestamp
	}
	ignore := make(map[string]bool, len(s.Ignore)+1)
	for _, name := range s.Ignore {
		ignore[name] = true
	}
	ignore[s.TimestampField] = true

	var out []IndexField[R]
	var zero R
	t := reflect.TypeOf(zero)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: record type %s is not a struct", ErrUnsupportedFieldType, t)
	}
	if tsField, ok := t.FieldByName(s.TimestampField); !ok || tsField.Type.Kind() != reflect.Uint64 {
		return nil, ErrBadTimestampWidth
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if ignore[f.Name] {
			continue
		}
		width, err := fieldWidth(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		idx := i
		out = append(out, IndexField[R]{
			Name:  f.Name,
			Width: width,
			Derive: func(r *R) (Uint128, bool) {
				v := reflect.ValueOf(r).Elem().Field(idx)
				return widenReflectValue(v), true
			},
		})
	}
	for _, d := range s.Derived {
		out = append(out, IndexField[R]{Name: d.Name, Width: d.Width, Derive: d.Fn})
	}
	return out, nil
}

var uint128Type = reflect.TypeOf(Uint128{})

// fieldWidth classifies t as an indexable field width. Every non-ignored,
// non-timestamp exported field must be an unsigned integer, an
// unsigned-tag enum, or Uint128 (spec.md §3); anything else — signed
// integers, >128-bit types, or non-integer non-enum types like strings
// and slices — is a build-time composition error (spec.md §4.2:
// "unsupported field type (signed int, >128-bit, non-integer
// non-enum)"). A caller with a field that genuinely shouldn't be
// indexed must name it in Schema.Ignore rather than rely on silent
// exclusion.
func fieldWidth(t reflect.Type) (FieldWidth, error) {
	if t == uint128Type {
		return Kind128, nil
	}
	switch t.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return Kind64, nil
	default:
		return 0, ErrUnsupportedFieldType
	}
}

func widenReflectValue(v reflect.Value) Uint128 {
	if v.Type() == uint128Type {
		return v.Interface().(Uint128)
	}
	return Uint128{Lo: v.Uint()}
}
