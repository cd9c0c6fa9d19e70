// Package projection trims records down to the fields a caller asked for.
//
// Records are ordered field maps so that a projected record keeps the field
// order of its source, whatever struct it was built from.
package projection

import (
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrInvalidFieldSpec is returned when a FieldSpec names both included and
// excluded fields.
var ErrInvalidFieldSpec = errors.New("invalid field spec")

// Record is an ordered mapping of field name to value.
type Record = orderedmap.OrderedMap[string, any]

// FieldSpec selects fields of a record. Empty lists count as absent.
type FieldSpec struct {
	Include []string `json:"include_fields,omitempty" jsonschema:"Only return these fields, in record order"`
	Exclude []string `json:"exclude_fields,omitempty" jsonschema:"Return every field except these"`
}

// IsZero reports whether the spec selects nothing, in which case projection is
// the identity.
func (s *FieldSpec) IsZero() bool {
	return s == nil || (len(s.Include) == 0 && len(s.Exclude) == 0)
}

// Validate fails with ErrInvalidFieldSpec when include and exclude are both set.
func (s *FieldSpec) Validate() error {
	if s == nil {
		return nil
	}
	if len(s.Include) > 0 && len(s.Exclude) > 0 {
		return fmt.Errorf("%w: include_fields and exclude_fields cannot be combined", ErrInvalidFieldSpec)
	}
	return nil
}

// FromValue converts any JSON-serializable value with an object shape into a
// Record, keeping the serialized field order. Field values stay encoded as
// json.RawMessage so nested objects keep their key order and numbers their
// precision.
func FromValue(v any) (*Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	rec := orderedmap.New[string, any](fields.Len())
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		rec.Set(pair.Key, pair.Value)
	}
	return rec, nil
}

// Project applies spec to rec. The source record is never modified; a zero
// spec returns rec as is. Unknown field names are ignored.
func Project(rec *Record, spec *FieldSpec) (*Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if rec == nil || spec.IsZero() {
		return rec, nil
	}

	include := len(spec.Include) > 0
	names := spec.Exclude
	if include {
		names = spec.Include
	}
	selected := make(map[string]struct{}, len(names))
	for _, name := range names {
		selected[name] = struct{}{}
	}

	out := orderedmap.New[string, any](rec.Len())
	for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
		_, listed := selected[pair.Key]
		if listed == include {
			out.Set(pair.Key, pair.Value)
		}
	}
	return out, nil
}

// ProjectValue converts v to a Record and projects it.
func ProjectValue(v any, spec *FieldSpec) (*Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	rec, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	return Project(rec, spec)
}

// ProjectAll projects every item with the same spec, keeping item order.
func ProjectAll[T any](items []T, spec *FieldSpec) ([]*Record, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(items))
	for i := range items {
		rec, err := ProjectValue(items[i], spec)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Keys returns the field names of rec in order.
func Keys(rec *Record) []string {
	if rec == nil {
		return nil
	}
	keys := make([]string, 0, rec.Len())
	for pair := rec.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
