// Package transfer copies records between two Odoo instances, rewriting
// relational references through source-to-target id maps so copied records
// point at the destination's counterparts.
package transfer

import (
	"context"
	"fmt"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// VALUE MAPPING
// =============================================================================

// IDMap maps source record ids to target record ids.
type IDMap map[int64]int64

// FieldRule controls how one kept field travels to the target instance.
type FieldRule struct {
	// HTML marks an HTML field; empty values are created as the editor's
	// empty paragraph instead of false.
	HTML bool

	// Map rewrites relational ids from source to target. Nil passes the
	// value through unchanged.
	Map IDMap
}

// Rules maps field names to their transfer rule. Fields not listed are not
// transferred.
type Rules map[string]FieldRule

// MapError is a mapping miss: the source value has no target counterpart.
type MapError struct {
	Field string
	Value any
}

func (e *MapError) Error() string {
	return fmt.Sprintf("no mapping for %v in field %q", e.Value, e.Field)
}

// MapValue rewrites one read value for the target instance. Relational
// many2one reads arrive as [id, display_name] pairs; only the id is kept.
// Values of fields with an id map are swapped, lists element-wise.
func MapValue(value any, meta odoo.FieldMeta, field string, rule FieldRule) (any, error) {
	if meta.Type == "many2one" {
		if id := odoo.RelationID(value); id != 0 {
			value = id
		}
	}
	if rule.Map == nil {
		return value, nil
	}

	switch v := value.(type) {
	case nil, bool:
		return value, nil
	case []any:
		mapped := make([]int64, 0, len(v))
		for _, item := range v {
			id := odoo.RelationID(item)
			target, ok := rule.Map[id]
			if !ok {
				return nil, &MapError{Field: field, Value: id}
			}
			mapped = append(mapped, target)
		}
		return mapped, nil
	default:
		id := odoo.RelationID(value)
		if id == 0 {
			return value, nil
		}
		target, ok := rule.Map[id]
		if !ok {
			return nil, &MapError{Field: field, Value: id}
		}
		return target, nil
	}
}

// MapRecordValues reads the rule-listed fields of one source record and
// maps every value for the target. With ignoreMisses, values without a
// mapping are dropped from the result instead of failing.
func MapRecordValues(ctx context.Context, source *odoo.Client, model string, id int64, rules Rules, ignoreMisses bool) (map[string]any, error) {
	fields := make([]string, 0, len(rules))
	for name := range rules {
		fields = append(fields, name)
	}

	handle := source.Model(model)
	meta, err := handle.FieldsGet(ctx, fields...)
	if err != nil {
		return nil, err
	}
	record, err := handle.ReadOne(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	delete(record, "id")

	out := make(map[string]any, len(record))
	for name, value := range record {
		mapped, err := MapValue(value, meta[name], name, rules[name])
		if err != nil {
			if ignoreMisses {
				continue
			}
			return nil, fmt.Errorf("record %s(%d): %w", model, id, err)
		}
		out[name] = mapped
	}
	return out, nil
}
