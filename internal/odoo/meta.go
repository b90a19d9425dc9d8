package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// FIELD METADATA
// =============================================================================

// FieldMeta is the subset of fields_get metadata the importers need.
type FieldMeta struct {
	Type     string `json:"type"`
	String   string `json:"string"`
	Relation string `json:"relation"`
	Required bool   `json:"required"`
	Readonly bool   `json:"readonly"`
}

// IsRelational reports whether the field points at another model.
func (f FieldMeta) IsRelational() bool { return f.Relation != "" }

// FieldsGet fetches field metadata for the model. With no names given, all
// fields are returned.
func (m *Model) FieldsGet(ctx context.Context, names ...string) (map[string]FieldMeta, error) {
	args := []any{}
	if len(names) > 0 {
		args = append(args, names)
	}
	raw, err := m.ExecuteKw(ctx, "fields_get", args, map[string]any{
		"attributes": []string{"type", "string", "relation", "required", "readonly"},
	})
	if err != nil {
		return nil, err
	}
	var fields map[string]FieldMeta
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode fields_get: %w", err))
	}
	return fields, nil
}

// =============================================================================
// DOTTED FIELD TRAVERSAL
// Follows relation hops with plain RPC reads, like the ORM's mapped().
// =============================================================================

// MappedValue resolves a dotted accessor like "partner_id.name" against a
// single record, reading one hop at a time.
func (c *Client) MappedValue(ctx context.Context, model string, id int64, accessor string) (any, error) {
	segments := strings.Split(accessor, ".")
	currentModel := model
	currentID := id

	for i, field := range segments {
		record, err := c.Model(currentModel).ReadOne(ctx, currentID, []string{field})
		if err != nil {
			return nil, err
		}
		value := record[field]

		if i == len(segments)-1 {
			return value, nil
		}

		// Not the last hop: the value must point at a related record.
		meta, err := c.FieldMetaAt(ctx, currentModel, field)
		if err != nil {
			return nil, err
		}
		if !meta.IsRelational() {
			return nil, fmt.Errorf("field %s.%s is not relational, cannot resolve %q", currentModel, field, accessor)
		}
		nextID := RelationID(value)
		if nextID == 0 {
			return nil, nil // broken/empty relation, nothing to resolve
		}
		currentModel = meta.Relation
		currentID = nextID
	}
	return nil, nil
}

// FieldMetaAt resolves field metadata by dotted accessor, walking relations
// as needed ("partner_id.name" yields the metadata of res.partner.name).
func (c *Client) FieldMetaAt(ctx context.Context, model, accessor string) (FieldMeta, error) {
	segments := strings.Split(accessor, ".")
	currentModel := model

	for i, field := range segments {
		fields, err := c.Model(currentModel).FieldsGet(ctx, field)
		if err != nil {
			return FieldMeta{}, err
		}
		meta, ok := fields[field]
		if !ok {
			return FieldMeta{}, wrapError(CodeNotFound, false, fmt.Errorf("field %s.%s not found", currentModel, field))
		}
		if i == len(segments)-1 {
			return meta, nil
		}
		if !meta.IsRelational() {
			return FieldMeta{}, fmt.Errorf("field %s.%s is not relational, cannot resolve %q", currentModel, field, accessor)
		}
		currentModel = meta.Relation
	}
	return FieldMeta{}, fmt.Errorf("empty accessor")
}

// RelationID extracts the id from a relational read value. Odoo renders
// many2one fields as [id, display_name] pairs, and false when empty.
func RelationID(value any) int64 {
	switch v := value.(type) {
	case []any:
		if len(v) > 0 {
			return asInt64(v[0])
		}
	case float64, int64, int, json.Number:
		return asInt64(v)
	}
	return 0
}

// RelationIDs extracts record ids from a one2many/many2many read value.
func RelationIDs(value any) []int64 {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(list))
	for _, item := range list {
		if id := asInt64(item); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
