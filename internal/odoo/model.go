package odoo

import (
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// MODEL HANDLE
// =============================================================================

// Model is a lightweight handle on a remote Odoo model. Handles are cheap
// and carry an optional call context (e.g. a language).
type Model struct {
	client  *Client
	name    string
	context map[string]any
}

// Model returns a handle for the named Odoo model.
func (c *Client) Model(name string) *Model {
	return &Model{client: c, name: name}
}

// Name returns the Odoo model name.
func (m *Model) Name() string { return m.name }

// WithContext returns a copy of the handle carrying extra context values.
func (m *Model) WithContext(values map[string]any) *Model {
	merged := make(map[string]any, len(m.context)+len(values))
	for k, v := range m.context {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return &Model{client: m.client, name: m.name, context: merged}
}

// WithLang returns a copy of the handle whose calls run under the given
// language, like the ORM's with_context(lang=...).
func (m *Model) WithLang(lang string) *Model {
	return m.WithContext(map[string]any{"lang": lang})
}

// ExecuteKw calls an arbitrary method on the model.
func (m *Model) ExecuteKw(ctx context.Context, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if len(m.context) > 0 {
		if kwargs == nil {
			kwargs = map[string]any{}
		}
		if _, ok := kwargs["context"]; !ok {
			kwargs["context"] = m.context
		}
	}
	return m.client.ExecuteKw(ctx, m.name, method, args, kwargs)
}

// =============================================================================
// CRUD OPERATIONS
// =============================================================================

// SearchOptions tune Search/SearchRead calls.
type SearchOptions struct {
	Offset int
	Limit  int
	Order  string
}

func (o *SearchOptions) kwargs() map[string]any {
	kw := map[string]any{}
	if o == nil {
		return kw
	}
	if o.Offset > 0 {
		kw["offset"] = o.Offset
	}
	if o.Limit > 0 {
		kw["limit"] = o.Limit
	}
	if o.Order != "" {
		kw["order"] = o.Order
	}
	return kw
}

// Search returns the ids of records matching the domain.
func (m *Model) Search(ctx context.Context, domain Domain, opts *SearchOptions) ([]int64, error) {
	raw, err := m.ExecuteKw(ctx, "search", []any{domain.Wire()}, opts.kwargs())
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode search ids: %w", err))
	}
	return ids, nil
}

// SearchCount returns the number of records matching the domain.
func (m *Model) SearchCount(ctx context.Context, domain Domain) (int64, error) {
	raw, err := m.ExecuteKw(ctx, "search_count", []any{domain.Wire()}, nil)
	if err != nil {
		return 0, err
	}
	return decodeInt(raw)
}

// SearchRead searches and reads in one round trip.
func (m *Model) SearchRead(ctx context.Context, domain Domain, fields []string, opts *SearchOptions) ([]map[string]any, error) {
	kw := opts.kwargs()
	if len(fields) > 0 {
		kw["fields"] = fields
	}
	raw, err := m.ExecuteKw(ctx, "search_read", []any{domain.Wire()}, kw)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode search_read: %w", err))
	}
	return records, nil
}

// Read fetches the given fields of the given records.
func (m *Model) Read(ctx context.Context, ids []int64, fields []string) ([]map[string]any, error) {
	kw := map[string]any{}
	if len(fields) > 0 {
		kw["fields"] = fields
	}
	raw, err := m.ExecuteKw(ctx, "read", []any{ids}, kw)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("decode read: %w", err))
	}
	return records, nil
}

// ReadOne fetches the given fields of a single record.
func (m *Model) ReadOne(ctx context.Context, id int64, fields []string) (map[string]any, error) {
	records, err := m.Read(ctx, []int64{id}, fields)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, wrapError(CodeNotFound, false, fmt.Errorf("%s(%d) not found", m.name, id))
	}
	return records[0], nil
}

// Create inserts one record and returns its id.
func (m *Model) Create(ctx context.Context, values map[string]any) (int64, error) {
	raw, err := m.ExecuteKw(ctx, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}
	return decodeInt(raw)
}

// Write updates the given records.
func (m *Model) Write(ctx context.Context, ids []int64, values map[string]any) error {
	_, err := m.ExecuteKw(ctx, "write", []any{ids, values}, nil)
	return err
}

// Unlink deletes the given records.
func (m *Model) Unlink(ctx context.Context, ids []int64) error {
	_, err := m.ExecuteKw(ctx, "unlink", []any{ids}, nil)
	return err
}

// =============================================================================
// EXTERNAL ID RESOLUTION
// =============================================================================

// Reference is a resolved external id.
type Reference struct {
	Model string
	ID    int64
}

// Ref resolves a "module.name" external id through ir.model.data, like
// env.ref in the ORM.
func (c *Client) Ref(ctx context.Context, xmlID string) (*Reference, error) {
	module, name, ok := SplitXMLID(xmlID)
	if !ok {
		return nil, wrapError(CodeNotFound, false, fmt.Errorf("malformed external id %q", xmlID))
	}
	records, err := c.Model("ir.model.data").SearchRead(ctx,
		NewDomain(C("module", "=", module), C("name", "=", name)),
		[]string{"model", "res_id"}, &SearchOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, wrapError(CodeNotFound, false, fmt.Errorf("external id %q not found", xmlID))
	}
	model, _ := records[0]["model"].(string)
	resID := asInt64(records[0]["res_id"])
	if model == "" || resID == 0 {
		return nil, wrapError(CodeBadResponse, false, fmt.Errorf("external id %q resolved to %v", xmlID, records[0]))
	}
	return &Reference{Model: model, ID: resID}, nil
}

// SplitXMLID splits "module.name" into its parts. The name may itself
// contain dots; only the first one separates the module.
func SplitXMLID(xmlID string) (module, name string, ok bool) {
	for i := 0; i < len(xmlID); i++ {
		if xmlID[i] == '.' {
			if i == 0 || i == len(xmlID)-1 {
				return "", "", false
			}
			return xmlID[:i], xmlID[i+1:], true
		}
	}
	return "", "", false
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}
