package odoo

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// SEARCH DOMAINS
// =============================================================================

// Condition is a single domain triplet (field, operator, value).
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// C is shorthand for building a Condition.
func C(field, operator string, value any) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

// MarshalJSON renders the condition as the [field, operator, value] triple
// Odoo expects on the wire.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Operator, c.Value})
}

// Domain is an Odoo search domain in prefix notation: a mix of logical
// operator strings ("&", "|", "!") and Conditions.
type Domain []any

// NewDomain builds a domain from plain AND-ed conditions.
func NewDomain(conds ...Condition) Domain {
	d := make(Domain, 0, len(conds))
	for _, c := range conds {
		d = append(d, c)
	}
	return d
}

// Join flattens conditions into a prefix-notation domain by prepending
// len(conds)-1 copies of the operator. Only "&" and "|" are valid.
func Join(operator string, conds ...Condition) (Domain, error) {
	if operator != "&" && operator != "|" {
		return nil, fmt.Errorf("domain operator must be | or &, not %q", operator)
	}
	d := make(Domain, 0, 2*len(conds))
	for i := 1; i < len(conds); i++ {
		d = append(d, operator)
	}
	for _, c := range conds {
		d = append(d, c)
	}
	return d, nil
}

// Wire returns the domain as the []any payload for an RPC argument. A nil
// domain becomes an empty list, not JSON null.
func (d Domain) Wire() []any {
	if d == nil {
		return []any{}
	}
	return []any(d)
}
