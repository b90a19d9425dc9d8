package transfer

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/godoo/godoo-rpc/internal/odoo"
)

// =============================================================================
// DOMAIN TEMPLATING
// Match domains may use "%(field)s" placeholders that are filled per source
// record (dotted accessors allowed) and mapped for the target instance.
// =============================================================================

var templateRegex = regexp.MustCompile(`^%\((.*)\)s$`)

// TemplateDomain fills a match domain's placeholders from one source
// record. Empty resolutions become false (Odoo's null), single-element
// lists unwrap unless the operator keeps list semantics, and timestamps
// render as ISO 8601.
func TemplateDomain(ctx context.Context, source *odoo.Client, model string, recordID int64, domain odoo.Domain, rules Rules) (odoo.Domain, error) {
	out := make(odoo.Domain, 0, len(domain))
	for _, element := range domain {
		cond, ok := element.(odoo.Condition)
		if !ok {
			out = append(out, element) // prefix operator, keep as-is
			continue
		}

		template, isTemplate := templateKey(cond.Value)
		if !isTemplate {
			out = append(out, cond)
			continue
		}

		value, err := source.MappedValue(ctx, model, recordID, template)
		if err != nil {
			return nil, err
		}
		if isEmptyValue(value) {
			cond.Value = false
			out = append(out, cond)
			continue
		}

		meta, err := source.FieldMetaAt(ctx, model, template)
		if err != nil {
			return nil, err
		}
		mapped, err := MapValue(value, meta, template, rules[rootField(template)])
		if err != nil {
			var miss *MapError
			if !errors.As(err, &miss) {
				return nil, err
			}
			mapped = miss.Value // no counterpart known yet, match on the source id
		}

		cond.Value = normalizeDomainValue(mapped, cond.Operator)
		out = append(out, cond)
	}
	return out, nil
}

func templateKey(value any) (string, bool) {
	s, ok := value.(string)
	if !ok {
		return "", false
	}
	match := templateRegex.FindStringSubmatch(s)
	if match == nil {
		return "", false
	}
	return match[1], true
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}

// normalizeDomainValue unwraps single-element lists for scalar operators
// and renders times as ISO strings.
func normalizeDomainValue(value any, operator string) any {
	scalarOp := operator != "in" && operator != "not in"

	switch v := value.(type) {
	case []any:
		if len(v) == 1 && scalarOp {
			return normalizeDomainValue(v[0], operator)
		}
	case []int64:
		if len(v) == 1 && scalarOp {
			return v[0]
		}
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return value
}

// rootField returns the first segment of a dotted accessor; field rules
// are keyed by the record's own field names.
func rootField(accessor string) string {
	for i := 0; i < len(accessor); i++ {
		if accessor[i] == '.' {
			return accessor[:i]
		}
	}
	return accessor
}
