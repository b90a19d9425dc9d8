package odoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionMarshalsAsTriple(t *testing.T) {
	raw, err := json.Marshal(C("name", "=", "Azure"))
	require.NoError(t, err)
	assert.JSONEq(t, `["name", "=", "Azure"]`, string(raw))
}

func TestJoinPrefixesOperators(t *testing.T) {
	d, err := Join("&",
		C("name", "in", []string{"a", "b"}),
		C("module", "in", []string{"m"}),
		C("active", "=", true))
	require.NoError(t, err)

	require.Len(t, d, 5)
	assert.Equal(t, "&", d[0])
	assert.Equal(t, "&", d[1])
	assert.Equal(t, C("name", "in", []string{"a", "b"}), d[2])
}

func TestJoinSingleConditionHasNoOperator(t *testing.T) {
	d, err := Join("|", C("x", "=", 1))
	require.NoError(t, err)
	assert.Len(t, d, 1)
}

func TestJoinRejectsBadOperator(t *testing.T) {
	_, err := Join("!", C("x", "=", 1))
	require.Error(t, err)
}

func TestWireNilDomainIsEmptyList(t *testing.T) {
	var d Domain
	raw, err := json.Marshal(d.Wire())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSplitXMLID(t *testing.T) {
	module, name, ok := SplitXMLID("base.partner_root")
	require.True(t, ok)
	assert.Equal(t, "base", module)
	assert.Equal(t, "partner_root", name)

	module, name, ok = SplitXMLID("mod.group.sub")
	require.True(t, ok)
	assert.Equal(t, "mod", module)
	assert.Equal(t, "group.sub", name)

	_, _, ok = SplitXMLID("nodot")
	assert.False(t, ok)
}

func TestRelationID(t *testing.T) {
	assert.Equal(t, int64(42), RelationID([]any{float64(42), "Partner"}))
	assert.Equal(t, int64(7), RelationID(float64(7)))
	assert.Equal(t, int64(0), RelationID(false))
	assert.Equal(t, int64(0), RelationID(nil))
}

func TestRelationIDs(t *testing.T) {
	assert.Equal(t, []int64{1, 2}, RelationIDs([]any{float64(1), float64(2)}))
	assert.Nil(t, RelationIDs(false))
}
