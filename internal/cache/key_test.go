package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_InsertionOrderIndependent(t *testing.T) {
	a := map[string]any{"address": "0xabc", "page": 2, "limit": 25}
	b := map[string]any{"limit": 25, "page": 2, "address": "0xabc"}

	ka, err := Key("chain_address_profile", a)
	require.NoError(t, err)
	kb, err := Key("chain_address_profile", b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
}

func TestKey_NestedMapsSorted(t *testing.T) {
	a := map[string]any{"filter": map[string]any{"from": "0x1", "to": "0x2"}}
	b := map[string]any{"filter": map[string]any{"to": "0x2", "from": "0x1"}}

	ka, err := Key("chain_rpc_call", a)
	require.NoError(t, err)
	kb, err := Key("chain_rpc_call", b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
}

func TestKey_DifferentValuesDiffer(t *testing.T) {
	ka, err := Key("chain_get_balance", map[string]any{"address": "0x1"})
	require.NoError(t, err)
	kb, err := Key("chain_get_balance", map[string]any{"address": "0x2"})
	require.NoError(t, err)

	assert.NotEqual(t, ka, kb)
}

func TestKey_ToolNameDisambiguates(t *testing.T) {
	params := map[string]any{"address": "0x1"}

	ka, err := Key("chain_get_balance", params)
	require.NoError(t, err)
	kb, err := Key("chain_get_account", params)
	require.NoError(t, err)

	assert.NotEqual(t, ka, kb)
}

func TestKey_StructAndMapEquivalent(t *testing.T) {
	type req struct {
		Address string `json:"address"`
		Page    int    `json:"page"`
	}

	ka, err := Key("t", req{Address: "0x1", Page: 1})
	require.NoError(t, err)
	kb, err := Key("t", map[string]any{"page": 1, "address": "0x1"})
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
}

func TestKey_NilParams(t *testing.T) {
	ka, err := Key("t", nil)
	require.NoError(t, err)
	kb, err := Key("t", nil)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
}
