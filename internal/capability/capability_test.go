package capability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyconsole/vyconsole/internal/opbuilder"
)

func TestMatrix_UnmarshalNested(t *testing.T) {
	body := `{
		"version": "1.4",
		"features": {
			"arp": false,
			"mac": true,
			"offload": {"supported": true, "gro": true, "lro": false},
			"ignored": "text"
		}
	}`

	var m Matrix
	require.NoError(t, json.Unmarshal([]byte(body), &m))

	assert.Equal(t, "1.4", m.Version)
	assert.False(t, m.Supports("arp"))
	assert.True(t, m.Supports("mac"))
	assert.True(t, m.Supports("offload"))
	assert.True(t, m.Supports("offload.gro"))
	assert.False(t, m.Supports("offload.lro"))
	assert.False(t, m.Supports("ignored"))
	assert.Equal(t, []string{"mac", "offload", "offload.gro"}, m.Enabled())
	assert.Equal(t, []string{"arp", "offload.lro"}, m.Disabled())
}

func TestMatrix_VyOSVersionFallback(t *testing.T) {
	var m Matrix
	require.NoError(t, json.Unmarshal([]byte(`{"vyos_version":"1.5-rolling","capabilities":{"subnet_id":true}}`), &m))
	assert.Equal(t, "1.5-rolling", m.Version)
	assert.True(t, m.Supports("subnet_id"))
}

func TestMatrix_NilSupportsNothing(t *testing.T) {
	var m *Matrix
	assert.False(t, m.Supports("arp"))
	assert.Nil(t, m.Enabled())

	var gate opbuilder.Gate = m
	assert.False(t, gate.Supports("arp"))
}
