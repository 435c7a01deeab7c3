package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidConfigKey(t *testing.T) {
	for _, key := range configKeys {
		assert.True(t, validConfigKey(key), key)
	}
	assert.False(t, validConfigKey("api"))
	assert.False(t, validConfigKey("api.rat_limit"))
}

func TestConfigSetRejectsUnknownKey(t *testing.T) {
	err := runConfigSet("api.rat_limit", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "api.rat_limit"`)
}
