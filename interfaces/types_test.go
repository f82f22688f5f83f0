package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuntimeConfigRange(t *testing.T) {
	cfg, err := NewRuntimeConfig(8)
	require.NoError(t, err)
	assert.Equal(t, uint8(8), cfg.ModuleCacheSize)

	cfg, err = NewRuntimeConfig(255)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), cfg.ModuleCacheSize)

	for _, size := range []int{-1, 256, 4096} {
		_, err := NewRuntimeConfig(size)
		assert.Error(t, err, "size %d must be rejected, not truncated", size)
	}
}
