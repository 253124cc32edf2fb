package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

func newLevels() *Normalizer[level] {
	return NewNormalizer(map[string]level{
		"debug":   "debug",
		"info":    "info",
		"warn":    "warn",
		"warning": "warn",
	}, "info")
}

func TestNormalize(t *testing.T) {
	n := newLevels()

	assert.Equal(t, level("debug"), n.Normalize("  DEBUG "))
	assert.Equal(t, level("warn"), n.Normalize("Warning"))
	assert.Equal(t, level("info"), n.Normalize("verbose"))
	assert.Equal(t, level("info"), n.Normalize(""))
}

func TestNormalizeWithError(t *testing.T) {
	n := newLevels()

	v, err := n.NormalizeWithError("warn")
	require.NoError(t, err)
	assert.Equal(t, level("warn"), v)

	v, err = n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, level("info"), v)

	_, err = n.NormalizeWithError("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[debug info warn warning]")
}

func TestValid(t *testing.T) {
	n := newLevels()

	assert.True(t, n.Valid("warn"))
	assert.False(t, n.Valid("warning"))
	assert.Equal(t, []string{"debug", "info", "warn", "warning"}, n.ValidKeys())
}
