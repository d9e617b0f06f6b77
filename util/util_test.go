package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToUint64(t *testing.T) {
	v, err := StringToUint64("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), v)
	assert.Equal(t, "18446744073709551615", Uint64ToString(v))

	_, err = StringToUint64("-1")
	assert.Error(t, err)
	_, err = StringToUint64("0x10")
	assert.Error(t, err)
}

func TestTailString(t *testing.T) {
	assert.Equal(t, "abc", TailString("abc", 5))
	assert.Equal(t, "bc", TailString("abc", 2))
	assert.Equal(t, "", TailString("abc", 0))
}
