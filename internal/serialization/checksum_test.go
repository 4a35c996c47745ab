package serialization

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeChecksum(t *testing.T) {
	data := []byte("test data")
	assert.Equal(t, ComputeChecksum(data), ComputeChecksum(data))
	assert.NotEqual(t, ComputeChecksum(data), ComputeChecksum([]byte("different data")))
}

func TestValidateChecksum(t *testing.T) {
	a := ComputeChecksum([]byte("a"))
	b := ComputeChecksum([]byte("b"))
	assert.NoError(t, ValidateChecksum(a, a))
	assert.ErrorIs(t, ValidateChecksum(a, b), ErrChecksumMismatch)
}

func TestFormatParseChecksum(t *testing.T) {
	sum := ComputeChecksum([]byte("state"))
	s := FormatChecksum(sum)
	assert.Len(t, s, 64)
	assert.Equal(t, strings.ToLower(s), s)

	parsed, err := ParseChecksum(s)
	require.NoError(t, err)
	assert.Equal(t, sum, parsed)

	_, err = ParseChecksum("zz")
	assert.ErrorIs(t, err, ErrChecksumMismatch)
	_, err = ParseChecksum("abcd")
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}
