package membuf_test

import (
	"math"
	"testing"

	"github.com/perimetr/gatekeeper/membuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardedBufferReadWrite(t *testing.T) {
	t.Parallel()

	buf, err := membuf.NewGuardedBuffer(256)
	require.NoError(t, err)

	defer buf.Close()

	assert.Equal(t, 256, buf.Size())

	payload := []byte("market data frame")
	require.NoError(t, buf.WriteAt(payload, 10))

	got := make([]byte, len(payload))
	require.NoError(t, buf.ReadAt(got, 10))
	assert.Equal(t, payload, got)
}

func TestGuardedBufferRangeRejection(t *testing.T) {
	t.Parallel()

	buf, err := membuf.NewGuardedBuffer(64)
	require.NoError(t, err)

	defer buf.Close()

	original := []byte("untouched")
	require.NoError(t, buf.WriteAt(original, 0))

	testCases := []struct {
		name   string
		offset int
		length int
	}{
		{"past end", 60, 5},
		{"offset beyond size", 65, 0},
		{"negative offset", -1, 4},
		{"negative length", 0, -4},
		{"sum overflows", math.MaxInt - 1, 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, buf.ValidateRange(tc.offset, tc.length))

			// A slice cannot carry a negative length, so the copying
			// entry points are unreachable for that case.
			if tc.length < 0 {
				return
			}

			assert.ErrorIs(t,
				buf.WriteAt(make([]byte, tc.length), tc.offset),
				membuf.ErrBufferOverflow)
			assert.ErrorIs(t,
				buf.ReadAt(make([]byte, tc.length), tc.offset),
				membuf.ErrBufferOverflow)
		})
	}

	// Rejected operations must not have touched the contents.
	got := make([]byte, len(original))
	require.NoError(t, buf.ReadAt(got, 0))
	assert.Equal(t, original, got)
}

func TestGuardedBufferValidateBoundary(t *testing.T) {
	t.Parallel()

	buf, err := membuf.NewGuardedBuffer(64)
	require.NoError(t, err)

	defer buf.Close()

	assert.True(t, buf.ValidateRange(0, 64))
	assert.True(t, buf.ValidateRange(64, 0))
	assert.False(t, buf.ValidateRange(64, 1))
	assert.False(t, buf.ValidateRange(1, 64))
}

func TestGuardedBufferClose(t *testing.T) {
	t.Parallel()

	buf, err := membuf.NewGuardedBuffer(32)
	require.NoError(t, err)

	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())

	assert.Nil(t, buf.Bytes())
	assert.ErrorIs(t, buf.WriteAt([]byte{1}, 0), membuf.ErrClosed)
	assert.ErrorIs(t, buf.ReadAt(make([]byte, 1), 0), membuf.ErrClosed)
}

func TestGuardedBufferRejectsBadSize(t *testing.T) {
	t.Parallel()

	_, err := membuf.NewGuardedBuffer(0)
	assert.Error(t, err)

	_, err = membuf.NewGuardedBuffer(-5)
	assert.Error(t, err)
}
