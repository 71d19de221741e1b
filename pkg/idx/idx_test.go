package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_UniqueAndSortable(t *testing.T) {
	prev := New()
	for range 100 {
		next := New()
		require.NotEqual(t, prev, next)
		require.Less(t, prev.String(), next.String(), "monotonic source should keep IDs ordered")
		prev = next
	}
}

func TestParse(t *testing.T) {
	id := New()

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	for _, bad := range []string{"", "   ", "not-a-ulid", "0000"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrInvalid, "input %q", bad)
	}
}

func TestTime(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewAt(at)
	require.WithinDuration(t, at, id.Time(), time.Millisecond)

	require.True(t, Zero.Time().IsZero())
}
