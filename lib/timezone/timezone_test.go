package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocation(t *testing.T) {
	require.Equal(t, "Asia/Kolkata", Location.String())

	// IST is a fixed +05:30 offset, no DST
	_, offset := time.Date(2026, time.January, 15, 12, 0, 0, 0, Location).Zone()
	require.Equal(t, 5*3600+30*60, offset)
	_, offset = time.Date(2026, time.July, 15, 12, 0, 0, 0, Location).Zone()
	require.Equal(t, 5*3600+30*60, offset)
}

func TestNow(t *testing.T) {
	require.Equal(t, Location, Now().Location())
}
