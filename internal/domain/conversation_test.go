package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_ZonelessUsesLocation(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	got, ok := ParseTimestamp("2024-01-01T12:34:56.789012", est)
	require.True(t, ok)
	require.Equal(t, "12:34", got.In(est).Format("15:04"))
	require.True(t, got.Equal(time.Date(2024, 1, 1, 17, 34, 56, 789012000, time.UTC)))
}

func TestParseTimestamp_ZonelessDefaultsToUTC(t *testing.T) {
	got, ok := ParseTimestamp("2024-01-01 12:34:56", nil)
	require.True(t, ok)
	require.True(t, got.Equal(time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)))
}

func TestParseTimestamp_ExplicitZoneWins(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	got, ok := ParseTimestamp("2024-01-01T12:00:00Z", est)
	require.True(t, ok)
	require.True(t, got.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))

	_, ok = ParseTimestamp("yesterday", est)
	require.False(t, ok)
}

func TestTheme_Toggle(t *testing.T) {
	require.Equal(t, ThemeLight, ThemeDark.Toggle())
	require.Equal(t, ThemeDark, ThemeLight.Toggle())
	require.Equal(t, ThemeDark, ThemeLight.Toggle().Toggle().Toggle())
}
