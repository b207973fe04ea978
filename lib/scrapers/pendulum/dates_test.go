package pendulum

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExtractQuizDate(t *testing.T) {
	date, err := ExtractQuizDate("https://pendulumedu.com/qotd/daily-current-affairs-quiz-28-november-2025")
	require.NoError(t, err)
	require.Equal(t, 28, date.Day)
	require.Equal(t, time.November, date.Month)
	require.Equal(t, 2025, date.Year)
	require.False(t, date.IsRange())
	require.Equal(t, "28 November 2025", date.English())
	require.Equal(t, "28 નવેમ્બર 2025", date.Gujarati())
	require.Equal(t, "20251128", date.Filename())
}

func TestExtractQuizDateRange(t *testing.T) {
	date, err := ExtractQuizDate("https://pendulumedu.com/qotd/daily-current-affairs-quiz-23-and-24-november-2025")
	require.NoError(t, err)
	require.True(t, date.IsRange())
	require.Equal(t, 23, date.Day)
	require.Equal(t, 24, date.EndDay)
	require.Equal(t, "23 and 24 November 2025", date.English())
	require.Equal(t, "23 અને 24 નવેમ્બર 2025", date.Gujarati())
	require.Equal(t, "20251123", date.Filename())
}

func TestExtractQuizDateAbbreviatedMonth(t *testing.T) {
	date, err := ExtractQuizDate("https://pendulumedu.com/qotd/quiz-5-jan-2026")
	require.NoError(t, err)
	require.Equal(t, 5, date.Day)
	require.Equal(t, time.January, date.Month)
	require.Equal(t, 2026, date.Year)
}

func TestExtractQuizDateMonthFirst(t *testing.T) {
	date, err := ExtractQuizDate("https://pendulumedu.com/qotd/quiz-november-28-2025")
	require.NoError(t, err)
	require.Equal(t, 28, date.Day)
	require.Equal(t, time.November, date.Month)
}

func TestExtractQuizDateNumeric(t *testing.T) {
	date, err := ExtractQuizDate("https://pendulumedu.com/qotd/quiz-28-11-2025")
	require.NoError(t, err)
	require.Equal(t, 28, date.Day)
	require.Equal(t, time.November, date.Month)
	require.Equal(t, 2025, date.Year)
}

func TestExtractQuizDateInvalid(t *testing.T) {
	_, err := ExtractQuizDate("https://pendulumedu.com/qotd/some-other-page")
	require.ErrorIs(t, err, NoDateInUrl)

	// a numeric slug that is not a real calendar day
	_, err = ExtractQuizDate("https://pendulumedu.com/qotd/quiz-31-02-2025")
	require.ErrorIs(t, err, NoDateInUrl)
}
