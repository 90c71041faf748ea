package engine_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shylock/servicing-engine/engine"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	jan31 := date(2025, 1, 31)

	assert.True(t, date(2025, 2, 28).Equal(jan31.AddMonths(1)))
	assert.True(t, date(2025, 3, 31).Equal(jan31.AddMonths(2)))
	assert.True(t, date(2024, 2, 29).Equal(date(2024, 1, 31).AddMonths(1)), "leap February keeps the 29th")
}

func TestAddMonths_Negative(t *testing.T) {
	assert.True(t, date(2024, 12, 15).Equal(date(2025, 1, 15).AddMonths(-1)))
	assert.True(t, date(2025, 2, 28).Equal(date(2025, 3, 31).AddMonths(-1)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 73, engine.DaysBetween(date(2025, 1, 1), date(2025, 3, 15)))
	assert.Equal(t, 0, engine.DaysBetween(date(2025, 1, 1), date(2025, 1, 1)))
	assert.Equal(t, -1, engine.DaysBetween(date(2025, 1, 2), date(2025, 1, 1)))
}

func TestParseDate(t *testing.T) {
	got, err := engine.ParseDate("2025-03-15")
	require.NoError(t, err)
	assert.True(t, date(2025, 3, 15).Equal(got))

	_, err = engine.ParseDate("03/15/2025")
	assert.Error(t, err)
}

func TestDate_JSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(date(2025, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-15"`, string(b))

	var got engine.Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-15"`), &got))
	assert.True(t, date(2025, 3, 15).Equal(got))
}
