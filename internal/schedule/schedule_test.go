package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse24Hour(t *testing.T) {
	cases := map[string]TimeOfDay{
		"00:00":  New(0, 0),
		"09:30":  New(9, 30),
		"14:00":  New(14, 0),
		"23:59":  New(23, 59),
		" 08:15": New(8, 15),
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParse12Hour(t *testing.T) {
	cases := map[string]TimeOfDay{
		"12:00 AM": New(0, 0),
		"12:30 AM": New(0, 30),
		"01:00 AM": New(1, 0),
		"11:59 AM": New(11, 59),
		"12:00 PM": New(12, 0),
		"02:00 PM": New(14, 0),
		"11:30 pm": New(23, 30),
		"2:00 PM":  New(14, 0),
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "14", "25:00", "14:60", "13:00 PM", "00:00 AM", "abc", "14-00"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestFormat12Edges(t *testing.T) {
	assert.Equal(t, "12:00 AM", New(0, 0).Format12())
	assert.Equal(t, "12:00 PM", New(12, 0).Format12())
	assert.Equal(t, "01:00 PM", New(13, 0).Format12())
	assert.Equal(t, "11:30 PM", New(23, 30).Format12())
}

func TestLabelsCoverLegacySpellings(t *testing.T) {
	assert.Equal(t, []string{"09:30", "09:30 AM", "9:30 AM"}, New(9, 30).Labels())
	assert.Equal(t, []string{"14:00", "02:00 PM", "2:00 PM"}, New(14, 0).Labels())
	assert.Equal(t, []string{"10:00", "10:00 AM"}, New(10, 0).Labels())
}

func TestTwelveHourRoundTrip(t *testing.T) {
	// Every half-hour label in a day must survive a 12-hour round trip.
	for m := TimeOfDay(0); m < 24*60; m += 30 {
		label := m.Format12()
		back, err := Parse(label)
		require.NoError(t, err, label)
		assert.Equal(t, m, back, label)
	}
}

func TestSlotsBoundsAndSpacing(t *testing.T) {
	cases := []struct {
		start, end TimeOfDay
		interval   time.Duration
	}{
		{New(9, 0), New(17, 0), 30 * time.Minute},
		{New(9, 0), New(11, 0), 30 * time.Minute},
		{New(0, 0), New(23, 30), 15 * time.Minute},
		{New(8, 0), New(8, 45), 20 * time.Minute},
	}
	for _, tc := range cases {
		name := fmt.Sprintf("%s-%s/%s", tc.start, tc.end, tc.interval)
		slots := Slots(tc.start, tc.end, tc.interval)

		wantCount := int(tc.end-tc.start) / int(tc.interval/time.Minute)
		require.Len(t, slots, wantCount, name)

		for i, s := range slots {
			assert.GreaterOrEqual(t, s, tc.start, name)
			assert.Less(t, s, tc.end, name)
			if i > 0 {
				assert.Equal(t, TimeOfDay(tc.interval/time.Minute), s-slots[i-1], name)
			}
		}
	}
}

func TestSlotsIncludesLastBeforeEnd(t *testing.T) {
	slots := Slots(New(9, 0), New(11, 0), 30*time.Minute)
	require.Len(t, slots, 4)
	assert.Equal(t, New(10, 30), slots[len(slots)-1])
}

func TestSlotsDropPartialTrailingSlot(t *testing.T) {
	// 08:00-08:45 at 20 minutes fits two whole slots; 08:40 would run
	// past closing and must not be offered.
	slots := Slots(New(8, 0), New(8, 45), 20*time.Minute)
	assert.Equal(t, []TimeOfDay{New(8, 0), New(8, 20)}, slots)

	// An interval longer than the window yields nothing.
	assert.Empty(t, Slots(New(9, 0), New(9, 20), 30*time.Minute))
}

func TestSlotsDegenerateWindows(t *testing.T) {
	assert.Empty(t, Slots(New(9, 0), New(9, 0), 30*time.Minute))
	assert.Empty(t, Slots(New(17, 0), New(9, 0), 30*time.Minute))
	assert.Empty(t, Slots(Unset, New(17, 0), 30*time.Minute))
	assert.Empty(t, Slots(New(9, 0), Unset, 30*time.Minute))
	assert.Empty(t, Slots(New(9, 0), New(17, 0), 0))
}

func TestContains(t *testing.T) {
	start, end := New(9, 0), New(17, 0)
	assert.True(t, Contains(start, end, 30*time.Minute, New(9, 0)))
	assert.True(t, Contains(start, end, 30*time.Minute, New(16, 30)))
	assert.False(t, Contains(start, end, 30*time.Minute, New(17, 0)))
	assert.False(t, Contains(start, end, 30*time.Minute, New(9, 15)))
	assert.False(t, Contains(start, end, 30*time.Minute, New(8, 30)))

	// A grid-aligned start time whose slot would extend past closing is
	// not bookable.
	assert.False(t, Contains(New(8, 0), New(8, 45), 20*time.Minute, New(8, 40)))
}

func TestAt(t *testing.T) {
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	got := New(14, 30).At(date)
	assert.Equal(t, time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC), got)
}
