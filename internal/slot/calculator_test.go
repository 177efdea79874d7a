package slot

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 17, 10, 10, 0, 0, time.UTC)

func times(slots []Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time.String()
	}
	return out
}

func TestGenerate_SlotCount(t *testing.T) {
	tests := []struct {
		hours string
		want  int
	}{
		{"08:00-09:00", 3},
		{"08:00-17:00", 19},
		{"09:15-09:40", 1},
		{"12:00-12:00", 1},
		{"00:00-23:30", 48},
		{"07:00-07:59", 2},
	}

	for _, tt := range tests {
		t.Run(tt.hours, func(t *testing.T) {
			h := ParseOperatingHours(tt.hours)
			slots := Generate(Request{Hours: h, Date: fixedNow.AddDate(0, 0, 1), Now: fixedNow})
			assert.Len(t, slots, tt.want)
			assert.Equal(t, int(h.End-h.Start)/30+1, len(slots))
		})
	}
}

func TestGenerate_InclusiveEndBoundary(t *testing.T) {
	slots := Compute("08:00-09:00", "2026-10-18", nil, fixedNow)
	assert.Equal(t, []string{"08:00", "08:30", "09:00"}, times(slots))
	for _, s := range slots {
		assert.False(t, s.Disabled)
	}
}

func TestGenerate_MalformedHoursFallBackToDefault(t *testing.T) {
	for _, raw := range []string{"garbage", "", "8:00-17:00", "17:00-08:00", "08:00 - 17:00"} {
		t.Run(raw, func(t *testing.T) {
			slots := Compute(raw, "2026-10-18", nil, fixedNow)
			require.Len(t, slots, 19)
			assert.Equal(t, "08:00", slots[0].Time.String())
			assert.Equal(t, "17:00", slots[18].Time.String())
		})
	}
}

func TestGenerate_BookedOnFutureDate(t *testing.T) {
	slots := Compute("08:00-10:00", "2026-10-18", NewBusySet("08:30"), fixedNow)

	require.Len(t, slots, 5)
	for _, s := range slots {
		if s.Time.String() == "08:30" {
			assert.True(t, s.Disabled)
			assert.Equal(t, ReasonBooked, s.Reason)
			continue
		}
		assert.False(t, s.Disabled, "slot %s", s.Time)
		assert.Equal(t, ReasonNone, s.Reason)
	}
}

func TestGenerate_TodayReasonPriority(t *testing.T) {
	busy := NewBusySet("09:00", "10:30", "11:30")
	slots := Compute("08:00-12:00", "2026-10-17", busy, fixedNow)

	want := map[string]Reason{
		"08:00": ReasonTooSoon,
		"08:30": ReasonTooSoon,
		"09:00": ReasonTooSoon, // busy and past, lead time wins
		"09:30": ReasonTooSoon,
		"10:00": ReasonTooSoon,
		"10:30": ReasonTooSoon, // 20 minutes away
		"11:00": ReasonNone,
		"11:30": ReasonBooked,
		"12:00": ReasonNone,
	}

	require.Len(t, slots, len(want))
	for _, s := range slots {
		assert.Equal(t, want[s.Time.String()], s.Reason, "slot %s", s.Time)
		assert.Equal(t, s.Reason != ReasonNone, s.Disabled)
	}
}

func TestGenerate_LeadTimeBoundary(t *testing.T) {
	now := time.Date(2026, 10, 17, 10, 30, 0, 0, time.UTC)
	slots := Compute("10:00-12:00", "2026-10-17", nil, now)

	s, ok := Find(slots, NewClock(11, 0))
	require.True(t, ok)
	assert.False(t, s.Disabled, "exactly MinLead ahead is bookable")

	s, ok = Find(slots, NewClock(10, 30))
	require.True(t, ok)
	assert.Equal(t, ReasonTooSoon, s.Reason)
}

func TestGenerate_PastDateHasNoLeadOrPastChecks(t *testing.T) {
	slots := Compute("08:00-09:00", "2026-10-16", NewBusySet("08:00"), fixedNow)
	assert.Equal(t, ReasonBooked, slots[0].Reason)
	assert.False(t, slots[1].Disabled)
}

func TestGenerate_LocationDecidesToday(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 23:20 UTC on the 17th is already 08:20 on the 18th in Tokyo.
	now := time.Date(2026, 10, 17, 23, 20, 0, 0, time.UTC)
	slots := Compute("08:00-09:00", "2026-10-18", nil, now, WithLocation(tokyo))
	require.Len(t, slots, 3)
	assert.Equal(t, ReasonTooSoon, slots[0].Reason)
	assert.Equal(t, ReasonTooSoon, slots[1].Reason)
	assert.False(t, slots[2].Disabled)

	utcSlots := Compute("08:00-09:00", "2026-10-18", nil, now)
	for _, s := range utcSlots {
		assert.False(t, s.Disabled)
	}
}

func TestGenerate_DaylightSavingDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		date string
		now  time.Time
	}{
		// 09:00 EDT, the morning clocks sprang forward.
		{"spring forward", "2026-03-08", time.Date(2026, 3, 8, 13, 0, 0, 0, time.UTC)},
		// 09:00 EST, the morning clocks fell back.
		{"fall back", "2026-11-01", time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := Compute("08:00-11:00", tt.date, nil, tt.now, WithLocation(ny))

			for _, c := range []struct {
				at   Clock
				want Reason
			}{
				{NewClock(8, 30), ReasonTooSoon},
				{NewClock(9, 0), ReasonTooSoon},
				{NewClock(9, 30), ReasonNone},
				{NewClock(10, 0), ReasonNone},
			} {
				s, ok := Find(slots, c.at)
				require.True(t, ok)
				assert.Equal(t, c.want, s.Reason, c.at.String())
			}
		})
	}
}

func TestGenerate_CustomStepAndLead(t *testing.T) {
	slots := Compute("10:00-11:00", "2026-10-17", nil, fixedNow,
		WithStep(15*time.Minute), WithMinLead(time.Hour))

	assert.Equal(t, []string{"10:00", "10:15", "10:30", "10:45", "11:00"}, times(slots))
	for _, s := range slots[:4] {
		assert.Equal(t, ReasonTooSoon, s.Reason)
	}
	assert.Equal(t, ReasonTooSoon, slots[4].Reason, "11:00 is only 50 minutes away")
}

func TestCompute_InvalidDateYieldsNoSlots(t *testing.T) {
	for _, d := range []string{"", "tomorrow", "2026-13-01", "17/10/2026"} {
		assert.Empty(t, Compute("08:00-17:00", d, nil, fixedNow), d)
	}
}

func TestCompute_IsRepeatable(t *testing.T) {
	busy := NewBusySet("09:30")
	first := Compute("08:00-12:00", "2026-10-18", busy, fixedNow)
	second := Compute("08:00-12:00", "2026-10-18", busy, fixedNow)
	assert.Equal(t, first, second)
	assert.Len(t, busy, 1)
}

func TestNewBusySet_Normalises(t *testing.T) {
	b := NewBusySet("08:30:00", "09:00", "bogus", "25:00")
	assert.Len(t, b, 2)
	assert.True(t, b.Has(NewClock(8, 30)))
	assert.True(t, b.Has(NewClock(9, 0)))
}

func TestOptions(t *testing.T) {
	slots := Compute("08:00-08:30", "2026-10-18", NewBusySet("08:30"), fixedNow)
	opts := Options(slots)

	assert.Equal(t, []Option{
		{Value: "08:00", Display: "08:00 AM"},
		{Value: "08:30", Display: "08:30 AM", Disabled: true, Hint: "Booked"},
	}, opts)
	assert.Equal(t, 1, Available(slots))
}
