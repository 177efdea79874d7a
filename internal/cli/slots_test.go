package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/vetbook-api/internal/slot"
)

type testCLI struct {
	Slots SlotsCmd `cmd:""`
}

func run(t *testing.T, now time.Time, args ...string) (string, error) {
	t.Helper()
	var cli testCLI
	parser, err := kong.New(&cli, kong.Name("vetbook"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Context{Out: &out, Now: func() time.Time { return now }})
	return out.String(), err
}

func TestSlotsJSON(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 10, 0, 0, time.UTC)

	out, err := run(t, now, "slots", "--date=today", "--hours=09:00-11:00", "--busy=10:30", "--json")
	require.NoError(t, err)

	var options []slot.Option
	require.NoError(t, json.Unmarshal([]byte(out), &options))
	require.Len(t, options, 5)

	hints := make([]string, len(options))
	for i, o := range options {
		hints[i] = o.Hint
	}
	assert.Equal(t, []string{"Too soon", "Too soon", "", "Booked", ""}, hints)
}

func TestSlotsTable(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 10, 0, 0, time.UTC)

	out, err := run(t, now, "slots", "--date=2026-10-18", "--hours=09:00-10:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Slots for 2026-10-18 (09:00-10:00)")
	assert.Contains(t, out, "9:30 AM")
	assert.Contains(t, out, "3 of 3 available")
}

func TestSlotsFreeTextFallback(t *testing.T) {
	out, err := run(t, time.Now(), "slots", "--date=18/10/2026")
	require.NoError(t, err)
	assert.Contains(t, out, "free-text")
}

func TestSlotsRejectsBadInput(t *testing.T) {
	_, err := run(t, time.Now(), "slots", "--busy=9:30")
	assert.Error(t, err)

	_, err = run(t, time.Now(), "slots", "--timezone=Mars/Olympus")
	assert.Error(t, err)

	_, err = run(t, time.Now(), "slots", "--now=yesterday")
	assert.Error(t, err)

	_, err = run(t, time.Now(), "slots", "--min-lead=0s")
	assert.Error(t, err)

	_, err = run(t, time.Now(), "slots", "--step=0s")
	assert.Error(t, err)
}
