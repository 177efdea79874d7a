// Package slot computes the bookable appointment times a clinic can offer
// for one veterinarian on one day.
//
// Everything here is a pure function of its inputs. Callers fetch the
// clinic's hours and the day's existing bookings, build a BusySet, and may
// recompute as often as the inputs change.
package slot

import (
	"strings"
	"time"
)

const (
	DefaultStep    = 30 * time.Minute
	DefaultMinLead = 30 * time.Minute

	DateLayout = "2006-01-02"
)

// Reason explains why a slot cannot be selected. The zero value means available.
type Reason string

const (
	ReasonNone    Reason = ""
	ReasonTooSoon Reason = "too_soon"
	ReasonBooked  Reason = "booked"
	ReasonPast    Reason = "past"
)

// Hint is the short text shown next to a disabled option.
func (r Reason) Hint() string {
	switch r {
	case ReasonTooSoon:
		return "Too soon"
	case ReasonBooked:
		return "Booked"
	case ReasonPast:
		return "Past"
	}
	return ""
}

type Slot struct {
	Time     Clock
	Label    string
	Disabled bool
	Reason   Reason
}

// BusySet holds the "HH:MM" times already booked for a veterinarian on a date.
type BusySet map[string]struct{}

// NewBusySet normalises each entry to "HH:MM"; entries that are not a
// valid time of day are dropped.
func NewBusySet(times ...string) BusySet {
	b := make(BusySet, len(times))
	for _, t := range times {
		c, err := ParseClock(t)
		if err != nil {
			continue
		}
		b[c.String()] = struct{}{}
	}
	return b
}

func (b BusySet) Has(c Clock) bool {
	_, ok := b[c.String()]
	return ok
}

func (b BusySet) Add(c Clock) {
	b[c.String()] = struct{}{}
}

// Request is the full input to Generate. Zero Step, MinLead and Location
// default to 30m, 30m and UTC.
type Request struct {
	Hours    OperatingHours
	Date     time.Time
	Busy     BusySet
	Now      time.Time
	Step     time.Duration
	MinLead  time.Duration
	Location *time.Location
}

// Generate emits one slot per step from Hours.Start to Hours.End inclusive.
// A slot is disabled for the first matching reason, checked in this order:
// too soon (today, within MinLead of Now), booked, past (today, earlier
// than Now's time of day).
func Generate(req Request) []Slot {
	step := req.Step
	if step <= 0 {
		step = DefaultStep
	}
	lead := req.MinLead
	if lead <= 0 {
		lead = DefaultMinLead
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}

	y, mo, d := req.Date.Date()
	now := req.Now.In(loc)
	ny, nmo, nd := now.Date()
	today := y == ny && mo == nmo && d == nd
	nowMinutes := Clock(now.Hour()*60 + now.Minute())

	stepMinutes := int(step / time.Minute)
	if stepMinutes <= 0 {
		stepMinutes = int(DefaultStep / time.Minute)
	}

	slots := make([]Slot, 0, (int(req.Hours.End-req.Hours.Start)/stepMinutes)+1)
	for m := int(req.Hours.Start); m <= int(req.Hours.End); m += stepMinutes {
		tick := Clock(m)
		// Built from the wall clock so DST transition days line up.
		at := time.Date(y, mo, d, m/60, m%60, 0, 0, loc)

		reason := ReasonNone
		switch {
		case today && at.Sub(now) < lead:
			reason = ReasonTooSoon
		case req.Busy.Has(tick):
			reason = ReasonBooked
		case today && tick < nowMinutes:
			reason = ReasonPast
		}

		slots = append(slots, Slot{
			Time:     tick,
			Label:    tick.Label(),
			Disabled: reason != ReasonNone,
			Reason:   reason,
		})
	}
	return slots
}

// ComputeOption adjusts a Compute call.
type ComputeOption func(*Request)

func WithStep(d time.Duration) ComputeOption        { return func(r *Request) { r.Step = d } }
func WithMinLead(d time.Duration) ComputeOption     { return func(r *Request) { r.MinLead = d } }
func WithLocation(loc *time.Location) ComputeOption { return func(r *Request) { r.Location = loc } }

// Compute is the string-level entry point. An unparseable date yields no
// slots rather than an error; callers fall back to free-text time entry.
func Compute(hours, date string, busy BusySet, now time.Time, opts ...ComputeOption) []Slot {
	req := Request{
		Hours: ParseOperatingHours(hours),
		Busy:  busy,
		Now:   now,
	}
	for _, opt := range opts {
		opt(&req)
	}
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return nil
	}
	req.Date = d
	return Generate(req)
}

// Find returns the slot starting at c, if the sequence offers one.
func Find(slots []Slot, c Clock) (Slot, bool) {
	for _, s := range slots {
		if s.Time == c {
			return s, true
		}
	}
	return Slot{}, false
}
