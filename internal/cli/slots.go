// Package cli holds the vetbook operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwalitptl/vetbook-api/internal/config"
	"github.com/jwalitptl/vetbook-api/internal/slot"
)

// Context is passed to every command's Run.
type Context struct {
	Out io.Writer
	Now func() time.Time
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	availableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	summaryStyle   = lipgloss.NewStyle().MarginTop(1)
)

// SlotsCmd previews what a clinic would offer on a date.
type SlotsCmd struct {
	Hours    string        `help:"Operating hours, HH:MM-HH:MM." default:"08:00-17:00"`
	Date     string        `help:"Date to preview (YYYY-MM-DD or 'today')." default:"today"`
	Busy     []string      `help:"Already booked times (HH:MM)." sep:","`
	Now      string        `help:"Pretend the current time is this RFC3339 instant."`
	Step     time.Duration `help:"Slot length." default:"30m"`
	MinLead  time.Duration `help:"Minimum notice before a slot." default:"30m"`
	Timezone string        `help:"Timezone the date is in." default:"UTC"`
	JSON     bool          `help:"Print the select options as JSON."`
}

func (c *SlotsCmd) Run(ctx *Context) error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.Step <= 0 || c.MinLead <= 0 {
		return fmt.Errorf("--step and --min-lead must be positive")
	}

	now := ctx.Now()
	if c.Now != "" {
		now, err = time.Parse(time.RFC3339, c.Now)
		if err != nil {
			return fmt.Errorf("invalid --now, use RFC3339: %w", err)
		}
	}

	date := c.Date
	if date == "today" {
		date = now.In(loc).Format(slot.DateLayout)
	}

	for _, b := range c.Busy {
		if _, err := slot.ParseClock(b); err != nil {
			return fmt.Errorf("invalid --busy entry: %w", err)
		}
	}

	slots := slot.Compute(c.Hours, date, slot.NewBusySet(c.Busy...), now,
		slot.WithStep(c.Step),
		slot.WithMinLead(c.MinLead),
		slot.WithLocation(loc),
	)

	if c.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(slot.Options(slots))
	}
	return renderSlots(ctx.Out, c.Hours, date, slots)
}

func renderSlots(w io.Writer, hours, date string, slots []slot.Slot) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Slots for %s (%s)", date, slot.ParseOperatingHours(hours))))
	b.WriteString("\n\n")

	if len(slots) == 0 {
		b.WriteString(disabledStyle.Render("  No slots, clients fall back to free-text entry"))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, s := range slots {
		label := fmt.Sprintf("  %-8s %s", s.Time, s.Label)
		if s.Disabled {
			b.WriteString(disabledStyle.Render(label))
			b.WriteString("  ")
			b.WriteString(hintStyle.Render(s.Reason.Hint()))
		} else {
			b.WriteString(availableStyle.Render(label))
		}
		b.WriteString("\n")
	}
	b.WriteString(summaryStyle.Render(fmt.Sprintf("%d of %d available", slot.Available(slots), len(slots))))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// CheckConfigCmd loads the service configuration and reports problems.
type CheckConfigCmd struct{}

func (c *CheckConfigCmd) Run(ctx *Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "%s storage=%s redis=%t smtp=%t timezone=%s\n",
		availableStyle.Render("config ok"),
		cfg.Storage.Driver, cfg.Redis.Enabled, cfg.SMTP.Enabled, cfg.Booking.Location())
	return nil
}
