package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/jwalitptl/vetbook-api/internal/cli"
)

var CLI struct {
	Version kong.VersionFlag

	Slots       cli.SlotsCmd       `cmd:"" help:"Preview the bookable slots for a day."`
	CheckConfig cli.CheckConfigCmd `cmd:"" help:"Load and validate the service configuration."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("vetbook"),
		kong.Description("VetBook operator tools"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	if err := ctx.Run(&cli.Context{Out: os.Stdout, Now: time.Now}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
