// Command dompetctl inspects and loads the ledger from the command line.
package main

import (
	"github.com/alecthomas/kong"
)

var cli struct {
	Globals `embed:""`

	Summary summaryCmd `cmd:"" help:"Print the dashboard for a period."`
	List    listCmd    `cmd:"" help:"List transactions, optionally filtered."`
	Import  importCmd  `cmd:"" help:"Import transactions from a JSON file."`
	Resync  resyncCmd  `cmd:"" help:"Rewrite the Google Sheets mirror from the ledger."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("dompetctl"),
		kong.Description("Command line access to the dompet ledger."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
