// Command kakeibo-admin runs maintenance tasks against the kakeibo database:
// schema migrations, settlement reports, recurring sweeps and ledger repairs.
package main

import (
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"kakeibo/internal/cli"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range Commands {
		commander.Register(c, "")
	}

	flag.Parse()

	ctx, stop := cli.ShutdownContext()
	code := int(commander.Execute(ctx))
	stop()
	os.Exit(code)
}
