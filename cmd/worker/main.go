// Command worker runs the inventory price sync and operator tooling.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"invtrack/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&serveCmd{}, "sync")
	subcommands.Register(&syncCmd{}, "sync")
	subcommands.Register(&statusCmd{}, "sync")

	subcommands.Register(&addCmd{}, "inventory")
	subcommands.Register(&editCmd{}, "inventory")
	subcommands.Register(&deleteCmd{}, "inventory")
	subcommands.Register(&listCmd{}, "inventory")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
