package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/UniqueRed/DoorDashScraping/cmd/menu-scraper/commands"
)

func main() {
	// Cancelling on a signal lets the deferred release of the remote
	// browser run before the process exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.ExecuteContext(ctx)
}
