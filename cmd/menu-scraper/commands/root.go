package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/UniqueRed/DoorDashScraping/internal/app"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "menu-scraper",
	Short: "menu-scraper collects the menu of a DoorDash store through a remote browser.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return app.LoadEnv()
		}
		return app.LoadEnv(envFile)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default .env)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
