package commands

import (
	"github.com/spf13/cobra"

	"github.com/UniqueRed/DoorDashScraping/internal/app"
)

var scrapeFlags struct {
	config   string
	out      string
	format   string
	mode     string
	provider string
	headless bool
	logLevel string
}

func init() {
	f := scrapeCmd.Flags()
	f.StringVar(&scrapeFlags.config, "config", app.DefaultConfigPath, "Path to yaml config")
	f.StringVarP(&scrapeFlags.out, "out", "o", "", `Output file, "-" for stdout`)
	f.StringVar(&scrapeFlags.format, "format", "", "Output format: text, table, csv or json")
	f.StringVar(&scrapeFlags.mode, "mode", "", "Loop mode: click or count")
	f.StringVar(&scrapeFlags.provider, "provider", "", "Browser provider: scrapybara or local")
	f.BoolVar(&scrapeFlags.headless, "headless", false, "Run the local browser headless")
	f.StringVar(&scrapeFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [store-url]",
	Short: "Scrolls through a store page, opens every item and prints the captured menu.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The default config is optional, an explicit one is not.
		load := app.LoadOptionalConfig
		if cmd.Flags().Changed("config") {
			load = app.LoadConfig
		}
		cfg, err := load(scrapeFlags.config)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			cfg.StoreURL = args[0]
		}
		if scrapeFlags.out != "" {
			cfg.Out = scrapeFlags.out
		}
		if scrapeFlags.format != "" {
			cfg.Format = scrapeFlags.format
		}
		if scrapeFlags.mode != "" {
			cfg.Mode = scrapeFlags.mode
		}
		if scrapeFlags.provider != "" {
			cfg.Provider = scrapeFlags.provider
		}
		if cmd.Flags().Changed("headless") {
			cfg.Headless = scrapeFlags.headless
		}
		if scrapeFlags.logLevel != "" {
			cfg.LogLevel = scrapeFlags.logLevel
		}

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		return a.Run(cmd.Context())
	},
}
