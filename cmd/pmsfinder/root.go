package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pmsfinder "github.com/b-clawson/pms-finder"
)

var config Config

var rootCmd = &cobra.Command{
	Use:          "pmsfinder",
	Short:        "Find the ink formulas closest to a color",
	SilenceUsage: true,
	Long: `pmsfinder matches a target color against the local formula catalog,
the vendor mixing systems and the PMS reference swatches, and runs the
offline ingestion and audit jobs that build the catalog.

Configuration is read from PMSFINDER_* environment variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		config = c
		return nil
	},
}

// Execute runs the command line. An interrupt cancels the running command,
// letting a scrape write its last checkpoint.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newService(ctx context.Context) (*pmsfinder.Service, error) {
	return pmsfinder.New(ctx, config.MakeConfig())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
