package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/b-clawson/pms-finder/ingest"
)

var flagSourceConfig string

var ingestCmd = &cobra.Command{
	Use:       "ingest [spreadsheet|scrape|patch|all]",
	Short:     "Build the canonical partition files",
	Long:      "Runs the pipelines named by the source config, or only the one given as argument.\nThe source config is a JSON file; PMSFINDER_INGEST_* variables override it.",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{ingest.PipelineSpreadsheet, ingest.PipelineScrape, ingest.PipelinePatch, "all"},
	RunE:      runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&flagSourceConfig, "config", "c", "", "Source config JSON file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sc, err := ingest.LoadSourceConfig(flagSourceConfig)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if args[0] == "all" {
			sc.Pipelines = []string{ingest.PipelineSpreadsheet, ingest.PipelineScrape, ingest.PipelinePatch}
		} else {
			sc.Pipelines = []string{args[0]}
		}
	}

	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	rep, err := svc.RunIngestion(cmd.Context(), sc)
	for _, p := range rep.Pipelines {
		log.Printf("[*] %s", p)
	}
	for _, s := range rep.Series {
		switch {
		case s.Skipped:
			log.Printf("[-] %s: skipped", s.Series.Name)
		case s.Err != nil:
			log.Printf("[!] %s: %v", s.Series.Name, s.Err)
		default:
			log.Printf("[*] %s: %d formulas, %d PMS matched, %d components without hex",
				s.Series.Name, s.Formulas, s.PMSMatched, s.MissingHex)
		}
	}
	if p := rep.Patch; p != nil {
		log.Printf("[*] Patch: %d resolved (%d specialty, %d date suffix, %d reference), %d still null",
			p.Resolved, p.BySpecialty, p.ByDateStrip, p.ByReference, p.NullAfter)
	}
	if err != nil {
		return err
	}
	if rep.Errors > 0 {
		return fmt.Errorf("ingestion finished with %d errors", rep.Errors)
	}
	return nil
}
