package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/b-clawson/pms-finder/audit"
)

var flagManifest string

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Validate every canonical file",
	Long:  "Exits 1 when a file fails schema validation. Record counts, percentage sums and duplicates only warn.",
	Args:  cobra.NoArgs,
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&flagManifest, "manifest", "m", "", "YAML manifest of the files to audit (default: built in)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	m := audit.DefaultManifest()
	if flagManifest != "" {
		var err error
		if m, err = audit.ReadManifest(flagManifest); err != nil {
			return err
		}
	}
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	rep := svc.Audit(cmd.Context(), m)
	rep.Print(os.Stdout)
	if code := rep.ExitCode(); code != 0 {
		os.Exit(code)
	}
	return nil
}
