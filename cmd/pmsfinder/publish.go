package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/b-clawson/pms-finder/blob"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy the canonical files to the S3 bucket",
	Long:  "Reads the files from the configured store and uploads them, with a manifest.json,\nto PMSFINDER_S3_BUCKET.",
	Args:  cobra.NoArgs,
	RunE:  runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	dst, err := blob.NewS3(ctx, config.MakeConfig().BlobConfig().S3)
	if err != nil {
		return err
	}
	m, err := svc.Publish(ctx, dst)
	if err != nil {
		return err
	}
	log.Printf("[*] Published %d files, %d records, manifest %s", len(m.Files), m.Records(), m.ID)
	for _, key := range m.Missing {
		log.Printf("[-] %s: not found", key)
	}
	return nil
}
