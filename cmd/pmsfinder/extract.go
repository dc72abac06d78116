package main

import (
	"fmt"
	"strconv"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/spf13/cobra"

	pmsfinder "github.com/b-clawson/pms-finder"
	"github.com/b-clawson/pms-finder/extract"
)

var extractFlags struct {
	region    []int
	match     bool
	partition string
	limit     string
}

var extractCmd = &cobra.Command{
	Use:   "extract <image>",
	Short: "Print the average color of an image, or of a region of it",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().IntSliceVar(&extractFlags.region, "region", nil, "left,top,width,height of the sampled area")
	extractCmd.Flags().BoolVar(&extractFlags.match, "match", false, "Also rank the partition's formulas against the color")
	extractCmd.Flags().StringVarP(&extractFlags.partition, "partition", "p", "", "Partition to match with --match")
	extractCmd.Flags().StringVarP(&extractFlags.limit, "limit", "n", strconv.Itoa(pmsfinder.DefaultLimit), "Number of matches with --match")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	var region extract.Region
	switch r := extractFlags.region; len(r) {
	case 0:
	case 4:
		region = extract.Region{Left: r[0], Top: r[1], Width: r[2], Height: r[3]}
	default:
		return fmt.Errorf("--region needs left,top,width,height")
	}

	vips.LoggingSettings(func(messageDomain string, verbosity vips.LogLevel, message string) {}, vips.LogLevelInfo)
	vips.Startup(&vips.Config{
		ConcurrencyLevel: config.MaxCpuCount,
	})
	defer vips.Shutdown()

	rgb, err := extract.AverageColorFile(args[0], region)
	if err != nil {
		return err
	}
	hex := rgb.Hex()
	if !extractFlags.match {
		fmt.Println(hex)
		return nil
	}

	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.FindClosest(cmd.Context(), hex, extractFlags.partition, pmsfinder.ParseLimit(extractFlags.limit))
	if err != nil {
		return err
	}
	return printJSON(res)
}
