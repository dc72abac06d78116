package main

import (
	"strconv"

	"github.com/spf13/cobra"

	pmsfinder "github.com/b-clawson/pms-finder"
)

var matchFlags struct {
	partition string
	limit     string
	series    string
	swatches  bool
}

var detailFlags struct {
	partition string
}

var matchCmd = &cobra.Command{
	Use:   "match <hex>",
	Short: "Rank a partition's formulas, or the reference swatches, by distance to a color",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

var swatchesCmd = &cobra.Command{
	Use:   "swatches",
	Short: "List the reference swatches",
	Args:  cobra.NoArgs,
	RunE:  runSwatches,
}

var detailCmd = &cobra.Command{
	Use:   "detail <code>",
	Short: "Show one formula of a partition",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetail,
}

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List the local partitions",
	Args:  cobra.NoArgs,
	RunE:  runPartitions,
}

func init() {
	matchCmd.Flags().StringVarP(&matchFlags.partition, "partition", "p", "", "Series, family or vendor category to search (default \"7500 Coated\")")
	matchCmd.Flags().StringVarP(&matchFlags.limit, "limit", "n", strconv.Itoa(pmsfinder.DefaultLimit), "Number of matches, 1 to 50")
	matchCmd.Flags().BoolVar(&matchFlags.swatches, "swatches", false, "Match the reference swatches instead of formulas")
	matchCmd.Flags().StringVar(&matchFlags.series, "series", "BOTH", "Swatch coating with --swatches: C, U or BOTH")
	detailCmd.Flags().StringVarP(&detailFlags.partition, "partition", "p", "", "Series, family or vendor category of the formula")
	rootCmd.AddCommand(matchCmd, swatchesCmd, detailCmd, partitionsCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	limit := pmsfinder.ParseLimit(matchFlags.limit)

	if matchFlags.swatches {
		series, err := pmsfinder.ParseSeries(matchFlags.series)
		if err != nil {
			return err
		}
		res, err := svc.MatchSwatches(ctx, args[0], series, limit)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	res, err := svc.FindClosest(ctx, args[0], matchFlags.partition, limit)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runSwatches(cmd *cobra.Command, _ []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.ListSwatches(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runDetail(cmd *cobra.Command, args []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	res, err := svc.GetFormulaDetail(cmd.Context(), args[0], detailFlags.partition)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runPartitions(cmd *cobra.Command, _ []string) error {
	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(svc.Partitions())
}
