package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vantetider/internal/dataset"
)

func newExportCmd(a *app) *cobra.Command {
	var datasetID, outPath string
	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export the stored observations of a dataset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			observations, err := a.datasets.Stored(datasetID)
			if err != nil {
				return err
			}
			if len(observations) == 0 {
				return fmt.Errorf("no stored observations for dataset %s, run fetch first", datasetID)
			}
			if err := dataset.ExportXLSX(observations, outPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d observations to %s\n", len(observations), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id")
	cmd.Flags().StringVar(&outPath, "out", "", "xlsx output path")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cache:clear",
		Short: "Remove every cached page.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.cache.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cache cleared pages=%d\n", n)
			return nil
		},
	}
}
