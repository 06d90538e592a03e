package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vantetider/internal"
)

func newDatasetsSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets:sync",
		Short: "Discover datasets and their search dimensions and store them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.catalog.Sync(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog sync complete datasets=%d failed=%d\n", len(res.Datasets), len(res.Failed))
			ids := make([]string, 0, len(res.Failed))
			for id := range res.Failed {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(out, "  %s: %v\n", id, res.Failed[id])
			}
			return nil
		},
	}
}

func newDatasetsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets:list",
		Short: "List the known datasets.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := a.catalog.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Label"})
			for _, ds := range datasets {
				t.AppendRow(table.Row{ds.ID, ds.Label})
			}
			if last, err := a.catalog.LastSync(); err == nil && last != nil {
				t.SetCaption("last synced %s", last.Local().Format("2006-01-02 15:04"))
			}
			t.Render()
			return nil
		},
	}
}

func newDimensionsCmd(a *app) *cobra.Command {
	var datasetID string
	cmd := &cobra.Command{
		Use:   "dimensions",
		Short: "Show the search dimensions of a dataset.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, err := a.catalog.Dimensions(cmd.Context(), datasetID)
			if err != nil {
				return err
			}
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Kind", "Form element", "Default", "Values"})
			for _, dim := range dims {
				t.AppendRow(table.Row{dim.ID, string(dim.Kind), dim.ElemID, dim.Default, formatValues(dim.Values)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetID, "dataset", "", "dataset id")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func formatValues(values []internal.DimensionValue) string {
	const maxShown = 8
	parts := make([]string, 0, maxShown+1)
	for i, v := range values {
		if i == maxShown {
			parts = append(parts, fmt.Sprintf("... (%d)", len(values)))
			break
		}
		if v.ID == v.Label {
			parts = append(parts, v.Label)
			continue
		}
		parts = append(parts, v.Label+" ["+v.ID+"]")
	}
	return strings.Join(parts, "\n")
}
