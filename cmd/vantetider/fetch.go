package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vantetider/internal/dataset"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		datasetID string
		regions   []string
		years     []string
		periods   []string
		sets      []string
		outPath   string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Query a dataset, store the observations and print them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := buildQuery(regions, years, periods, sets)
			if err != nil {
				return err
			}
			res, err := a.datasets.Fetch(cmd.Context(), datasetID, query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetched dataset=%s queries=%d skipped=%d observations=%d\n",
				datasetID, res.Queries, len(res.Skipped), len(res.Observations))
			renderObservations(out, res.Observations, limit)

			if outPath != "" {
				if err := dataset.ExportXLSX(res.Observations, outPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "exported %s\n", outPath)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&datasetID, "dataset", "", "dataset id")
	f.StringArrayVar(&regions, "region", nil, "region label or id (repeatable)")
	f.StringArrayVar(&years, "year", nil, "year (repeatable)")
	f.StringArrayVar(&periods, "period", nil, "period (repeatable)")
	f.StringArrayVar(&sets, "set", nil, "other dimension as dim=value (repeatable)")
	f.StringVar(&outPath, "out", "", "write an xlsx export to this path")
	f.IntVar(&limit, "limit", 50, "rows to print, 0 prints all")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// buildQuery merges the dedicated flags and dim=value pairs into a query.
func buildQuery(regions, years, periods, sets []string) (map[string][]string, error) {
	query := map[string][]string{}
	add := func(dim string, values []string) {
		if len(values) > 0 {
			query[dim] = append(query[dim], values...)
		}
	}
	add("region", regions)
	add("year", years)
	add("period", periods)
	for _, pair := range sets {
		dim, value, ok := strings.Cut(pair, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return nil, fmt.Errorf("--set %q: expected dim=value", pair)
		}
		add(dim, []string{strings.TrimSpace(value)})
	}
	return query, nil
}
