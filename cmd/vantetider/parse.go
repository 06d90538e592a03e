package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"vantetider/internal/pipeline"
)

func newTableParseCmd(a *app) *cobra.Command {
	var input, measure string
	cmd := &cobra.Command{
		Use:   "table:parse",
		Short: "Parse the data table of one page (file or URL) and print its records.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body []byte
			if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
				page, err := a.cache.Get(cmd.Context(), input)
				if err != nil {
					return err
				}
				body = page.Body
			} else {
				raw, err := os.ReadFile(input)
				if err != nil {
					return err
				}
				body = raw
			}

			doc, err := pipeline.NewDocument(bytes.NewReader(body))
			if err != nil {
				return err
			}
			table, err := pipeline.Assemble(doc, measure)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "layout=%s parts=%d records=%d\n", table.Layout.Shape, len(table.Parts), table.Len())
			renderRecords(out, table.Collect())
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "HTML file or URL")
	cmd.Flags().StringVar(&measure, "measure", "", "measure for untabbed tables")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
