package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	civica "github.com/kailas-cloud/civica/pkg/sdk"
)

type searchOutput struct {
	Catalog string          `json:"catalog"`
	Query   civica.Query    `json:"query"`
	Total   int             `json:"total"`
	Items   []civica.Record `json:"items"`
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		text     string
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search <catalog>",
		Short: "Filter a catalog by text and category",
		Example: `  civicactl search turismo --text piscinas
  civicactl search agendamento --category Saúde --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := root.client(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer client.Close()

			q := civica.Query{Text: text, Category: category}
			recs, err := client.Filter(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}

			if asJSON {
				if recs == nil {
					recs = []civica.Record{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(searchOutput{Catalog: args[0], Query: q, Total: len(recs), Items: recs})
			}

			info, err := client.Catalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tSUMMARY")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.Category, summary(r))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records\n", len(recs), info.Records)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "case-insensitive substring matched against searchable fields")
	cmd.Flags().StringVar(&category, "category", "", "exact category tag (empty or the catalog's all label means all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

// summary picks the first conventional display field of a record.
func summary(r civica.Record) string {
	for _, f := range []string{"name", "title", "label", "question"} {
		if v, ok := r.Fields[f]; ok && v != "" {
			return v
		}
	}
	return ""
}
