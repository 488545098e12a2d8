package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/civica/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the civicactl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "civicactl %s\n", version.String())
			return err
		},
	}
}
