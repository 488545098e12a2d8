package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	civica "github.com/kailas-cloud/civica/pkg/sdk"
)

type rootOptions struct {
	catalogDir string
	noBuiltin  bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "civicactl",
		Short: "Inspect civica catalogs and prepare vault secrets",
		Long: `civicactl runs the civica list filter offline against the built-in
catalogs or a catalog directory, and generates the secrets a server
needs for the evidence vault.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.catalogDir, "catalogs", "", "catalog directory loaded on top of the built-in catalogs")
	cmd.PersistentFlags().BoolVar(&opts.noBuiltin, "no-builtin", false, "skip the built-in catalogs")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log SDK operations to stderr")

	cmd.AddCommand(
		newCatalogsCmd(opts),
		newSearchCmd(opts),
		newHashPassphraseCmd(),
		newKeygenCmd(),
		newVersionCmd(),
	)
	return cmd
}

// client opens an SDK client configured from the persistent flags.
func (o *rootOptions) client(ctx context.Context, stderr io.Writer) (*civica.Client, error) {
	var sdkOpts []civica.Option
	if o.catalogDir != "" {
		sdkOpts = append(sdkOpts, civica.WithCatalogDir(o.catalogDir))
	}
	if o.noBuiltin {
		sdkOpts = append(sdkOpts, civica.WithoutBuiltinCatalogs())
	}
	if o.verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		sdkOpts = append(sdkOpts, civica.WithLogger(logger))
	}
	return civica.New(ctx, sdkOpts...)
}
