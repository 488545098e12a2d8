package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	civica "github.com/kailas-cloud/civica/pkg/sdk"
)

func newHashPassphraseCmd() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "hash-passphrase",
		Short: "Print a bcrypt hash for vault.passphrase_hash",
		Long: `Print a bcrypt hash for vault.passphrase_hash.
Without --passphrase the first line of stdin is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if passphrase == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("passphrase required (--passphrase or stdin)")
				}
				passphrase = strings.TrimRight(line, "\r\n")
			}
			hash, err := civica.HashPassphrase(passphrase)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "passphrase to hash")
	return cmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Print a random base64 master key for vault.encryption_key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := civica.GenerateEncryptionKey()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
			return err
		},
	}
}
