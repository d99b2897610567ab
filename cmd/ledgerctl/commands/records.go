package commands

import (
	"github.com/spf13/cobra"

	"cipherledger/internal/attest"
	id "cipherledger/pkg/domain"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List record ids in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := app.Ledger.ListRecordIDs(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ids)
		},
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := app.Ledger.ReadRecord(cmd.Context(), id.RecordID(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 seed for GATEWAY_SEED or ORACLE_SEED",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, pub, err := attest.GenerateSeed()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"seed": seed, "public_key": pub})
		},
	}
}
