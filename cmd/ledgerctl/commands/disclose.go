package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"cipherledger/internal/ledger/models"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

type disclosureLine struct {
	ID     id.RecordID            `json:"id"`
	Result *models.RecordVerified `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Kind   dErrors.Code           `json:"kind,omitempty"`
}

func discloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disclose [id...]",
		Short: "Request a decryption proof for records and submit it for verification",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				res, err := app.Orchestrator.RequestDisclosure(cmd.Context(), id.RecordID(args[0]))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			}

			ids := make([]id.RecordID, len(args))
			for i, a := range args {
				ids[i] = id.RecordID(a)
			}
			var failed int
			lines := make([]disclosureLine, 0, len(ids))
			for _, o := range app.Orchestrator.RequestDisclosures(cmd.Context(), ids) {
				line := disclosureLine{ID: o.RecordID, Result: o.Result}
				if o.Err != nil {
					failed++
					line.Error = o.Err.Error()
					line.Kind = dErrors.CodeOf(o.Err)
				}
				lines = append(lines, line)
			}
			if err := printJSON(cmd.OutOrStdout(), lines); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d disclosures failed", failed, len(ids))
			}
			return nil
		},
	}
}
