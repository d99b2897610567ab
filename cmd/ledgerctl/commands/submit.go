package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cipherledger/internal/ledger/models"
	"cipherledger/internal/orchestrator"
	id "cipherledger/pkg/domain"
)

func submitCmd() *cobra.Command {
	var (
		recordID string
		fields   []string
		numbers  []string
	)
	cmd := &cobra.Command{
		Use:   "submit [value]",
		Short: "Encrypt a value and submit it as a new record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("value must be an unsigned integer: %w", err)
			}
			meta, err := parseMetadata(fields, numbers)
			if err != nil {
				return err
			}
			var opts []orchestrator.SubmitOption
			if recordID != "" {
				opts = append(opts, orchestrator.WithRecordID(id.RecordID(recordID)))
			}
			created, err := app.Orchestrator.CreateEncryptedRecord(cmd.Context(), value, meta, id.Identity(identity), opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), created)
		},
	}
	cmd.Flags().StringVar(&recordID, "id", "", "record id (default a fresh UUID)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "text metadata as key=value, repeatable")
	cmd.Flags().StringArrayVar(&numbers, "number", nil, "numeric metadata as key=value, repeatable")
	return cmd
}

func parseMetadata(fields, numbers []string) (models.Metadata, error) {
	meta := models.Metadata{}
	for _, kv := range fields {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return models.Metadata{}, fmt.Errorf("field %q: expected key=value", kv)
		}
		if meta.Fields == nil {
			meta.Fields = map[string]string{}
		}
		meta.Fields[k] = v
	}
	for _, kv := range numbers {
		k, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return models.Metadata{}, fmt.Errorf("number %q: expected key=value", kv)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return models.Metadata{}, fmt.Errorf("number %q: %w", kv, err)
		}
		if meta.Numbers == nil {
			meta.Numbers = map[string]int64{}
		}
		meta.Numbers[k] = n
	}
	return meta, meta.Validate()
}
