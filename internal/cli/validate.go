package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"aelin/internal/chains"
	"aelin/internal/deal"
)

// ErrInvalidDraft is returned after the result has been printed for a draft
// with at least one failing step.
var ErrInvalidDraft = errors.New("deal draft is invalid")

// NewValidateCmd returns a command that validates a draft read from a file or stdin.
func NewValidateCmd() *cobra.Command {
	var chainID int64
	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate a deal draft and print the per-step result",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chainID <= 0 {
				return fmt.Errorf("--chain-id is required")
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read draft: %w", err)
			}
			var d deal.Draft
			if err := json.Unmarshal(raw, &d); err != nil {
				return fmt.Errorf("parse draft: %w", err)
			}

			res, err := deal.Validate(d, chains.ID(chainID))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Valid() {
				return ErrInvalidDraft
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&chainID, "chain-id", 0, "Chain the deal will be created on")
	return cmd
}
