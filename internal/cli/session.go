package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aelin/internal/chains"
	"aelin/pkg/config"
	"aelin/pkg/evm"
	"aelin/pkg/session"
)

func NewSessionCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Wallet session tokens",
	}
	cmd.AddCommand(newSessionIssueCmd(cfg))
	return cmd
}

func newSessionIssueCmd(cfg config.Config) *cobra.Command {
	var (
		address string
		chainID int64
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.IsProd() {
				return fmt.Errorf("session issue is disabled in prod")
			}
			if cfg.Session.Secret == "" {
				return fmt.Errorf("SESSION_SECRET is not set")
			}
			if !evm.IsAddress(address) {
				return fmt.Errorf("invalid --address %q", address)
			}

			token, err := session.Issue(address, chainID, cfg.Session.Issuer, cfg.Session.Secret, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Sponsor wallet address")
	cmd.Flags().Int64Var(&chainID, "chain-id", int64(chains.Mainnet), "Chain the wallet is connected to")
	cmd.Flags().DurationVar(&ttl, "ttl", cfg.Session.TTL, "Token lifetime")
	return cmd
}
