package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aelin/pkg/config"
)

// NewRootCmd wires every aelinctl subcommand.
func NewRootCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "aelinctl",
		Short:         "Operator tooling for the Aelin deal service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewValidateCmd())
	rootCmd.AddCommand(NewNFTCmd(cfg, log))
	rootCmd.AddCommand(NewMigrateCmd(cfg))
	rootCmd.AddCommand(NewSessionCmd(cfg))
	return rootCmd
}
