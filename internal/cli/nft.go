package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aelin/internal/nftmetadata"
	"aelin/pkg/config"
	"aelin/pkg/db"
)

func NewNFTCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nft",
		Short: "NFT collection metadata",
	}
	cmd.AddCommand(newNFTCollectCmd(cfg, log))
	return cmd
}

func newNFTCollectCmd(cfg config.Config, log *zap.Logger) *cobra.Command {
	opts := nftmetadata.OptionsFromConfig(cfg.NFT)
	headless := cfg.NFT.Headless
	var store bool

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Enrich marketplace rankings and write metadata snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var sink nftmetadata.Sink
			if store {
				conn, err := db.Open(ctx, cfg)
				if err != nil {
					return fmt.Errorf("db open: %w", err)
				}
				defer conn.Close()
				sink = nftmetadata.NewRepository(conn)
			}

			counts, err := nftmetadata.CollectWithBrowser(ctx, opts, headless, sink, log)
			if err != nil {
				return err
			}
			for _, src := range nftmetadata.Sources {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", src, counts[src])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", opts.DataDir, "Directory with the marketplace ranking snapshots")
	cmd.Flags().StringVar(&opts.OutputDir, "out-dir", opts.OutputDir, "Directory for the metadata JSON files")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", opts.Concurrency, "Parallel lookups per marketplace")
	cmd.Flags().BoolVar(&headless, "headless", headless, "Run the browser without a window")
	cmd.Flags().BoolVar(&store, "store", false, "Also upsert collections into Postgres")
	return cmd
}
