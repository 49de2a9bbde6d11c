package probe

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-sweeper/internal/chain"
	"github/chapool/go-sweeper/internal/config"
)

func newReadiness() *cobra.Command {
	return &cobra.Command{
		Use:   "readiness",
		Short: "Check that the configured RPC endpoint is reachable",
		Run: func(cmd *cobra.Command, _ []string) {
			runReadiness(cmd.Context())
		},
	}
}

func runReadiness(ctx context.Context) {
	cfg := config.DefaultSweepConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	client, err := chain.NewRPCClient(cfg.RPCURLs, cfg.ReceiptTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RPC endpoint")
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("RPC endpoint is not reachable")
	}

	log.Info().
		Str("chain_id", chainID.String()).
		Msg("RPC endpoint is ready")
}
