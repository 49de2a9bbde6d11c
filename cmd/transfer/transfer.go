package transfer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/config"
	sweepsvc "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer SYMBOL QUANTITY",
		Short: "Transfer an explicit quantity of one catalog token to the destination wallet",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			runTransfer(cmd.Context(), args[0], args[1])
		},
	}
}

func runTransfer(ctx context.Context, symbol, quantity string) {
	cfg := config.DefaultSweepConfigFromEnv()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load token catalog")
	}

	// Resolve the symbol before touching the network.
	if _, err := cat.BySymbol(symbol); err != nil {
		log.Fatal().Err(err).Str("symbol", symbol).Msg("Unknown token symbol")
	}

	err = command.WithSweeper(ctx, cfg, cat, func(ctx context.Context, s *sweepsvc.Service) error {
		outcome, err := s.TransferToken(ctx, symbol, quantity)
		if err != nil {
			return err
		}

		if outcome.Status == sweepsvc.StatusFailed {
			return errors.Wrapf(outcome.Err, "transfer of %s failed", symbol)
		}

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Transfer failed")
	}
}
