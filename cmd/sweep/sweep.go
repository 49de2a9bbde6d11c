package sweep

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/config"
	sweepsvc "github/chapool/go-sweeper/internal/sweep"
	"github/chapool/go-sweeper/internal/util/command"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [force]",
		Short: "Drain all catalog token balances and the native remainder to the destination wallet",
		Long: `Iterates the token catalog in order, transferring each full balance to the
destination wallet, then sweeps the remaining native currency minus the fee
budget. The optional "force" literal bypasses the native floor threshold.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			force := len(args) > 0 && args[0] == "force"
			runSweep(cmd.Context(), force)
		},
	}
}

func runSweep(ctx context.Context, force bool) {
	cfg := config.DefaultSweepConfigFromEnv()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load token catalog")
	}

	err = command.WithSweeper(ctx, cfg, cat, func(ctx context.Context, s *sweepsvc.Service) error {
		outcomes, err := s.SweepAll(ctx, force)
		if err != nil {
			return err
		}

		summarize(outcomes)
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sweep run failed")
	}
}

func summarize(outcomes []sweepsvc.Outcome) {
	var confirmed, skipped, failed int
	for _, outcome := range outcomes {
		switch outcome.Status {
		case sweepsvc.StatusConfirmed:
			confirmed++
		case sweepsvc.StatusSkipped:
			skipped++
		case sweepsvc.StatusFailed:
			failed++
		}
	}

	log.Info().
		Int("confirmed", confirmed).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Sweep run finished")
}
