package command

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/chain"
	"github/chapool/go-sweeper/internal/config"
	"github/chapool/go-sweeper/internal/signer"
	"github/chapool/go-sweeper/internal/sweep"
)

// NewSubcommandGroup returns a command that only exists to group its
// subcommands; invoking it bare prints usage.
func NewSubcommandGroup(name string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use: name,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				log.Fatal().Err(err).Msg("Failed to print help")
			}
		},
	}

	cmd.AddCommand(subcommands...)
	return cmd
}

// WithSweeper validates the config, connects the RPC client, builds the
// signer and sweep service, runs the callback and tears everything down. All
// configuration and connectivity problems fail here, before any transfer
// logic runs.
func WithSweeper(
	ctx context.Context,
	cfg config.Sweeper,
	cat *catalog.Catalog,
	fn func(ctx context.Context, s *sweep.Service) error,
) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	client, err := chain.NewRPCClient(cfg.RPCURLs, cfg.ReceiptTimeout)
	if err != nil {
		return errors.Wrap(err, "failed to connect to RPC endpoint")
	}
	defer client.Close()

	if !client.IsReachable(ctx) {
		return errors.New("RPC endpoint is not reachable")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to resolve chain ID")
	}

	sgn, err := newSigner(cfg)
	if err != nil {
		return err
	}

	log.Info().
		Str("account", sgn.Address().Hex()).
		Str("chain_id", chainID.String()).
		Msg("Sweeper initialized")

	svc := sweep.NewService(client, sgn, cat, sweep.Options{
		ChainID:        chainID,
		Destination:    common.HexToAddress(cfg.DestinationAddress),
		NativeName:     cfg.NativeName,
		NativeSymbol:   cfg.NativeSymbol,
		NativeGasLimit: cfg.NativeGasLimit,
		NativeFloorWei: cfg.NativeFloorWei,
		PacingDelay:    cfg.PacingDelay,
	})

	return fn(ctx, svc)
}

//nolint:ireturn // Returning interface is intentional for DI
func newSigner(cfg config.Sweeper) (signer.Service, error) {
	if cfg.Mnemonic != "" {
		sgn, err := signer.NewFromMnemonic(cfg.Mnemonic)
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive account from mnemonic")
		}
		return sgn, nil
	}

	sgn, err := signer.NewFromPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load account from private key")
	}
	return sgn, nil
}
