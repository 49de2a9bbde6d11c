package sweep

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/chain"
	"github/chapool/go-sweeper/internal/signer"
	"github/chapool/go-sweeper/internal/util"
)

// Options carries the run parameters resolved at startup.
type Options struct {
	ChainID        *big.Int
	Destination    common.Address
	NativeName     string
	NativeSymbol   string
	NativeGasLimit uint64
	// NativeFloorWei is the human-readable floor below which the native sweep
	// is skipped unless forced.
	NativeFloorWei *big.Int
	// PacingDelay separates consecutive attempts so a lagging node view does
	// not see back-to-back nonce-adjacent submissions.
	PacingDelay time.Duration
}

// Service iterates the asset catalog through the orchestrator: all tokens in
// catalog order, then the native-currency remainder. Attempts are strictly
// sequential; one asset's failure never aborts the rest of the run.
type Service struct {
	catalog      *catalog.Catalog
	client       chain.Client
	account      common.Address
	destination  common.Address
	nativeAsset  catalog.Asset
	pacingDelay  time.Duration
	planner      *Planner
	orchestrator *Orchestrator
}

func NewService(client chain.Client, sgn signer.Service, cat *catalog.Catalog, opts Options) *Service {
	return &Service{
		catalog:      cat,
		client:       client,
		account:      sgn.Address(),
		destination:  opts.Destination,
		nativeAsset:  catalog.Native(opts.NativeName, opts.NativeSymbol),
		pacingDelay:  opts.PacingDelay,
		planner:      NewPlanner(client, sgn.Address(), opts.NativeGasLimit, opts.NativeFloorWei),
		orchestrator: NewOrchestrator(client, sgn, opts.ChainID, opts.Destination, opts.NativeGasLimit),
	}
}

// SweepAll drains every catalog token to the destination, then the native
// remainder. The force flag only bypasses the native floor threshold. The
// returned error covers run-level problems (nonce seeding, cancellation);
// per-asset problems are reported inside the outcomes.
func (s *Service) SweepAll(ctx context.Context, force bool) ([]Outcome, error) {
	log.Info().
		Str("account", s.account.Hex()).
		Str("destination", s.destination.Hex()).
		Int("tokens", s.catalog.Len()).
		Msg("Starting sweep run")

	if s.account == s.destination {
		log.Warn().
			Str("address", s.account.Hex()).
			Msg("Source and destination are the same address, transfers will be no-ops")
	}

	nonce, err := NewNonceCounter(ctx, s.client, s.account)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, s.catalog.Len()+1)

	for i, asset := range s.catalog.Assets() {
		if i > 0 {
			if err := s.pace(ctx); err != nil {
				return outcomes, err
			}
		}

		outcome := s.attempt(ctx, asset, Policy{}, nonce)
		outcomes = append(outcomes, outcome)
	}

	if s.catalog.Len() > 0 {
		if err := s.pace(ctx); err != nil {
			return outcomes, err
		}
	}

	outcome := s.attempt(ctx, s.nativeAsset, Policy{Force: force}, nonce)
	outcomes = append(outcomes, outcome)

	return outcomes, nil
}

// TransferToken moves an explicit quantity of one catalog token to the
// destination. The symbol is resolved before any network activity.
func (s *Service) TransferToken(ctx context.Context, symbol, quantity string) (Outcome, error) {
	asset, err := s.catalog.BySymbol(symbol)
	if err != nil {
		return Outcome{}, err
	}

	requested, err := util.ParseAmount(quantity, asset.Decimals)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "invalid quantity %q", quantity)
	}

	if requested.Sign() <= 0 {
		return Outcome{}, errors.Errorf("quantity %q must be positive", quantity)
	}

	nonce, err := NewNonceCounter(ctx, s.client, s.account)
	if err != nil {
		return Outcome{}, err
	}

	return s.attempt(ctx, asset, Policy{Requested: requested}, nonce), nil
}

func (s *Service) attempt(ctx context.Context, asset catalog.Asset, policy Policy, nonce *NonceCounter) Outcome {
	plan, err := s.planner.Plan(ctx, asset, policy)
	if err != nil {
		outcome := failedOutcome(asset, nil, KindPlanFailure, err)
		s.logOutcome(outcome)
		return outcome
	}

	log.Info().
		Str("symbol", asset.Symbol).
		Str("balance", asset.Format(plan.Balance)).
		Msg("Processing asset")

	outcome := s.orchestrator.Attempt(ctx, plan, nonce)
	s.logOutcome(outcome)
	return outcome
}

func (s *Service) pace(ctx context.Context) error {
	if s.pacingDelay <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "sweep run canceled")
	case <-time.After(s.pacingDelay):
		return nil
	}
}

func (s *Service) logOutcome(outcome Outcome) {
	event := log.Info()
	if outcome.Status == StatusFailed {
		event = log.Error().Err(outcome.Err).Str("kind", outcome.Kind.String())
	}

	event = event.
		Str("symbol", outcome.Asset.Symbol).
		Str("status", outcome.Status.String())

	if outcome.Reason != "" {
		event = event.Str("reason", outcome.Reason)
	}
	if outcome.Amount != nil {
		event = event.Str("amount", outcome.Asset.Format(outcome.Amount))
	}
	if outcome.TxHash != (common.Hash{}) {
		event = event.Str("tx_hash", outcome.TxHash.Hex())
	}
	if outcome.BlockNumber != nil {
		event = event.Str("block", outcome.BlockNumber.String())
	}

	event.Msg("Asset attempt finished")
}
