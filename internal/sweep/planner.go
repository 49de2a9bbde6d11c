package sweep

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/chain"
)

// Skip reasons reported on plans that decide not to proceed.
const (
	ReasonZeroBalance         = "zero balance"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonBelowFloor          = "balance below floor threshold"
	ReasonNonPositiveAmount   = "transfer amount not positive after fee deduction"
)

// Policy steers a single planning decision.
type Policy struct {
	// Force bypasses the native floor threshold. It never bypasses the
	// zero-balance check or the positive-amount requirement.
	Force bool
	// Requested switches to explicit-transfer mode: move exactly this amount
	// (smallest unit) instead of the full balance. Nil means full sweep.
	Requested *big.Int
}

// Plan is the per-asset transfer decision. Amounts are in the asset's
// smallest unit. FeeBudget and GasPrice are set for native plans only: the
// native amount is balance minus GasPrice times the fixed gas limit, so the
// draft must carry this exact price or the total spend can exceed the
// balance.
type Plan struct {
	Asset     catalog.Asset
	Balance   *big.Int
	Amount    *big.Int
	FeeBudget *big.Int
	GasPrice  *big.Int
	Proceed   bool
	Reason    string
}

// Planner decides whether and how much of an asset to move. Planning is pure
// given the observed chain state: re-planning without an intervening balance
// change yields an identical plan.
type Planner struct {
	client         chain.Client
	account        common.Address
	nativeGasLimit uint64
	nativeFloor    *big.Int
}

func NewPlanner(client chain.Client, account common.Address, nativeGasLimit uint64, nativeFloor *big.Int) *Planner {
	if nativeFloor == nil {
		nativeFloor = new(big.Int)
	}

	return &Planner{
		client:         client,
		account:        account,
		nativeGasLimit: nativeGasLimit,
		nativeFloor:    nativeFloor,
	}
}

// Plan produces the transfer decision for one asset. An error here means the
// chain state could not be observed; a plan with Proceed=false is not an
// error.
func (p *Planner) Plan(ctx context.Context, asset catalog.Asset, policy Policy) (*Plan, error) {
	if asset.IsNative() {
		return p.planNative(ctx, asset, policy)
	}
	return p.planToken(ctx, asset, policy)
}

func (p *Planner) planToken(ctx context.Context, asset catalog.Asset, policy Policy) (*Plan, error) {
	balance, err := p.client.TokenBalance(ctx, *asset.Address, p.account)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s balance", asset.Symbol)
	}

	plan := &Plan{Asset: asset, Balance: balance}

	if balance.Sign() == 0 {
		plan.Reason = ReasonZeroBalance
		return plan, nil
	}

	amount := balance
	if policy.Requested != nil {
		if policy.Requested.Cmp(balance) > 0 {
			log.Debug().
				Str("symbol", asset.Symbol).
				Str("requested", policy.Requested.String()).
				Str("balance", balance.String()).
				Msg("Requested amount exceeds balance")
			plan.Reason = ReasonInsufficientBalance
			return plan, nil
		}
		amount = new(big.Int).Set(policy.Requested)
	}

	plan.Amount = amount
	plan.Proceed = true
	return plan, nil
}

func (p *Planner) planNative(ctx context.Context, asset catalog.Asset, policy Policy) (*Plan, error) {
	balance, err := p.client.BalanceAt(ctx, p.account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch native balance")
	}

	plan := &Plan{Asset: asset, Balance: balance}

	if balance.Sign() == 0 {
		plan.Reason = ReasonZeroBalance
		return plan, nil
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch gas price")
	}

	feeBudget := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(p.nativeGasLimit))
	amount := new(big.Int).Sub(balance, feeBudget)
	plan.FeeBudget = feeBudget
	plan.GasPrice = gasPrice

	// A non-positive remainder is a hard skip, force or not.
	if amount.Sign() <= 0 {
		plan.Reason = ReasonNonPositiveAmount
		return plan, nil
	}

	if !policy.Force && balance.Cmp(p.nativeFloor) < 0 {
		plan.Reason = ReasonBelowFloor
		return plan, nil
	}

	plan.Amount = amount
	plan.Proceed = true
	return plan, nil
}
