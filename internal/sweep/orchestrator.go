package sweep

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-sweeper/internal/chain"
	"github/chapool/go-sweeper/internal/signer"
)

var erc20TransferMethodID = common.FromHex("a9059cbb")

const abiPaddedLength = 32

// Orchestrator drives one asset attempt through the pipeline
// build -> fee estimate -> sign -> broadcast -> confirm. Each stage failure
// ends the attempt with a tagged outcome; the run is never aborted. The nonce
// counter is advanced only once the node has acknowledged a broadcast.
type Orchestrator struct {
	client         chain.Client
	signer         signer.Service
	chainID        *big.Int
	destination    common.Address
	nativeGasLimit uint64
}

func NewOrchestrator(
	client chain.Client,
	sgn signer.Service,
	chainID *big.Int,
	destination common.Address,
	nativeGasLimit uint64,
) *Orchestrator {
	return &Orchestrator{
		client:         client,
		signer:         sgn,
		chainID:        chainID,
		destination:    destination,
		nativeGasLimit: nativeGasLimit,
	}
}

// Attempt executes the pipeline for a single planned asset.
func (o *Orchestrator) Attempt(ctx context.Context, plan *Plan, nonce *NonceCounter) Outcome {
	asset := plan.Asset

	if !plan.Proceed {
		return skippedOutcome(asset, plan.Reason)
	}

	draft, err := o.buildDraft(plan, nonce.Current())
	if err != nil {
		return failedOutcome(asset, plan.Amount, KindBuildFailure, err)
	}

	if err := o.estimateFees(ctx, draft, plan); err != nil {
		return failedOutcome(asset, plan.Amount, KindFeeEstimationFailure, err)
	}

	signed, err := o.signer.SignTransaction(ctx, draft)
	if err != nil {
		return failedOutcome(asset, plan.Amount, KindSigningFailure, err)
	}

	broadcastErr := o.client.SendTransaction(ctx, signed.Tx)
	if chain.IsAcknowledged(broadcastErr) {
		// The transaction occupies this nonce slot now, even if it never
		// confirms within this run.
		nonce.Advance()
	}
	if broadcastErr != nil {
		return failedOutcome(asset, plan.Amount, KindBroadcastFailure, broadcastErr)
	}

	log.Info().
		Str("symbol", asset.Symbol).
		Str("tx_hash", signed.TxHash.Hex()).
		Uint64("nonce", draft.Nonce).
		Str("amount", plan.Amount.String()).
		Msg("Transaction broadcast, waiting for receipt")

	return o.confirm(ctx, plan, signed.TxHash)
}

// buildDraft assembles the unsigned transaction: value transfer for the
// native asset, packed transfer(address,uint256) calldata for tokens. Fee
// fields are filled by estimateFees.
func (o *Orchestrator) buildDraft(plan *Plan, nonce uint64) (*signer.SignRequest, error) {
	if plan.Amount == nil || plan.Amount.Sign() <= 0 {
		return nil, errors.New("plan has no positive transfer amount")
	}

	draft := &signer.SignRequest{
		ChainID: o.chainID,
		From:    o.signer.Address(),
		Nonce:   nonce,
	}

	if plan.Asset.IsNative() {
		draft.To = o.destination
		draft.Value = plan.Amount
		return draft, nil
	}

	if plan.Asset.Address == nil {
		return nil, errors.Errorf("token %s has no contract address", plan.Asset.Symbol)
	}

	draft.To = *plan.Asset.Address
	draft.Value = new(big.Int)
	draft.Data = packTransfer(o.destination, plan.Amount)
	return draft, nil
}

// estimateFees fixes the draft's fee fields. Native attempts reuse the gas
// price the plan's amount was computed against; re-quoting here could push
// value plus fee past the observed balance. Token transfers snapshot the
// price now and estimate the gas limit per draft (calldata cost varies by
// contract).
func (o *Orchestrator) estimateFees(ctx context.Context, draft *signer.SignRequest, plan *Plan) error {
	if plan.Asset.IsNative() {
		if plan.GasPrice == nil {
			return errors.New("native plan carries no gas price")
		}
		draft.GasPrice = plan.GasPrice
		draft.GasLimit = o.nativeGasLimit
		return nil
	}

	gasPrice, err := o.client.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch gas price")
	}
	draft.GasPrice = gasPrice

	to := draft.To
	gas, err := o.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  draft.From,
		To:    &to,
		Value: draft.Value,
		Data:  draft.Data,
	})
	if err != nil {
		return errors.Wrap(err, "failed to estimate gas")
	}

	draft.GasLimit = gas
	return nil
}

func (o *Orchestrator) confirm(ctx context.Context, plan *Plan, txHash common.Hash) Outcome {
	receipt, err := o.client.WaitForReceipt(ctx, txHash)
	if err != nil {
		// A timeout means the transaction may still land later; anything
		// else is a failed receipt query.
		kind := KindConfirmationFailure
		if errors.Is(err, chain.ErrReceiptTimeout) {
			kind = KindConfirmationTimeout
		}
		outcome := failedOutcome(plan.Asset, plan.Amount, kind, err)
		outcome.TxHash = txHash
		return outcome
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		outcome := failedOutcome(plan.Asset, plan.Amount, KindOnChainFailure, errors.New("transaction reverted on chain"))
		outcome.TxHash = txHash
		outcome.BlockNumber = receipt.BlockNumber
		return outcome
	}

	return Outcome{
		Asset:       plan.Asset,
		Status:      StatusConfirmed,
		Amount:      plan.Amount,
		TxHash:      txHash,
		BlockNumber: receipt.BlockNumber,
	}
}

// packTransfer builds ERC20 transfer(address,uint256) calldata.
func packTransfer(to common.Address, amount *big.Int) []byte {
	data := make([]byte, 0, len(erc20TransferMethodID)+abiPaddedLength*2)
	data = append(data, erc20TransferMethodID...)
	data = append(data, common.LeftPadBytes(to.Bytes(), abiPaddedLength)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), abiPaddedLength)...)
	return data
}
