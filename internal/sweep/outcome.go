package sweep

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github/chapool/go-sweeper/internal/catalog"
)

// Status is the terminal state of one asset attempt.
type Status int

const (
	StatusSkipped Status = iota
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureKind names the pipeline stage or condition that ended an attempt.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindPlanFailure
	KindBuildFailure
	KindFeeEstimationFailure
	KindSigningFailure
	KindBroadcastFailure
	KindOnChainFailure
	KindConfirmationTimeout
	KindConfirmationFailure
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindPlanFailure:
		return "plan_failure"
	case KindBuildFailure:
		return "build_failure"
	case KindFeeEstimationFailure:
		return "fee_estimation_failure"
	case KindSigningFailure:
		return "signing_failure"
	case KindBroadcastFailure:
		return "broadcast_failure"
	case KindOnChainFailure:
		return "on_chain_failure"
	case KindConfirmationTimeout:
		return "confirmation_timeout"
	case KindConfirmationFailure:
		return "confirmation_failure"
	default:
		return "unknown"
	}
}

// AttemptError tags a stage failure with its kind.
type AttemptError struct {
	Kind FailureKind
	Err  error
}

func (e *AttemptError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// Outcome is the per-asset terminal record of one attempt. TxHash and
// BlockNumber are populated where the attempt got far enough to have them.
type Outcome struct {
	Asset       catalog.Asset
	Status      Status
	Kind        FailureKind
	Reason      string
	Amount      *big.Int
	TxHash      common.Hash
	BlockNumber *big.Int
	Err         error
}

func skippedOutcome(asset catalog.Asset, reason string) Outcome {
	return Outcome{
		Asset:  asset,
		Status: StatusSkipped,
		Reason: reason,
	}
}

func failedOutcome(asset catalog.Asset, amount *big.Int, kind FailureKind, err error) Outcome {
	return Outcome{
		Asset:  asset,
		Status: StatusFailed,
		Kind:   kind,
		Amount: amount,
		Err:    &AttemptError{Kind: kind, Err: err},
	}
}
