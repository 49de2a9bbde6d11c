package sweep_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/chain"
	"github/chapool/go-sweeper/internal/sweep"
)

func newOrchestrator(t *testing.T, client *fakeClient) (*sweep.Orchestrator, *sweep.NonceCounter) {
	t.Helper()

	sgn := newTestSigner(t)
	orch := sweep.NewOrchestrator(client, sgn, big.NewInt(1), common.HexToAddress(testDestination), 21000)

	nonce, err := sweep.NewNonceCounter(t.Context(), client, sgn.Address())
	require.NoError(t, err)
	return orch, nonce
}

func tokenPlan(balance, amount int64) *sweep.Plan {
	return &sweep.Plan{
		Asset:   testToken("ABC", 3, tokenAddr),
		Balance: big.NewInt(balance),
		Amount:  big.NewInt(amount),
		Proceed: true,
	}
}

// Full token pipeline: balance 500 (3 decimals) swept to the destination,
// receipt successful.
func TestAttemptTokenConfirmed(t *testing.T) {
	client := &fakeClient{pendingNonce: 3}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusConfirmed, outcome.Status)
	assert.Equal(t, 0, outcome.Amount.Cmp(big.NewInt(500)))
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	require.NotNil(t, outcome.BlockNumber)
	assert.Equal(t, int64(12345), outcome.BlockNumber.Int64())

	// nonce consumed by the broadcast
	assert.Equal(t, uint64(4), nonce.Current())

	require.Len(t, client.sent, 1)
	tx := client.sent[0]
	assert.Equal(t, uint64(3), tx.Nonce())
	require.NotNil(t, tx.To())
	assert.Equal(t, common.HexToAddress(tokenAddr), *tx.To())
	assert.Equal(t, 0, tx.Value().Sign())

	// transfer(destination, 500)
	expected := append([]byte{}, common.FromHex("a9059cbb")...)
	expected = append(expected, common.LeftPadBytes(common.HexToAddress(testDestination).Bytes(), 32)...)
	expected = append(expected, common.LeftPadBytes(big.NewInt(500).Bytes(), 32)...)
	assert.Equal(t, expected, tx.Data())
}

func TestAttemptNativeConfirmed(t *testing.T) {
	client := &fakeClient{gasPrice: big.NewInt(2)}
	orch, nonce := newOrchestrator(t, client)

	plan := &sweep.Plan{
		Asset:     catalog.Native("Ether", "ETH"),
		Balance:   big.NewInt(1_000_000),
		Amount:    big.NewInt(958_000),
		FeeBudget: big.NewInt(42_000),
		GasPrice:  big.NewInt(2),
		Proceed:   true,
	}

	outcome := orch.Attempt(t.Context(), plan, nonce)

	assert.Equal(t, sweep.StatusConfirmed, outcome.Status)
	require.Len(t, client.sent, 1)

	tx := client.sent[0]
	require.NotNil(t, tx.To())
	assert.Equal(t, common.HexToAddress(testDestination), *tx.To())
	assert.Equal(t, 0, tx.Value().Cmp(big.NewInt(958_000)))
	assert.Empty(t, tx.Data())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, 0, tx.GasPrice().Cmp(big.NewInt(2)))
}

// A gas price move between planning and drafting must not change the
// transaction's fee: value plus gas times price stays within the observed
// balance.
func TestAttemptNativeReusesPlannedGasPrice(t *testing.T) {
	balance := big.NewInt(1_000_000)
	client := &fakeClient{gasPrice: big.NewInt(1), nativeBalance: balance}
	orch, nonce := newOrchestrator(t, client)

	planner := sweep.NewPlanner(client, newTestSigner(t).Address(), 21000, big.NewInt(1))
	plan, err := planner.Plan(t.Context(), catalog.Native("Ether", "ETH"), sweep.Policy{})
	require.NoError(t, err)
	require.True(t, plan.Proceed)
	assert.Equal(t, 0, plan.Amount.Cmp(big.NewInt(979_000)))

	// price doubles after the plan was made
	client.gasPrice = big.NewInt(2)

	outcome := orch.Attempt(t.Context(), plan, nonce)
	require.Equal(t, sweep.StatusConfirmed, outcome.Status)

	require.Len(t, client.sent, 1)
	tx := client.sent[0]
	assert.Equal(t, 0, tx.GasPrice().Cmp(big.NewInt(1)))

	spend := new(big.Int).Mul(tx.GasPrice(), new(big.Int).SetUint64(tx.Gas()))
	spend.Add(spend, tx.Value())
	assert.True(t, spend.Cmp(balance) <= 0, "total spend %s exceeds balance %s", spend, balance)
}

func TestAttemptNativePlanWithoutGasPrice(t *testing.T) {
	client := &fakeClient{}
	orch, nonce := newOrchestrator(t, client)

	plan := &sweep.Plan{
		Asset:   catalog.Native("Ether", "ETH"),
		Balance: big.NewInt(1_000_000),
		Amount:  big.NewInt(979_000),
		Proceed: true,
	}

	outcome := orch.Attempt(t.Context(), plan, nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindFeeEstimationFailure, outcome.Kind)
	assert.Empty(t, client.sent)
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptSkippedPlan(t *testing.T) {
	client := &fakeClient{}
	orch, nonce := newOrchestrator(t, client)

	plan := &sweep.Plan{
		Asset:  testToken("ABC", 3, tokenAddr),
		Reason: sweep.ReasonZeroBalance,
	}

	outcome := orch.Attempt(t.Context(), plan, nonce)

	assert.Equal(t, sweep.StatusSkipped, outcome.Status)
	assert.Equal(t, sweep.ReasonZeroBalance, outcome.Reason)
	assert.Empty(t, client.sent)
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptFeeEstimationFailure(t *testing.T) {
	client := &fakeClient{estimateErr: errors.New("execution reverted")}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindFeeEstimationFailure, outcome.Kind)
	assert.Empty(t, client.sent)
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptGasPriceFailure(t *testing.T) {
	client := &fakeClient{gasPriceErr: errors.New("rpc unavailable")}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindFeeEstimationFailure, outcome.Kind)
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptSigningFailure(t *testing.T) {
	client := &fakeClient{}
	sgn := &failingSigner{Service: newTestSigner(t)}
	orch := sweep.NewOrchestrator(client, sgn, big.NewInt(1), common.HexToAddress(testDestination), 21000)

	nonce, err := sweep.NewNonceCounter(t.Context(), client, sgn.Address())
	require.NoError(t, err)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindSigningFailure, outcome.Kind)
	assert.Empty(t, client.sent)
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptBroadcastNetworkFailure(t *testing.T) {
	client := &fakeClient{
		sendFn: func(_ *types.Transaction) error {
			return errors.New("dial tcp: connection refused")
		},
	}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindBroadcastFailure, outcome.Kind)

	// The node never acknowledged the transaction: the nonce is free.
	assert.Equal(t, uint64(0), nonce.Current())
}

func TestAttemptBroadcastAcknowledgedError(t *testing.T) {
	client := &fakeClient{
		sendFn: func(_ *types.Transaction) error {
			return errors.New("already known")
		},
	}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindBroadcastFailure, outcome.Kind)

	// The node has the transaction: the nonce slot is occupied.
	assert.Equal(t, uint64(1), nonce.Current())
}

func TestAttemptOnChainFailure(t *testing.T) {
	client := &fakeClient{
		receiptFn: func(hash common.Hash) (*types.Receipt, error) {
			return &types.Receipt{
				Status:      types.ReceiptStatusFailed,
				TxHash:      hash,
				BlockNumber: big.NewInt(777),
			}, nil
		},
	}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindOnChainFailure, outcome.Kind)
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	require.NotNil(t, outcome.BlockNumber)
	assert.Equal(t, int64(777), outcome.BlockNumber.Int64())

	// Broadcast succeeded, so the nonce stays consumed.
	assert.Equal(t, uint64(1), nonce.Current())
}

func TestAttemptConfirmationTimeout(t *testing.T) {
	client := &fakeClient{
		receiptFn: func(_ common.Hash) (*types.Receipt, error) {
			return nil, chain.ErrReceiptTimeout
		},
	}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindConfirmationTimeout, outcome.Kind)
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	assert.Equal(t, uint64(1), nonce.Current())
	assert.True(t, errors.Is(outcome.Err, chain.ErrReceiptTimeout))
}

// A receipt query failing for transport reasons is not a timeout.
func TestAttemptConfirmationTransportFailure(t *testing.T) {
	client := &fakeClient{
		receiptFn: func(_ common.Hash) (*types.Receipt, error) {
			return nil, errors.New("rpc unavailable")
		},
	}
	orch, nonce := newOrchestrator(t, client)

	outcome := orch.Attempt(t.Context(), tokenPlan(500, 500), nonce)

	assert.Equal(t, sweep.StatusFailed, outcome.Status)
	assert.Equal(t, sweep.KindConfirmationFailure, outcome.Kind)
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	assert.Equal(t, uint64(1), nonce.Current())
}
