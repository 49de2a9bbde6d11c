package sweep_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github/chapool/go-sweeper/internal/catalog"
	"github/chapool/go-sweeper/internal/signer"
)

const (
	testPrivateKey  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testDestination = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// fakeClient is an in-memory chain.Client. Zero-value fields fall back to
// sane defaults; counters record the traffic for assertions.
type fakeClient struct {
	chainID       *big.Int
	nativeBalance *big.Int
	tokenBalances map[common.Address]*big.Int
	gasPrice      *big.Int
	gasPriceErr   error
	gasEstimate   uint64
	estimateErr   error
	pendingNonce  uint64
	pendingErr    error
	sendFn        func(tx *types.Transaction) error
	receiptFn     func(hash common.Hash) (*types.Receipt, error)

	sent  []*types.Transaction
	calls int
}

func (c *fakeClient) ChainID(_ context.Context) (*big.Int, error) {
	c.calls++
	if c.chainID == nil {
		return big.NewInt(1), nil
	}
	return c.chainID, nil
}

func (c *fakeClient) BalanceAt(_ context.Context, _ common.Address) (*big.Int, error) {
	c.calls++
	if c.nativeBalance == nil {
		return new(big.Int), nil
	}
	return new(big.Int).Set(c.nativeBalance), nil
}

func (c *fakeClient) TokenBalance(_ context.Context, tokenAddress, _ common.Address) (*big.Int, error) {
	c.calls++
	balance, ok := c.tokenBalances[tokenAddress]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(balance), nil
}

func (c *fakeClient) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	c.calls++
	if c.pendingErr != nil {
		return 0, c.pendingErr
	}
	return c.pendingNonce, nil
}

func (c *fakeClient) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	c.calls++
	if c.gasPriceErr != nil {
		return nil, c.gasPriceErr
	}
	if c.gasPrice == nil {
		return big.NewInt(1), nil
	}
	return new(big.Int).Set(c.gasPrice), nil
}

func (c *fakeClient) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	c.calls++
	if c.estimateErr != nil {
		return 0, c.estimateErr
	}
	if c.gasEstimate == 0 {
		return 60000, nil
	}
	return c.gasEstimate, nil
}

func (c *fakeClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	c.calls++
	if c.sendFn != nil {
		if err := c.sendFn(tx); err != nil {
			return err
		}
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *fakeClient) WaitForReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.calls++
	if c.receiptFn != nil {
		return c.receiptFn(txHash)
	}
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      txHash,
		BlockNumber: big.NewInt(12345),
	}, nil
}

// failingSigner wraps a real signer but refuses to sign.
type failingSigner struct {
	signer.Service
}

func (s *failingSigner) SignTransaction(_ context.Context, _ *signer.SignRequest) (*signer.SignResponse, error) {
	return nil, errors.New("signing refused")
}

func newTestSigner(t *testing.T) signer.Service {
	t.Helper()

	sgn, err := signer.NewFromPrivateKey(testPrivateKey)
	require.NoError(t, err)
	return sgn
}

func testToken(symbol string, decimals int, addr string) catalog.Asset {
	address := common.HexToAddress(addr)
	return catalog.Asset{
		Name:     symbol + " Token",
		Symbol:   symbol,
		Address:  &address,
		Decimals: decimals,
	}
}
