package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Client is the narrow RPC capability the sweep core consumes. *RPCClient is
// the production implementation; tests supply fakes.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, address common.Address) (*big.Int, error)
	TokenBalance(ctx context.Context, tokenAddress, account common.Address) (*big.Int, error)
	PendingNonceAt(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Node error fragments that mean the transaction reached the node's pool and
// therefore occupies its nonce slot even though the submission errored.
var acknowledgedErrorFragments = []string{
	"already known",
	"known transaction",
	"nonce too low",
	"replacement transaction underpriced",
	"transaction underpriced",
}

// IsAcknowledged reports whether a broadcast attempt consumed the nonce: a nil
// error always does, and so does an error that proves the node has seen the
// transaction. Plain transport errors report false since the node's view is
// unknown.
func IsAcknowledged(err error) bool {
	if err == nil {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range acknowledgedErrorFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}
