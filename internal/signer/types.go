package signer

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Service signs transactions for a single source account. Private key
// material never leaves the package.
type Service interface {
	// SignTransaction signs a legacy (gas-price) transaction draft.
	SignTransaction(ctx context.Context, req *SignRequest) (*SignResponse, error)

	// Address returns the account address the service signs for.
	Address() common.Address
}

// SignRequest is a fully assembled transaction draft ready for signing.
type SignRequest struct {
	ChainID  *big.Int
	From     common.Address
	To       common.Address
	Value    *big.Int
	GasLimit uint64
	GasPrice *big.Int
	Nonce    uint64
	Data     []byte
}

// SignResponse is the signed transaction in both decoded and wire form.
type SignResponse struct {
	RawTransaction []byte
	Tx             *types.Transaction
	TxHash         common.Hash
}
