package catalog

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github/chapool/go-sweeper/internal/util"
)

// Asset describes a sweepable asset. A nil Address marks the chain's native
// currency; everything else is an ERC20 token contract.
type Asset struct {
	Name     string
	Symbol   string
	Address  *common.Address
	Decimals int
}

// Native returns a descriptor for the chain's native currency (18 decimals).
func Native(name, symbol string) Asset {
	return Asset{
		Name:     name,
		Symbol:   symbol,
		Address:  nil,
		Decimals: defaultDecimals,
	}
}

// IsNative reports whether the asset is the chain's native currency.
func (a Asset) IsNative() bool {
	return a.Address == nil
}

// Format renders a smallest-unit amount in the asset's own decimal scale.
func (a Asset) Format(amount *big.Int) string {
	return util.FormatAmount(amount, a.Decimals)
}
