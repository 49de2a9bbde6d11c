package util

import (
	"math/big"

	"github.com/pkg/errors"
)

// ParseAmount converts a human-readable decimal amount into the token's
// smallest unit, scaled by the given number of decimals.
func ParseAmount(amountStr string, decimals int) (*big.Int, error) {
	const (
		decimalBase  = 10
		floatBits    = 256
		roundingMode = big.ToNearestEven
	)

	amountFloat, _, err := big.ParseFloat(amountStr, decimalBase, floatBits, roundingMode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token amount")
	}

	if amountFloat.Sign() < 0 {
		return nil, errors.New("amount must not be negative")
	}

	if decimals <= 0 {
		result := new(big.Int)
		amountFloat.Int(result)
		return result, nil
	}

	scale := new(big.Int).Exp(big.NewInt(decimalBase), big.NewInt(int64(decimals)), nil)
	amountFloat.Mul(amountFloat, new(big.Float).SetInt(scale))

	result := new(big.Int)
	amountFloat.Int(result)
	return result, nil
}

// FormatAmount renders a smallest-unit amount as a human-readable decimal
// string scaled down by the given number of decimals. Used for logging only.
func FormatAmount(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}

	if decimals <= 0 {
		return amount.String()
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	value := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		new(big.Float).SetInt(scale),
	)

	return value.Text('f', -1)
}
