package catalog

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ErrAssetNotFound is returned when a symbol lookup misses the catalog.
var ErrAssetNotFound = errors.New("asset not found in catalog")

const defaultDecimals = 18

// Catalog is an ordered, immutable list of sweepable assets.
type Catalog struct {
	assets []Asset
}

// New builds a catalog from pre-validated assets, preserving their order.
func New(assets ...Asset) *Catalog {
	return &Catalog{assets: assets}
}

type tokenEntry struct {
	Name     string `mapstructure:"name"`
	Symbol   string `mapstructure:"symbol"`
	Address  string `mapstructure:"address"`
	Decimals *int   `mapstructure:"decimals"`
}

// Load reads the asset catalog from a YAML file with a top-level "tokens" key.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read token catalog %s", path)
	}

	var entries []tokenEntry
	if err := v.UnmarshalKey("tokens", &entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode tokens key")
	}

	if len(entries) == 0 {
		return nil, errors.Errorf("no tokens found in %s under the 'tokens' key", path)
	}

	assets := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		if entry.Address == "" {
			return nil, errors.Errorf("token %q has no contract address", entry.Name)
		}

		if !common.IsHexAddress(entry.Address) {
			return nil, errors.Errorf("token %q has a malformed contract address: %s", entry.Name, entry.Address)
		}

		decimals := defaultDecimals
		if entry.Decimals != nil {
			if *entry.Decimals < 0 {
				return nil, errors.Errorf("token %q has negative decimals", entry.Name)
			}
			decimals = *entry.Decimals
		}

		addr := common.HexToAddress(entry.Address)
		assets = append(assets, Asset{
			Name:     entry.Name,
			Symbol:   entry.Symbol,
			Address:  &addr,
			Decimals: decimals,
		})
	}

	return &Catalog{assets: assets}, nil
}

// Assets returns the catalog entries in file order.
func (c *Catalog) Assets() []Asset {
	return c.assets
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.assets)
}

// BySymbol returns the first asset matching the symbol, case-insensitive.
func (c *Catalog) BySymbol(symbol string) (Asset, error) {
	for _, asset := range c.assets {
		if strings.EqualFold(asset.Symbol, symbol) {
			return asset, nil
		}
	}

	return Asset{}, errors.Wrapf(ErrAssetNotFound, "symbol %q", symbol)
}
