package config

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github/chapool/go-sweeper/internal/util"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/subosito/gotenv"
)

var dotEnvOnce sync.Once

// Logger holds logging related settings.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

// Sweeper is the full environment-sourced configuration of a sweep run.
// Credential fields are excluded from any serialized output.
type Sweeper struct {
	RPCURLs            []string
	DestinationAddress string
	Mnemonic           string `json:"-"`
	PrivateKey         string `json:"-"`
	CatalogPath        string
	NativeName         string
	NativeSymbol       string
	NativeGasLimit     uint64
	NativeFloorWei     *big.Int
	PacingDelay        time.Duration
	ReceiptTimeout     time.Duration
	Logger             Logger
}

// DefaultSweepConfigFromEnv returns the sweeper config sourced from the
// environment, autoloading a local .env file once per process.
func DefaultSweepConfigFromEnv() Sweeper {
	dotEnvOnce.Do(func() {
		_ = gotenv.Load()
	})

	// 1 native unit: below this the native sweep is skipped unless forced.
	defaultNativeFloor, _ := new(big.Int).SetString("1000000000000000000", 10)

	return Sweeper{
		RPCURLs:            splitURLs(util.GetEnv("RPC_URL", "")),
		DestinationAddress: util.GetEnv("DEST_WALLET", ""),
		Mnemonic:           strings.TrimSpace(util.GetEnv("MNEMONIC", "")),
		PrivateKey:         strings.TrimSpace(util.GetEnv("PRIVATE_KEY", "")),
		CatalogPath:        util.GetEnv("TOKEN_FILE", "token.yml"),
		NativeName:         util.GetEnv("SWEEPER_NATIVE_NAME", "Ether"),
		NativeSymbol:       util.GetEnv("SWEEPER_NATIVE_SYMBOL", "ETH"),
		NativeGasLimit:     util.GetEnvAsUint64("SWEEPER_NATIVE_GAS_LIMIT", 21000),
		NativeFloorWei:     util.GetEnvAsBigInt("SWEEPER_NATIVE_FLOOR_WEI", defaultNativeFloor),
		PacingDelay:        util.GetEnvAsDuration("SWEEPER_PACING_DELAY", 500*time.Millisecond),
		ReceiptTimeout:     util.GetEnvAsDuration("SWEEPER_RECEIPT_TIMEOUT", 180*time.Second),
		Logger: Logger{
			Level:              util.GetEnv("SWEEPER_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SWEEPER_LOGGER_PRETTY_PRINT_CONSOLE", true),
		},
	}
}

// Validate checks that all settings required before any network activity are
// present and well-formed.
func (c Sweeper) Validate() error {
	if len(c.RPCURLs) == 0 {
		return errors.New("RPC_URL is required")
	}

	if c.DestinationAddress == "" {
		return errors.New("DEST_WALLET is required")
	}

	if !common.IsHexAddress(c.DestinationAddress) {
		return errors.Errorf("DEST_WALLET is not a valid address: %s", c.DestinationAddress)
	}

	if c.Mnemonic == "" && c.PrivateKey == "" {
		return errors.New("either MNEMONIC or PRIVATE_KEY is required")
	}

	return nil
}

// splitURLs parses a comma-separated RPC URL list.
func splitURLs(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			urls = append(urls, part)
		}
	}

	return urls
}
