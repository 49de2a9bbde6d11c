package chain

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var balanceOfMethodID = common.Hex2Bytes("70a08231")

const (
	abiPaddedLength            = 32
	defaultReceiptWaitTimeout  = 180 * time.Second
	defaultReceiptPollInterval = 3 * time.Second
)

// ErrReceiptTimeout is returned by WaitForReceipt when the bounded wait
// elapses before the transaction lands. The transaction stays in flight.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// RPCClient wraps an Ethereum RPC endpoint with support for multiple URLs and
// failover. All methods are safe for concurrent use.
type RPCClient struct {
	urls           []string
	clients        []*ethclient.Client
	mu             sync.RWMutex
	current        int
	receiptTimeout time.Duration
	pollInterval   time.Duration
}

// NewRPCClient connects to the given RPC URLs. At least one URL must be
// dialable; unreachable ones are retried lazily on use. A non-positive
// receiptTimeout selects the default bounded wait.
func NewRPCClient(urls []string, receiptTimeout time.Duration) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, 0, len(urls))
	for _, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			clients = append(clients, nil)
			continue
		}
		clients = append(clients, client)
	}

	if allClientsNil(clients) {
		return nil, errors.New("failed to connect to any RPC node")
	}

	if receiptTimeout <= 0 {
		receiptTimeout = defaultReceiptWaitTimeout
	}

	return &RPCClient{
		urls:           urls,
		clients:        clients,
		current:        0,
		receiptTimeout: receiptTimeout,
		pollInterval:   defaultReceiptPollInterval,
	}, nil
}

func allClientsNil(clients []*ethclient.Client) bool {
	for _, client := range clients {
		if client != nil {
			return false
		}
	}
	return true
}

// Close closes all underlying client connections.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// IsReachable reports whether any configured endpoint answers a chain-id probe.
func (c *RPCClient) IsReachable(ctx context.Context) bool {
	_, err := c.ChainID(ctx)
	return err == nil
}

// ChainID returns the chain ID of the connected network.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain ID")
	}

	return chainID, nil
}

// BalanceAt returns the native balance of an address at the latest known block.
func (c *RPCClient) BalanceAt(ctx context.Context, address common.Address) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	balance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}

	return balance, nil
}

// TokenBalance returns the ERC20 token balance for the given account.
func (c *RPCClient) TokenBalance(ctx context.Context, tokenAddress, account common.Address) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	data := make([]byte, 0, len(balanceOfMethodID)+abiPaddedLength)
	data = append(data, balanceOfMethodID...)
	data = append(data, common.LeftPadBytes(account.Bytes(), abiPaddedLength)...)

	callMsg := ethereum.CallMsg{
		To:   &tokenAddress,
		Data: data,
	}

	resp, err := client.CallContract(ctx, callMsg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call balanceOf")
	}

	return new(big.Int).SetBytes(resp), nil
}

// PendingNonceAt returns the pending nonce for the given address.
func (c *RPCClient) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	nonce, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

// SuggestGasPrice returns the node's current gas price suggestion.
func (c *RPCClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas price")
	}

	return gasPrice, nil
}

// EstimateGas estimates the gas usage of the given call.
func (c *RPCClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, errors.Wrap(err, "failed to estimate gas")
	}

	return gas, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get RPC client")
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

// WaitForReceipt polls for the transaction receipt until it is found or the
// bounded wait elapses, in which case ErrReceiptTimeout is returned.
func (c *RPCClient) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	localCtx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		client, err := c.getClient(localCtx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get RPC client")
		}

		receipt, err := client.TransactionReceipt(localCtx, txHash)
		if err == nil {
			return receipt, nil
		}

		if !errors.Is(err, ethereum.NotFound) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Wrap(err, "failed to get transaction receipt")
		}

		select {
		case <-localCtx.Done():
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "context canceled while waiting for receipt")
			}
			return nil, ErrReceiptTimeout
		case <-ticker.C:
			continue
		}
	}
}

// getClient returns a healthy client, failing over to the next URL when the
// current one stops answering.
func (c *RPCClient) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := 0; i < len(c.clients); i++ {
		idx := (c.current + i) % len(c.clients)
		client := c.clients[idx]

		if client != nil {
			_, err := client.ChainID(ctx)
			if err == nil {
				if idx != c.current {
					c.mu.RUnlock()
					c.mu.Lock()
					c.current = idx
					c.mu.Unlock()
					c.mu.RLock()
				}
				return client, nil
			}

			log.Warn().
				Str("url", c.urls[idx]).
				Err(err).
				Msg("RPC client health check failed, will try to reconnect")
		}

		c.mu.RUnlock()
		c.mu.Lock()
		if c.clients[idx] == nil {
			client, err := ethclient.Dial(c.urls[idx])
			if err == nil {
				c.clients[idx] = client
				c.current = idx
				c.mu.Unlock()
				c.mu.RLock()
				return client, nil
			}
		}
		c.mu.Unlock()
		c.mu.RLock()
	}

	return nil, errors.New("all RPC clients are unavailable")
}
