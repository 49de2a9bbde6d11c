package sweep

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github/chapool/go-sweeper/internal/chain"
)

// NonceCounter is the process-scoped transaction sequence for one source
// account: seeded once per run from the chain's pending count, then advanced
// locally after every broadcast the node acknowledged. The run is strictly
// sequential, so no locking is needed.
type NonceCounter struct {
	next uint64
}

// NewNonceCounter seeds a counter from the account's pending transaction
// count.
func NewNonceCounter(ctx context.Context, client chain.Client, account common.Address) (*NonceCounter, error) {
	nonce, err := client.PendingNonceAt(ctx, account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch initial pending nonce")
	}

	return &NonceCounter{next: nonce}, nil
}

// Current returns the nonce the next transaction must use.
func (n *NonceCounter) Current() uint64 {
	return n.next
}

// Advance marks the current nonce as consumed.
func (n *NonceCounter) Advance() {
	n.next++
}
