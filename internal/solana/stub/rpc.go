// Package stub provides an in-memory solana.ChainClient for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/blocto/solana-go-sdk/types"

	"token-forge/internal/solana"
)

// ChainClient implements solana.ChainClient for testing.
// Each method can be made to fail by setting the matching *Err field.
type ChainClient struct {
	mu sync.Mutex

	RentLamports uint64
	Blockhash    solana.Blockhash

	RentErr      error
	BlockhashErr error
	SendErr      error
	ConfirmErr   error

	// Calls records method names in invocation order.
	Calls []string
	// RentSizes records the data sizes passed to GetMinimumBalanceForRentExemption.
	RentSizes []uint64
	// Sent holds every transaction passed to SendTransaction.
	Sent []types.Transaction
	// Confirmed holds the signatures passed to ConfirmTransaction.
	Confirmed []string
}

var _ solana.ChainClient = (*ChainClient)(nil)

// NewChainClient creates a stub with a fixed blockhash and rent.
func NewChainClient() *ChainClient {
	return &ChainClient{
		RentLamports: 1461600,
		Blockhash: solana.Blockhash{
			Hash:                 "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
			LastValidBlockHeight: 1000,
		},
	}
}

func (c *ChainClient) record(method string) {
	c.Calls = append(c.Calls, method)
}

// GetMinimumBalanceForRentExemption returns RentLamports.
func (c *ChainClient) GetMinimumBalanceForRentExemption(_ context.Context, dataSize uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getMinimumBalanceForRentExemption")
	c.RentSizes = append(c.RentSizes, dataSize)
	if c.RentErr != nil {
		return 0, c.RentErr
	}
	return c.RentLamports, nil
}

// GetLatestBlockhash returns Blockhash.
func (c *ChainClient) GetLatestBlockhash(_ context.Context) (*solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("getLatestBlockhash")
	if c.BlockhashErr != nil {
		return nil, c.BlockhashErr
	}
	bh := c.Blockhash
	return &bh, nil
}

// SendTransaction decodes and stores the transaction and returns its first
// signature in base58.
func (c *ChainClient) SendTransaction(_ context.Context, rawTx []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("sendTransaction")
	if c.SendErr != nil {
		return "", c.SendErr
	}

	tx, err := types.TransactionDeserialize(rawTx)
	if err != nil {
		return "", fmt.Errorf("stub: deserialize transaction: %w", err)
	}
	c.Sent = append(c.Sent, tx)
	if len(tx.Signatures) == 0 {
		return "", fmt.Errorf("stub: transaction has no signatures")
	}
	return solana.EncodeSignature(tx.Signatures[0]), nil
}

// ConfirmTransaction returns ConfirmErr.
func (c *ChainClient) ConfirmTransaction(_ context.Context, signature string, _ *solana.Blockhash, _ solana.Commitment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("confirmTransaction")
	c.Confirmed = append(c.Confirmed, signature)
	return c.ConfirmErr
}

// CallCount returns the number of recorded calls.
func (c *ChainClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}
