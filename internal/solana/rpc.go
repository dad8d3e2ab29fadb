package solana

import "context"

// ChainClient is the subset of the Solana JSON-RPC API the token flow consumes.
type ChainClient interface {
	// GetMinimumBalanceForRentExemption returns lamports needed to keep an account
	// of dataSize bytes rent-exempt.
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)

	// GetLatestBlockhash returns a recent blockhash to anchor a transaction.
	GetLatestBlockhash(ctx context.Context) (*Blockhash, error)

	// SendTransaction submits a fully signed wire-encoded transaction and returns its signature.
	SendTransaction(ctx context.Context, rawTx []byte) (string, error)

	// ConfirmTransaction blocks until the signature reaches commitment, the
	// transaction fails, or its blockhash expires.
	ConfirmTransaction(ctx context.Context, signature string, anchor *Blockhash, commitment Commitment) error
}

// AccountReader reads raw account state.
type AccountReader interface {
	// GetAccountInfo returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)
}
