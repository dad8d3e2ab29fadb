// Package wallet provides the signing identities a token submission runs
// under: a local keypair file or a browser wallet reached over WebSocket.
package wallet

import (
	"context"
	"errors"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// ErrRejected is returned when the user declines a signing request.
var ErrRejected = errors.New("wallet rejected the signing request")

// ErrDisconnected is returned when the wallet goes away mid-request.
var ErrDisconnected = errors.New("wallet disconnected")

// Wallet is an external signing identity.
type Wallet interface {
	// PublicKey returns the wallet's public key and whether one is connected.
	PublicKey() (common.PublicKey, bool)

	// SignTransaction returns tx with the wallet's signature added. Existing
	// signatures are preserved.
	SignTransaction(ctx context.Context, tx types.Transaction) (types.Transaction, error)
}

// cloneTransaction copies tx so signing never mutates the caller's value.
func cloneTransaction(tx types.Transaction) types.Transaction {
	sigs := make([]types.Signature, len(tx.Signatures))
	for i, s := range tx.Signatures {
		sigs[i] = append(types.Signature(nil), s...)
	}
	return types.Transaction{Signatures: sigs, Message: tx.Message}
}

// signerIndex returns the position of key among the message's required signers.
func signerIndex(msg types.Message, key common.PublicKey) (int, bool) {
	for i := 0; i < int(msg.Header.NumRequireSignatures) && i < len(msg.Accounts); i++ {
		if msg.Accounts[i] == key {
			return i, true
		}
	}
	return 0, false
}
