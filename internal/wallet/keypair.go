package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// Keypair is a wallet backed by a local secret key.
type Keypair struct {
	account types.Account
}

var _ Wallet = (*Keypair)(nil)

// NewKeypair wraps an account.
func NewKeypair(account types.Account) *Keypair {
	return &Keypair{account: account}
}

// LoadKeypair reads a solana-keygen JSON file (a [u8;64] array).
func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	key, err := decodeKeypairJSON(data)
	if err != nil {
		return nil, fmt.Errorf("keypair %s: %w", path, err)
	}
	acc, err := types.AccountFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("keypair %s: %w", path, err)
	}
	return &Keypair{account: acc}, nil
}

// decodeKeypairJSON accepts the solana-keygen integer array form.
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("want %d bytes, got %d", ed25519.PrivateKeySize, len(ints))
	}

	key := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte out of range at %d: %d", i, v)
		}
		key[i] = byte(v)
	}
	return key, nil
}

// PublicKey implements Wallet. A keypair is always connected.
func (k *Keypair) PublicKey() (common.PublicKey, bool) {
	return k.account.PublicKey, true
}

// SignTransaction implements Wallet.
func (k *Keypair) SignTransaction(ctx context.Context, tx types.Transaction) (types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return types.Transaction{}, err
	}

	msg, err := tx.Message.Serialize()
	if err != nil {
		return types.Transaction{}, fmt.Errorf("serialize message: %w", err)
	}

	signed := cloneTransaction(tx)
	if err := signed.AddSignature(k.account.Sign(msg)); err != nil {
		return types.Transaction{}, fmt.Errorf("add keypair signature: %w", err)
	}
	return signed, nil
}
