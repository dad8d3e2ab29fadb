package wallet

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"token-forge/internal/solana"
)

// ErrInvalidPublicKey is returned for keys that cannot sign.
var ErrInvalidPublicKey = errors.New("invalid wallet public key")

// ParsePublicKey decodes a base58 wallet address and checks that it is a
// point on the ed25519 curve. Program-derived addresses are refused because
// nothing can sign for them.
func ParsePublicKey(s string) (common.PublicKey, error) {
	key, err := solana.ParseAddress(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if !solana.IsOnCurve(key.Bytes()) {
		return common.PublicKey{}, fmt.Errorf("%w: not on the ed25519 curve", ErrInvalidPublicKey)
	}
	return key, nil
}
