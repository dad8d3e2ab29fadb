package solana

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// Commitment is a Solana commitment level.
type Commitment string

// Commitment levels, weakest first.
const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	default:
		return 0
	}
}

// SatisfiedBy reports whether an observed status meets commitment c.
func (c Commitment) SatisfiedBy(observed Commitment) bool {
	return observed.rank() > 0 && observed.rank() >= c.rank()
}

// Blockhash is a recent blockhash and the last block height at which a
// transaction anchored to it is still valid.
type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *uint64 // nil once finalized
	Err                interface{}
	ConfirmationStatus Commitment
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data"` // base64 encoded
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
}

// EncodeSignature renders a raw transaction signature as base58, the form
// used by the RPC API and explorers.
func EncodeSignature(sig []byte) string {
	return base58.Encode(sig)
}

// ErrInvalidAddress is returned for strings that are not a base58 account address.
var ErrInvalidAddress = errors.New("invalid account address")

// ParseAddress decodes a base58 account address. Off-curve addresses are
// accepted.
func ParseAddress(s string) (common.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return common.PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != common.PublicKeyLength {
		return common.PublicKey{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidAddress, common.PublicKeyLength, len(raw))
	}
	return common.PublicKeyFromBytes(raw), nil
}
