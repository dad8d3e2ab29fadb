package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/blocto/solana-go-sdk/common"
)

// ErrAccountNotFound is returned when a requested account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// Mint is a decoded SPL Token mint account.
type Mint struct {
	Address         string
	MintAuthority   *common.PublicKey
	Supply          uint64 // base units
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *common.PublicKey
}

// UISupply renders Supply in whole tokens.
func (m *Mint) UISupply() string {
	if m.Decimals == 0 {
		return fmt.Sprintf("%d", m.Supply)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(m.Decimals)), nil)
	return new(big.Rat).SetFrac(new(big.Int).SetUint64(m.Supply), scale).FloatString(int(m.Decimals))
}

// ParseMint decodes SPL Token Mint account data.
// SPL Token Mint layout (82 bytes):
// - mintAuthority: COption<Pubkey> (36 bytes: 4 + 32)
// - supply: u64 (8 bytes)
// - decimals: u8 (1 byte)
// - isInitialized: bool (1 byte)
// - freezeAuthority: COption<Pubkey> (36 bytes: 4 + 32)
func ParseMint(data []byte) (*Mint, error) {
	if len(data) < 82 {
		return nil, fmt.Errorf("mint data too short: %d", len(data))
	}

	m := &Mint{
		MintAuthority:   parseCOptionKey(data[0:36]),
		Supply:          binary.LittleEndian.Uint64(data[36:44]),
		Decimals:        data[44],
		IsInitialized:   data[45] != 0,
		FreezeAuthority: parseCOptionKey(data[46:82]),
	}
	return m, nil
}

func parseCOptionKey(b []byte) *common.PublicKey {
	if binary.LittleEndian.Uint32(b[0:4]) == 0 {
		return nil
	}
	key := common.PublicKeyFromBytes(b[4:36])
	return &key
}

// GetMint fetches and decodes a mint account.
func GetMint(ctx context.Context, reader AccountReader, address string) (*Mint, error) {
	info, err := reader.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("get mint account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("mint %s: %w", address, ErrAccountNotFound)
	}
	if info.Owner != common.TokenProgramID.ToBase58() {
		return nil, fmt.Errorf("account %s is owned by %s, not the token program", address, info.Owner)
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode mint data: %w", err)
	}

	m, err := ParseMint(decoded)
	if err != nil {
		return nil, err
	}
	m.Address = address
	return m, nil
}
