package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
)

// metadataV1Key tags a Metaplex MetadataV1 account.
const metadataV1Key = 4

// ErrNotMetadata is returned for data that is not a MetadataV1 account.
var ErrNotMetadata = errors.New("not a token metadata account")

// TokenMetadata is the leading part of a Metaplex metadata account.
type TokenMetadata struct {
	Address         string
	UpdateAuthority common.PublicKey
	Mint            common.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// ParseMetadata decodes the head of a Metaplex Token Metadata account:
// - key: u8 (1 byte, 4 for MetadataV1)
// - updateAuthority: Pubkey (32 bytes)
// - mint: Pubkey (32 bytes)
// - name, symbol, uri: borsh strings (4-byte length + bytes), NUL padded
func ParseMetadata(data []byte) (*TokenMetadata, error) {
	if len(data) < 65 || data[0] != metadataV1Key {
		return nil, ErrNotMetadata
	}

	md := &TokenMetadata{
		UpdateAuthority: common.PublicKeyFromBytes(data[1:33]),
		Mint:            common.PublicKeyFromBytes(data[33:65]),
	}

	offset := 65
	for _, field := range []*string{&md.Name, &md.Symbol, &md.URI} {
		s, next, err := readBorshString(data, offset)
		if err != nil {
			return nil, err
		}
		*field = s
		offset = next
	}
	return md, nil
}

func readBorshString(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", 0, fmt.Errorf("%w: truncated string length at %d", ErrNotMetadata, offset)
	}
	size := binary.LittleEndian.Uint32(data[offset:])
	offset += 4
	if uint64(size) > uint64(len(data)-offset) {
		return "", 0, fmt.Errorf("%w: string of %d bytes overruns data", ErrNotMetadata, size)
	}
	n := int(size)
	s := strings.TrimRight(string(data[offset:offset+n]), "\x00")
	return s, offset + n, nil
}

// GetMetadata fetches and decodes the metadata account of mint.
func GetMetadata(ctx context.Context, reader AccountReader, mint common.PublicKey) (*TokenMetadata, error) {
	addr, err := FindMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	info, err := reader.GetAccountInfo(ctx, addr.ToBase58())
	if err != nil {
		return nil, fmt.Errorf("get metadata account: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("metadata %s: %w", addr.ToBase58(), ErrAccountNotFound)
	}
	if info.Owner != MetadataProgramID.ToBase58() {
		return nil, fmt.Errorf("account %s is owned by %s, not the metadata program", addr.ToBase58(), info.Owner)
	}

	decoded, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	md, err := ParseMetadata(decoded)
	if err != nil {
		return nil, err
	}
	md.Address = addr.ToBase58()
	return md, nil
}
