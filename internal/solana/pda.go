package solana

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
	"github.com/blocto/solana-go-sdk/common"
)

// MetadataProgramID is the Metaplex Token Metadata program.
var MetadataProgramID = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

// ErrNoViableBump is returned when no bump seed yields an off-curve address.
var ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

// FindProgramAddress derives a Program Derived Address.
// Bumps are tried from 255 down; the first hash that is not a valid ed25519
// point is the address.
func FindProgramAddress(seeds [][]byte, programID common.PublicKey) (common.PublicKey, uint8, error) {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0, 64+len(programID)+len("ProgramDerivedAddress"))
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID.Bytes()...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !IsOnCurve(hash[:]) {
			return common.PublicKeyFromBytes(hash[:]), bump, nil
		}
	}
	return common.PublicKey{}, 0, ErrNoViableBump
}

// FindAssociatedTokenAddress derives the associated token account holding
// owner's balance of mint. It performs no network calls.
func FindAssociatedTokenAddress(owner, mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{owner.Bytes(), common.TokenProgramID.Bytes(), mint.Bytes()},
		common.SPLAssociatedTokenAccountProgramID,
	)
	return addr, err
}

// FindMetadataAddress derives the Metaplex metadata account for mint.
// Seeds: ["metadata", metadata_program_id, mint]
func FindMetadataAddress(mint common.PublicKey) (common.PublicKey, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{[]byte("metadata"), MetadataProgramID.Bytes(), mint.Bytes()},
		MetadataProgramID,
	)
	return addr, err
}

// IsOnCurve reports whether b encodes a point on the ed25519 curve.
// Only on-curve keys can produce signatures.
func IsOnCurve(b []byte) bool {
	if len(b) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
