package submission

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	"token-forge/internal/domain"
)

// CreateTokenParams are the inputs of the token creation instructions.
type CreateTokenParams struct {
	Owner        common.PublicKey // fee payer, authorities and holder owner
	Mint         common.PublicKey
	Holder       common.PublicKey // associated token account of (Owner, Mint)
	RentLamports uint64
	Amount       uint64 // base units
}

// CreateTokenInstructions returns, in order: create the mint account, initialize
// the mint, create the owner's associated token account, mint the supply.
func CreateTokenInstructions(p CreateTokenParams) []types.Instruction {
	owner := p.Owner
	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     owner,
			New:      p.Mint,
			Owner:    common.TokenProgramID,
			Lamports: p.RentLamports,
			Space:    domain.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   domain.Decimals,
			Mint:       p.Mint,
			MintAuth:   owner,
			FreezeAuth: &owner,
		}),
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 owner,
				Owner:                  owner,
				Mint:                   p.Mint,
				AssociatedTokenAccount: p.Holder,
			},
		),
		token.MintTo(token.MintToParam{
			Mint:   p.Mint,
			To:     p.Holder,
			Auth:   owner,
			Amount: p.Amount,
		}),
	}
}
