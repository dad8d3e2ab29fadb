package main

import (
	"errors"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/spf13/cobra"

	"token-forge/internal/solana"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <mint>",
	Short: "Show a mint account and its metadata address",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	mintKey, err := solana.ParseAddress(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	chain := newChainClient()

	mint, err := solana.GetMint(ctx, chain, mintKey.ToBase58())
	if err != nil {
		return err
	}

	printf(cmd, "Mint:             %s\n", mint.Address)
	printf(cmd, "Supply:           %s (%d base units)\n", mint.UISupply(), mint.Supply)
	printf(cmd, "Decimals:         %d\n", mint.Decimals)
	printf(cmd, "Initialized:      %t\n", mint.IsInitialized)
	printf(cmd, "Mint authority:   %s\n", optionalKey(mint.MintAuthority))
	printf(cmd, "Freeze authority: %s\n", optionalKey(mint.FreezeAuthority))

	md, err := solana.GetMetadata(ctx, chain, mintKey)
	switch {
	case errors.Is(err, solana.ErrAccountNotFound):
		addr, _ := solana.FindMetadataAddress(mintKey)
		printf(cmd, "Metadata account: %s (not created)\n", addr.ToBase58())
	case err != nil:
		return err
	default:
		printf(cmd, "Metadata account: %s\n", md.Address)
		printf(cmd, "  Name:   %s\n", md.Name)
		printf(cmd, "  Symbol: %s\n", md.Symbol)
		printf(cmd, "  URI:    %s\n", md.URI)
	}
	return nil
}

func optionalKey(k *common.PublicKey) string {
	if k == nil {
		return "none"
	}
	return k.ToBase58()
}
