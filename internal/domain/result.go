package domain

import "fmt"

// CreationResult is produced after the creation transaction is confirmed.
// It is held only for display and overwritten by the next submission.
type CreationResult struct {
	MintAddress       string // base58 mint account
	AssociatedAccount string // base58 holding account of the connecting identity
	TxID              string // transaction signature
	ImageURI          string
	MetadataURI       string
	ExplorerURL       string
}

// ExplorerTxURL returns the block explorer link for a transaction on a cluster.
func ExplorerTxURL(txID, cluster string) string {
	if cluster == "" || cluster == "mainnet-beta" || cluster == "mainnet" {
		return fmt.Sprintf("https://explorer.solana.com/tx/%s", txID)
	}
	return fmt.Sprintf("https://explorer.solana.com/tx/%s?cluster=%s", txID, cluster)
}
