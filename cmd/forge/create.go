package main

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"token-forge/internal/domain"
	"token-forge/internal/log"
	"token-forge/internal/submission"
	"token-forge/internal/wallet"
)

var (
	createName    string
	createSymbol  string
	createSupply  uint64
	createImage   string
	createKeypair string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a token from the terminal",
	Long: `Create a token signed by a keypair file wallet. The keypair pays for the
transaction and becomes the mint and freeze authority.

Example:
  forge create --name Demo --symbol DEMO --supply 1000 --image logo.png --keypair ~/.config/solana/id.json`,
	RunE: runCreate,
}

// stepLabels describes each step for progress output.
var stepLabels = map[string]string{
	submission.StepUploadImage:    "Uploading image to IPFS",
	submission.StepUploadMetadata: "Uploading metadata to IPFS",
	submission.StepGenerateMint:   "Generating mint account",
	submission.StepRentExemption:  "Fetching rent exemption",
	submission.StepDeriveHolder:   "Deriving token account",
	submission.StepAssemble:       "Building instructions",
	submission.StepAnchor:         "Fetching recent blockhash",
	submission.StepCosign:         "Signing with mint account",
	submission.StepWalletSign:     "Signing with wallet",
	submission.StepSubmit:         "Sending transaction",
	submission.StepConfirm:        "Waiting for confirmation",
}

func init() {
	createCmd.Flags().StringVar(&createName, "name", "", "token name")
	createCmd.Flags().StringVar(&createSymbol, "symbol", "", "token symbol")
	createCmd.Flags().Uint64Var(&createSupply, "supply", 0, "initial supply in whole tokens")
	createCmd.Flags().StringVar(&createImage, "image", "", "token image (JPEG, PNG or GIF, max 200KB)")
	createCmd.Flags().StringVar(&createKeypair, "keypair", "", "wallet keypair file (overrides config)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	req, err := createRequest(createName, createSymbol, createSupply, createImage)
	if err != nil {
		return err
	}
	// Report form mistakes before touching credentials or the network.
	if err := req.Validate(); err != nil {
		return fmt.Errorf("Error Creating Token: %w", err)
	}

	keypairPath := createKeypair
	if keypairPath == "" {
		keypairPath = cfg.Wallet.Keypair
	}
	if keypairPath == "" {
		return errors.New("a wallet keypair is required (--keypair or wallet.keypair)")
	}
	kp, err := wallet.LoadKeypair(keypairPath)
	if err != nil {
		return err
	}

	pinner, err := newPinner()
	if err != nil {
		return err
	}

	flow := submission.New(submission.Options{
		Chain:       newChainClient(),
		Pinner:      pinner,
		Description: cfg.Metadata.Description,
		Cluster:     cfg.Cluster,
		Logger:      log.Submission,
		OnStep: func(step string) {
			if label, ok := stepLabels[step]; ok {
				printf(cmd, "  %s...\n", label)
			}
		},
	})

	key, _ := kp.PublicKey()
	printf(cmd, "Creating %s (%s) on %s with wallet %s\n", createName, createSymbol, cfg.Cluster, key.ToBase58())

	result, err := flow.Submit(cmd.Context(), kp, req)
	if err != nil {
		return fmt.Errorf("Error Creating Token: %w", err)
	}

	printf(cmd, "\nToken created\n")
	printf(cmd, "  Mint:          %s\n", result.MintAddress)
	printf(cmd, "  Token account: %s\n", result.AssociatedAccount)
	printf(cmd, "  Image:         %s\n", result.ImageURI)
	printf(cmd, "  Metadata:      %s\n", result.MetadataURI)
	printf(cmd, "  Transaction:   %s\n", result.TxID)
	printf(cmd, "  Explorer:      %s\n", result.ExplorerURL)
	return nil
}

// createRequest builds the token request from the command flags. An empty
// image path leaves the image unset for validation to report.
func createRequest(name, symbol string, supply uint64, imagePath string) (domain.TokenRequest, error) {
	req := domain.TokenRequest{
		Name:          name,
		Symbol:        symbol,
		InitialSupply: supply,
	}
	if imagePath != "" {
		img, err := readImageFile(imagePath)
		if err != nil {
			return req, err
		}
		req.Image = img
	}
	return req, nil
}

// readImageFile loads an image and resolves its content type from the
// extension, falling back to content sniffing. Type and size rules are left
// to request validation.
func readImageFile(path string) (*domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &domain.Image{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
