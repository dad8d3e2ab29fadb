package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-forge/internal/config"
	"token-forge/internal/domain"
	"token-forge/internal/submission"
)

func TestReadImageFile(t *testing.T) {
	dir := t.TempDir()

	png := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	img, err := readImageFile(png)
	require.NoError(t, err)
	assert.Equal(t, "logo.png", img.Filename)
	assert.Equal(t, "image/png", img.ContentType)

	// No extension: sniffed from content.
	gif := filepath.Join(dir, "logo")
	require.NoError(t, os.WriteFile(gif, []byte("GIF89a\x01\x00\x01\x00"), 0o600))
	img, err = readImageFile(gif)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", img.ContentType)

	_, err = readImageFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestCreateRequest_Validation(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n"), 0o600))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o600))
	big := filepath.Join(dir, "big.jpg")
	require.NoError(t, os.WriteFile(big, make([]byte, domain.MaxImageBytes+1), 0o600))

	tests := []struct {
		name    string
		tName   string
		symbol  string
		supply  uint64
		image   string
		wantErr error
	}{
		{"valid", "Demo", "DEMO", 1000, png, nil},
		{"no image", "Demo", "DEMO", 1000, "", domain.ErrImageRequired},
		{"unsupported type", "Demo", "DEMO", 1000, txt, domain.ErrUnsupportedImageType},
		{"too large", "Demo", "DEMO", 1000, big, domain.ErrImageTooLarge},
		{"blank name", "  ", "DEMO", 1000, png, domain.ErrNameSymbolRequired},
		{"zero supply", "Demo", "DEMO", 0, png, domain.ErrSupplyNotPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := createRequest(tt.tName, tt.symbol, tt.supply, tt.image)
			require.NoError(t, err)
			err = req.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunCreate_ValidatesBeforeCredentials(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	prevCfg := cfg
	prevName, prevSymbol, prevSupply, prevImage, prevKeypair := createName, createSymbol, createSupply, createImage, createKeypair
	t.Cleanup(func() {
		cfg = prevCfg
		createName, createSymbol, createSupply, createImage, createKeypair = prevName, prevSymbol, prevSupply, prevImage, prevKeypair
	})

	// No keypair and no Pinata credentials configured.
	cfg = config.Default()
	createName, createSymbol, createSupply, createImage, createKeypair = "", "DEMO", 1000, png, ""

	err := runCreate(createCmd, nil)
	assert.ErrorIs(t, err, domain.ErrNameSymbolRequired)
	assert.NotErrorIs(t, err, config.ErrMissingPinataCredentials)
}

func TestStepLabelsCoverFlow(t *testing.T) {
	for _, step := range []string{
		submission.StepUploadImage, submission.StepUploadMetadata, submission.StepGenerateMint,
		submission.StepRentExemption, submission.StepDeriveHolder, submission.StepAssemble,
		submission.StepAnchor, submission.StepCosign, submission.StepWalletSign,
		submission.StepSubmit, submission.StepConfirm,
	} {
		assert.Contains(t, stepLabels, step)
	}
}
