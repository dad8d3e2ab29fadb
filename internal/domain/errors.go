package domain

import "errors"

// Validation errors, in the order the submission flow checks them.
// Their messages are shown to the user verbatim.
var (
	ErrWalletNotConnected = errors.New("Wallet not connected")
	ErrImageRequired      = errors.New("Please upload an image for your token")
	ErrNameSymbolRequired = errors.New("Token name and symbol are required")
	ErrSupplyNotPositive  = errors.New("Initial supply must be greater than zero")
	ErrSupplyTooLarge     = errors.New("Initial supply is too large")
)

// Image selection errors.
var (
	ErrUnsupportedImageType = errors.New("Unsupported file type. Please upload JPEG, PNG, or GIF images.")
	ErrImageTooLarge        = errors.New("File is too large. Max size is 200KB.")
)

// IsValidationError reports whether err is one of the local validation errors.
func IsValidationError(err error) bool {
	for _, v := range []error{
		ErrWalletNotConnected,
		ErrImageRequired,
		ErrNameSymbolRequired,
		ErrSupplyNotPositive,
		ErrSupplyTooLarge,
		ErrUnsupportedImageType,
		ErrImageTooLarge,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
