package domain

import (
	"fmt"
	"math"
	"strings"
)

// Token parameters fixed for every created mint.
const (
	Decimals        = 9
	MintAccountSize = 82 // SPL token mint account layout
	MaxImageBytes   = 200 * 1024
)

// baseUnitsPerToken is 10^Decimals.
const baseUnitsPerToken uint64 = 1_000_000_000

// MaxInitialSupply is the largest supply whose base-unit amount fits a u64.
const MaxInitialSupply = math.MaxUint64 / baseUnitsPerToken

// AllowedImageTypes lists accepted image MIME types.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif"}

// Image is a user-selected token image held in memory.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the image size in bytes.
func (i *Image) Size() int {
	if i == nil {
		return 0
	}
	return len(i.Data)
}

// TokenRequest is the user-supplied form content for one submission.
// It is transient and never persisted.
type TokenRequest struct {
	Name          string
	Symbol        string
	Image         *Image
	InitialSupply uint64 // whole tokens
}

// Trimmed returns a copy with name and symbol stripped of surrounding whitespace.
func (r TokenRequest) Trimmed() TokenRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Symbol = strings.TrimSpace(r.Symbol)
	return r
}

// BaseUnits returns InitialSupply × 10^Decimals.
func (r TokenRequest) BaseUnits() (uint64, error) {
	if r.InitialSupply > MaxInitialSupply {
		return 0, ErrSupplyTooLarge
	}
	return r.InitialSupply * baseUnitsPerToken, nil
}

// CheckImage reports whether an image satisfies the type allow-list and size limit.
func CheckImage(contentType string, size int) error {
	if !IsAllowedImageType(contentType) {
		return ErrUnsupportedImageType
	}
	if size > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}

// IsAllowedImageType reports whether contentType is in AllowedImageTypes.
func IsAllowedImageType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range AllowedImageTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// Validate checks the request fields in a fixed order and returns the first failure.
// The wallet check comes first and is performed by the caller, which knows
// whether an identity is connected.
func (r TokenRequest) Validate() error {
	if r.Image == nil || len(r.Image.Data) == 0 {
		return ErrImageRequired
	}
	if err := CheckImage(r.Image.ContentType, r.Image.Size()); err != nil {
		return err
	}

	t := r.Trimmed()
	if t.Name == "" || t.Symbol == "" {
		return ErrNameSymbolRequired
	}

	if r.InitialSupply == 0 {
		return ErrSupplyNotPositive
	}
	if _, err := r.BaseUnits(); err != nil {
		return err
	}

	return nil
}

// String implements fmt.Stringer without dumping image bytes.
func (r TokenRequest) String() string {
	return fmt.Sprintf("TokenRequest{name=%q symbol=%q image=%dB supply=%d}",
		r.Name, r.Symbol, r.Image.Size(), r.InitialSupply)
}
