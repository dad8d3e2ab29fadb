package domain

// DefaultDescription is the static description embedded in every metadata document.
const DefaultDescription = "Your token description"

// MetadataDocument is the off-chain JSON document pinned next to the token image.
// It is created only after the image upload succeeds and is discarded after
// the metadata upload.
type MetadataDocument struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"` // gateway URL of the pinned image
}

// NewMetadataDocument builds the document for a request whose image is pinned at imageURI.
func NewMetadataDocument(req TokenRequest, description, imageURI string) MetadataDocument {
	if description == "" {
		description = DefaultDescription
	}
	return MetadataDocument{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: description,
		Image:       imageURI,
	}
}
