// Package pinning publishes token images and metadata documents to IPFS
// through the Pinata pinning API.
package pinning

import "context"

// Pinner stores content on IPFS and returns a gateway locator for it.
type Pinner interface {
	// PinFile uploads raw file content.
	PinFile(ctx context.Context, filename, contentType string, data []byte) (string, error)

	// PinJSON uploads a JSON-serializable document under name.
	PinJSON(ctx context.Context, name string, doc interface{}) (string, error)
}
