package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"token-forge/internal/observability"
)

// Default endpoints.
const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud"
	DefaultTimeout    = 60 * time.Second
)

// ErrMissingCredentials is returned when the client has no API key pair.
var ErrMissingCredentials = errors.New("pinata: API key and secret are required")

// APIError is a non-2xx response from the pinning API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinata: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client implements Pinner against the Pinata HTTP API.
type Client struct {
	apiURL     string
	gatewayURL string
	apiKey     string
	secretKey  string
	client     *http.Client
	logger     zerolog.Logger
}

var _ Pinner = (*Client)(nil)

// Option configures Client.
type Option func(*Client)

// WithAPIURL overrides the API base URL.
func WithAPIURL(u string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(u, "/")
	}
}

// WithGatewayURL overrides the gateway used to build locators.
func WithGatewayURL(u string) Option {
	return func(c *Client) {
		c.gatewayURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Pinata client authenticated with an API key pair.
func NewClient(apiKey, secretKey string, opts ...Option) *Client {
	c := &Client{
		apiURL:     DefaultAPIURL,
		gatewayURL: DefaultGatewayURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
		client:     &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GatewayURL returns the locator for a content hash.
func (c *Client) GatewayURL(hash string) string {
	return c.gatewayURL + "/ipfs/" + hash
}

type pinataMetadata struct {
	Name string `json:"name"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinFile uploads data with pinFileToIPFS.
func (c *Client) PinFile(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}

	meta, err := json.Marshal(pinataMetadata{Name: filename})
	if err != nil {
		return "", fmt.Errorf("marshal pinata metadata: %w", err)
	}
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", fmt.Errorf("write metadata field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart body: %w", err)
	}

	return c.pin(ctx, "file", "/pinning/pinFileToIPFS", mw.FormDataContentType(), body.Bytes())
}

// PinJSON uploads doc with pinJSONToIPFS.
func (c *Client) PinJSON(ctx context.Context, name string, doc interface{}) (string, error) {
	payload, err := json.Marshal(struct {
		Content  interface{}    `json:"pinataContent"`
		Metadata pinataMetadata `json:"pinataMetadata"`
	}{
		Content:  doc,
		Metadata: pinataMetadata{Name: name},
	})
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	return c.pin(ctx, "json", "/pinning/pinJSONToIPFS", "application/json", payload)
}

func (c *Client) pin(ctx context.Context, kind, path, contentType string, payload []byte) (locator string, err error) {
	start := time.Now()
	defer func() {
		observability.RecordPin(kind, len(payload), time.Since(start).Seconds(), err)
	}()

	if c.apiKey == "" || c.secretKey == "" {
		return "", ErrMissingCredentials
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var pinned pinResponse
	if err := json.Unmarshal(respBody, &pinned); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if pinned.IpfsHash == "" {
		return "", errors.New("pinata: response carried no IpfsHash")
	}

	c.logger.Debug().
		Str("kind", kind).
		Str("hash", pinned.IpfsHash).
		Int("bytes", len(payload)).
		Dur("took", time.Since(start)).
		Msg("pinned")

	return c.GatewayURL(pinned.IpfsHash), nil
}
