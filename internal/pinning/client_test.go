package pinning

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PinFile(t *testing.T) {
	image := []byte("\x89PNG fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret", r.Header.Get("pinata_secret_api_key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		got, _ := io.ReadAll(f)
		assert.Equal(t, image, got)
		assert.Equal(t, "logo.png", fh.Filename)
		assert.Equal(t, "image/png", fh.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"logo.png"}`, r.FormValue("pinataMetadata"))

		json.NewEncoder(w).Encode(map[string]interface{}{"IpfsHash": "QmImage", "PinSize": len(image)})
	}))
	defer server.Close()

	c := NewClient("key", "secret", WithAPIURL(server.URL), WithGatewayURL("https://gw.example/"))

	loc, err := c.PinFile(context.Background(), "logo.png", "image/png", image)
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example/ipfs/QmImage", loc)
}

func TestClient_PinJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"pinataContent": {"name":"Demo","symbol":"DEMO","image":"https://gw/ipfs/QmImage"},
			"pinataMetadata": {"name":"DEMO.json"}
		}`, string(body))

		json.NewEncoder(w).Encode(map[string]string{"IpfsHash": "QmMeta"})
	}))
	defer server.Close()

	c := NewClient("key", "secret", WithAPIURL(server.URL))

	doc := map[string]string{"name": "Demo", "symbol": "DEMO", "image": "https://gw/ipfs/QmImage"}
	loc, err := c.PinJSON(context.Background(), "DEMO.json", doc)
	require.NoError(t, err)
	assert.Equal(t, DefaultGatewayURL+"/ipfs/QmMeta", loc)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid API key"}`))
	}))
	defer server.Close()

	c := NewClient("key", "bad", WithAPIURL(server.URL))

	_, err := c.PinJSON(context.Background(), "x", map[string]string{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_MissingHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient("key", "secret", WithAPIURL(server.URL))

	_, err := c.PinFile(context.Background(), "a.gif", "image/gif", []byte("GIF89a"))
	assert.Error(t, err)
}

func TestClient_MissingCredentials(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewClient("", "", WithAPIURL(server.URL))

	_, err := c.PinFile(context.Background(), "a.png", "image/png", []byte{1})
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.False(t, called)
}
