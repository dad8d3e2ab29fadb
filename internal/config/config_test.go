package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0, cfg.RPC.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.RPC.ConfirmTimeout)
	assert.Equal(t, "devnet", cfg.Cluster)
	assert.Equal(t, "Your token description", cfg.Metadata.Description)
	assert.Empty(t, cfg.Pinata.APIKey)
	assert.Empty(t, cfg.Pinata.SecretAPIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.NoError(t, err)
	assert.Equal(t, Default().RPC.Endpoint, cfg.RPC.Endpoint)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := `
rpc:
  endpoint: http://localhost:8899
  confirm_timeout: 90s
  max_retries: 2
cluster: testnet
pinata:
  gateway_url: https://example.mypinata.cloud
log:
  level: debug
  json: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8899", cfg.RPC.Endpoint)
	assert.Equal(t, 90*time.Second, cfg.RPC.ConfirmTimeout)
	assert.Equal(t, 2, cfg.RPC.MaxRetries)
	assert.Equal(t, "testnet", cfg.Cluster)
	assert.Equal(t, "https://example.mypinata.cloud", cfg.Pinata.GatewayURL)
	assert.Equal(t, "https://api.pinata.cloud", cfg.Pinata.APIURL)
	assert.True(t, cfg.Log.JSON)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cluster: testnet\n"), 0o600))

	t.Setenv("SOLANA_CLUSTER", "mainnet-beta")
	t.Setenv("PINATA_API_KEY", "key")
	t.Setenv("PINATA_SECRET_API_KEY", "secret")
	t.Setenv("SOLANA_CONFIRM_TIMEOUT", "5s")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "mainnet-beta", cfg.Cluster)
	assert.Equal(t, 5*time.Second, cfg.RPC.ConfirmTimeout)
	assert.NoError(t, cfg.RequirePinata())
}

func TestLoad_EnvFileDoesNotOverrideEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nPINATA_API_KEY=fromfile\nexport PINATA_SECRET_API_KEY=\"filesecret\"\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("PINATA_API_KEY", "fromenv")
	// registered so t restores it after LoadEnvFile sets it
	t.Setenv("PINATA_SECRET_API_KEY", "")
	os.Unsetenv("PINATA_SECRET_API_KEY")

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "fromenv", cfg.Pinata.APIKey)
	assert.Equal(t, "filesecret", cfg.Pinata.SecretAPIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SOLANA_CONFIRM_TIMEOUT", "soon")
		_, err := Load("", "")
		assert.Error(t, err)
	})

	t.Run("unknown cluster", func(t *testing.T) {
		t.Setenv("SOLANA_CLUSTER", "localnet")
		_, err := Load("", "")
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rpc: [\n"), 0o600))
		_, err := Load(path, "")
		assert.Error(t, err)
	})
}

func TestRequirePinata(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequirePinata(), ErrMissingPinataCredentials)

	cfg.Pinata.APIKey = "k"
	assert.ErrorIs(t, cfg.RequirePinata(), ErrMissingPinataCredentials)

	cfg.Pinata.SecretAPIKey = "s"
	assert.NoError(t, cfg.RequirePinata())
}
