// Package main provides the forge command: a token creation web server, a
// terminal creation command and a mint inspector.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"token-forge/internal/config"
	"token-forge/internal/log"
	"token-forge/internal/pinning"
	"token-forge/internal/solana"
)

var (
	configPath string
	envFile    string
	rpcFlag    string
	wsFlag     string
	cluster    string
	logLevel   string

	// Loaded in PersistentPreRunE.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Create SPL tokens with IPFS metadata",
	Long: "forge creates fungible SPL tokens: it pins the token image and a\n" +
		"metadata document to Pinata, then creates, initializes and mints the\n" +
		"token in one transaction signed by a browser or keypair wallet.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "forge.yaml", "YAML config file (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&rpcFlag, "rpc", "", "Solana RPC endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&wsFlag, "ws", "", "Solana WebSocket endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cluster, "cluster", "", "cluster for explorer links: mainnet-beta, devnet or testnet")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	if rpcFlag != "" {
		c.RPC.Endpoint = rpcFlag
	}
	if wsFlag != "" {
		c.RPC.WSEndpoint = wsFlag
	}
	if cluster != "" {
		c.Cluster = cluster
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return err
	}

	log.Init(c.Log.Level, c.Log.JSON)
	cfg = c
	return nil
}

// newChainClient builds the RPC client from the loaded configuration.
func newChainClient() *solana.HTTPClient {
	opts := []solana.ClientOption{
		solana.WithTimeout(cfg.RPC.Timeout),
		solana.WithMaxRetries(cfg.RPC.MaxRetries),
		solana.WithConfirmTimeout(cfg.RPC.ConfirmTimeout),
		solana.WithLogger(log.RPC),
	}
	if cfg.RPC.WSEndpoint != "" {
		opts = append(opts, solana.WithWSEndpoint(cfg.RPC.WSEndpoint, nil))
	}
	return solana.NewHTTPClient(cfg.RPC.Endpoint, opts...)
}

// newPinner builds the Pinata client. Credentials must be configured.
func newPinner() (*pinning.Client, error) {
	if err := cfg.RequirePinata(); err != nil {
		return nil, err
	}
	return pinning.NewClient(cfg.Pinata.APIKey, cfg.Pinata.SecretAPIKey,
		pinning.WithAPIURL(cfg.Pinata.APIURL),
		pinning.WithGatewayURL(cfg.Pinata.GatewayURL),
		pinning.WithTimeout(cfg.Pinata.Timeout),
		pinning.WithLogger(log.Pinning),
	), nil
}

func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
