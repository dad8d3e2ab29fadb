package main

import (
	"github.com/spf13/cobra"

	"token-forge/internal/log"
	"token-forge/internal/submission"
	"token-forge/internal/wallet"
	"token-forge/internal/web"
)

var (
	serveAddr    string
	serveKeypair string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the token creation web page",
	Long: `Serve the token creation form. Browser wallets connect through a
WebSocket signing bridge. With --keypair (or wallet.keypair) sessions without
a connected browser wallet sign with that keypair instead.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveKeypair, "keypair", "", "server wallet keypair file (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}
	if serveKeypair != "" {
		cfg.Wallet.Keypair = serveKeypair
	}

	pinner, err := newPinner()
	if err != nil {
		return err
	}
	chain := newChainClient()

	flow := submission.New(submission.Options{
		Chain:       chain,
		Pinner:      pinner,
		Description: cfg.Metadata.Description,
		Cluster:     cfg.Cluster,
		Logger:      log.Submission,
	})

	opts := web.Options{
		Flow:    flow,
		Cluster: cfg.Cluster,
		Logger:  log.Web,
	}
	if cfg.Wallet.Keypair != "" {
		kp, err := wallet.LoadKeypair(cfg.Wallet.Keypair)
		if err != nil {
			return err
		}
		key, _ := kp.PublicKey()
		log.Wallet.Info().Str("wallet", key.ToBase58()).Msg("server wallet loaded")
		opts.Wallet = kp
	}

	srv, err := web.New(opts)
	if err != nil {
		return err
	}

	log.Logger.Info().
		Str("rpc", cfg.RPC.Endpoint).
		Str("cluster", cfg.Cluster).
		Msg("token forge starting")

	return srv.ListenAndServe(cmd.Context(), cfg.HTTP.Addr)
}
