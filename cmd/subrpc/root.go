package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"subrpc/client"
	"subrpc/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigPath string
	Endpoint   string
	Timeout    time.Duration
	Verbose    bool
}

var (
	flags globalFlags
	cfg   config.Config
	log   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subrpc",
	Short: "JSON-RPC client for Substrate-style nodes",
	Long: `subrpc talks to a blockchain node over a WebSocket JSON-RPC connection.

It keeps a single long-lived connection, multiplexes concurrent requests
over it, and reconnects with exponential backoff when the node drops.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if flags.ConfigPath != "" {
			cfg, err = config.Load(flags.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
		} else {
			cfg = config.Default()
			config.ApplyEnvOverrides(&cfg)
		}
		if flags.Endpoint != "" {
			cfg.Endpoint = flags.Endpoint
		}
		if flags.Timeout > 0 {
			cfg.CallTimeout = flags.Timeout
		}
		if cfg.Endpoint == "" {
			return fmt.Errorf("no endpoint: pass --endpoint, set SUBRPC_ENDPOINT, or configure one")
		}

		if flags.Verbose {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// getClient builds a client from the resolved config and connects it.
func getClient(ctx context.Context) (*client.Client, error) {
	c := client.New(ctx, cfg, client.WithLogger(log))
	if err := c.Connect(ctx, cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Endpoint, err)
	}
	return c, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flags.Endpoint, "endpoint", "e", "", "node WebSocket endpoint (ws:// or wss://)")
	rootCmd.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 0, "per-call timeout (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(stateCmd)
}
