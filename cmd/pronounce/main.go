package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pronounce-gateway/pkg/logging"
	"pronounce-gateway/pkg/ttsclient"
)

var version = "dev"

// globalOptions are the flags shared by every subcommand. Non-empty values
// override the config file.
type globalOptions struct {
	configPath string
	gateway    string
	storePath  string
	logLevel   string
}

func main() {
	var opts globalOptions

	root := &cobra.Command{
		Use:           "pronounce",
		Short:         "Play and manage pronunciation clips from the gateway",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (default: pronounce.yaml in the user config dir)")
	root.PersistentFlags().StringVar(&opts.gateway, "gateway", "", "gateway base URL")
	root.PersistentFlags().StringVar(&opts.storePath, "store", "", "path to the local audio store")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSayCmd(&opts),
		newReportCmd(&opts),
		newPronunciationsCmd(&opts),
		newCacheCmd(&opts),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func (o *globalOptions) load() (*Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.gateway != "" {
		cfg.Gateway = o.gateway
	}
	if o.storePath != "" {
		cfg.StorePath = o.storePath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func openStore(cfg *Config) (*ttsclient.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return ttsclient.OpenStore(cfg.StorePath, cfg.StoreTTL)
}

// session is a client with its store and logger; close releases both.
type session struct {
	cfg    *Config
	client *ttsclient.Client
	store  *ttsclient.Store
	logger *zap.Logger
}

func (o *globalOptions) session() (*session, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger("dev", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ttsclient.NewClient(ttsclient.Config{
		BaseURL: cfg.Gateway,
		Timeout: cfg.Timeout,
	}, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &session{cfg: cfg, client: client, store: store, logger: logger}, nil
}

func (s *session) close() {
	_ = s.store.Close()
	_ = s.logger.Sync()
}
