// Command wallet runs the card wallet: an HTTP API plus terminal commands
// over the same local state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlexZinkM/card-wallet/internal/blobstore"
	"github.com/AlexZinkM/card-wallet/internal/catalog"
	"github.com/AlexZinkM/card-wallet/internal/client"
	"github.com/AlexZinkM/card-wallet/internal/config"
	"github.com/AlexZinkM/card-wallet/internal/crypto"
	"github.com/AlexZinkM/card-wallet/internal/logging"
	"github.com/AlexZinkM/card-wallet/wallet"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Card wallet demo",
	Long: `A demo identity and loyalty card wallet.

Cards live in a local SQLite state file. Share requests and card offers
arrive as sessions on the session store (see sessiond) and are tracked
in the inbox.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		level := config.Get().LogLevel
		if logLevel != "" {
			level = logLevel
		}
		var err error
		logger, err = logging.New(level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	rootCmd.AddCommand(serveCmd, requestCmd)
	rootCmd.AddCommand(cardsCmd, seedCmd, renewCmd, removeCmd, clearCmd)
	rootCmd.AddCommand(inboxCmd, captureCmd, openCmd, dismissCmd, pruneCmd)
	rootCmd.AddCommand(scanCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// openApp opens the wallet state and builds the application context.
// The returned func closes both.
func openApp() (*wallet.App, func(), error) {
	cfg := config.Get()

	db, err := blobstore.OpenSQLite(cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	var blobs blobstore.Store = db
	if cfg.EncryptState {
		sealed, err := openSealed(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		blobs = sealed
	}

	cat, err := catalog.Load(cfg.ScenariosPath, cfg.CardTypesPath)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	rs := client.NewSessionClient(cfg.SessionStoreURL, cfg.ExpiryPollInterval, logger)
	app := wallet.New(blobs, cat, rs, wallet.SettingsFrom(cfg), wallet.WithLogger(logger))
	return app, func() {
		app.Close()
		if err := db.Close(); err != nil {
			logger.Warn("failed to close state", zap.Error(err))
		}
	}, nil
}

func openSealed(inner blobstore.Store) (*blobstore.Sealed, error) {
	if err := config.PromptForPassword(); err != nil {
		return nil, err
	}
	pass, err := config.GetStatePassphrase()
	if err != nil {
		return nil, err
	}
	defer clear(pass)
	return blobstore.NewSealed(inner, pass, crypto.DefaultParams())
}
