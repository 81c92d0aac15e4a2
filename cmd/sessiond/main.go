// Command sessiond serves the in-memory session-record store the wallet
// reads requests and offers from.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/api"
	"github.com/AlexZinkM/card-wallet/internal/config"
	"github.com/AlexZinkM/card-wallet/internal/handler"
	"github.com/AlexZinkM/card-wallet/internal/logging"
	"github.com/AlexZinkM/card-wallet/internal/remote"
	"go.uber.org/zap"
)

const expirySweep = time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := remote.NewMemory()
	go sweep(ctx, store, log)

	srv := &http.Server{
		Addr:              ":" + config.GetSessiondPort(),
		Handler:           api.SetupSessionRouter(handler.NewSessionHandler(store, cfg.WalletURL, log)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("sessiond listening", zap.String("addr", srv.Addr), zap.String("walletURL", cfg.WalletURL))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// sweep expires sessions past their expiresAt so subscribers are notified.
func sweep(ctx context.Context, store *remote.Memory, log *zap.Logger) {
	t := time.NewTicker(expirySweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := store.ExpireDue(); n > 0 {
				log.Debug("expired sessions", zap.Int("count", n))
			}
		}
	}
}
