package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/api"
	"github.com/AlexZinkM/card-wallet/internal/config"
	"github.com/AlexZinkM/card-wallet/internal/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the wallet HTTP API",
	Long: `Starts the wallet API on PORT with inbox polling enabled.
Swagger UI is served under /swagger/.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app, closeApp, err := openApp()
	if err != nil {
		return err
	}
	defer closeApp()

	app.Start()
	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           api.SetupRouter(handler.NewWalletHandler(app, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wallet listening", zap.String("addr", srv.Addr), zap.String("sessionStore", config.GetSessionStoreURL()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(ctx)
}
