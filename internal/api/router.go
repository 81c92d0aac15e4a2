package api

import (
	"net/http"

	_ "github.com/AlexZinkM/card-wallet/docs"
	"github.com/AlexZinkM/card-wallet/internal/handler"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up the wallet API router with handlers
func SetupRouter(walletHandler *handler.WalletHandler) http.Handler {
	r := mux.NewRouter()

	// Swagger UI
	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Cards
	r.HandleFunc("/cards", walletHandler.ListCards).Methods(http.MethodGet)
	r.HandleFunc("/cards", walletHandler.ClearCards).Methods(http.MethodDelete)
	r.HandleFunc("/cards/seed", walletHandler.SeedCards).Methods(http.MethodPost)
	r.HandleFunc("/cards/{id}", walletHandler.GetCard).Methods(http.MethodGet)
	r.HandleFunc("/cards/{id}", walletHandler.RemoveCard).Methods(http.MethodDelete)
	r.HandleFunc("/cards/{id}/renew", walletHandler.RenewCard).Methods(http.MethodPost)
	r.HandleFunc("/cards/{id}/expand", walletHandler.ToggleCard).Methods(http.MethodPost)

	// Inbox
	r.HandleFunc("/inbox", walletHandler.ListInbox).Methods(http.MethodGet)
	r.HandleFunc("/inbox/capture", walletHandler.Capture).Methods(http.MethodPost)
	r.HandleFunc("/inbox/{id}", walletHandler.RemoveInbox).Methods(http.MethodDelete)
	r.HandleFunc("/inbox/{id}/open", walletHandler.OpenInbox).Methods(http.MethodPost)

	// Sessions
	r.HandleFunc("/scan", walletHandler.Scan).Methods(http.MethodPost)
	r.HandleFunc("/share", walletHandler.GetShare).Methods(http.MethodGet)
	r.HandleFunc("/share", walletHandler.LeaveShare).Methods(http.MethodDelete)
	r.HandleFunc("/share/card", walletHandler.SelectCard).Methods(http.MethodPut)
	r.HandleFunc("/share/fields", walletHandler.SetField).Methods(http.MethodPut)
	r.HandleFunc("/share/confirm", walletHandler.ConfirmShare).Methods(http.MethodPost)

	return r
}

// SetupSessionRouter sets up the session daemon router
func SetupSessionRouter(sessionHandler *handler.SessionHandler) http.Handler {
	r := mux.NewRouter()

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	r.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/qr", sessionHandler.QR).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/shared", sessionHandler.PutShared).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/response", sessionHandler.PutResponse).Methods(http.MethodPut)
	r.HandleFunc("/sessions/{id}/complete", sessionHandler.Complete).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/scan", sessionHandler.Scan).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/expire", sessionHandler.Expire).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/{field}", sessionHandler.Field).Methods(http.MethodGet)

	return r
}
