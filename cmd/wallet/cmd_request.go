package main

import (
	"fmt"
	"os"

	"github.com/AlexZinkM/card-wallet/internal/client"
	"github.com/AlexZinkM/card-wallet/internal/config"
	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var (
	reqIntent   string
	reqType     string
	reqIssuer   string
	reqScenario string
	reqRequired []string
	reqOptional []string
	reqTTL      int
	reqQR       string
	reqPayload  map[string]string
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Create a demo session on the session store",
	Long: `Plays the requester or issuer side: creates a use_card or add_card
session and prints the wallet link. With --qr the link is also written as
a PNG QR code.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := model.CreateSessionRequest{
			Intent:     reqIntent,
			Type:       reqType,
			Issuer:     reqIssuer,
			Scenario:   reqScenario,
			TTLSeconds: reqTTL,
		}
		if len(reqRequired) > 0 || len(reqOptional) > 0 {
			in.Attributes = &model.AttributeSet{Required: reqRequired, Optional: reqOptional}
		}
		if len(reqPayload) > 0 {
			in.Payload = make(map[string]any, len(reqPayload))
			for k, v := range reqPayload {
				in.Payload[k] = v
			}
		}
		if err := in.Validate(); err != nil {
			return err
		}

		cfg := config.Get()
		c := client.NewSessionClient(cfg.SessionStoreURL, cfg.ExpiryPollInterval, logger)
		out, err := c.CreateSession(cmd.Context(), in)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Session"), out.ID)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Link"), out.Deeplink)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Expires"), out.ExpiresAt.Time().Local().Format("15:04:05"))

		if reqQR == "" {
			return nil
		}
		qr, err := qrcode.New(out.Deeplink, qrcode.Medium)
		if err != nil {
			return fmt.Errorf("failed to create QR code: %w", err)
		}
		png, err := qr.PNG(256)
		if err != nil {
			return fmt.Errorf("failed to render QR code: %w", err)
		}
		if err := os.WriteFile(reqQR, png, 0o644); err != nil {
			return fmt.Errorf("failed to write QR code: %w", err)
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("QR"), reqQR)
		return nil
	},
}

func init() {
	f := requestCmd.Flags()
	f.StringVar(&reqIntent, "intent", model.IntentUseCard, "use_card or add_card")
	f.StringVar(&reqType, "type", "", "card type")
	f.StringVar(&reqIssuer, "issuer", "", "issuer of an offered card")
	f.StringVar(&reqScenario, "scenario", "", "use scenario id")
	f.StringSliceVar(&reqRequired, "required", nil, "required attributes")
	f.StringSliceVar(&reqOptional, "optional", nil, "optional attributes")
	f.StringToStringVar(&reqPayload, "payload", nil, "offered card fields, key=value")
	f.IntVar(&reqTTL, "ttl", 0, "session lifetime in seconds")
	f.StringVar(&reqQR, "qr", "", "write the link as a PNG QR code to this file")
}
