package main

import (
	"fmt"
	"strings"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/wallet"
	"github.com/spf13/cobra"
)

var (
	shareCard   int
	shareFields []string
	shareDrop   []string
	dryRun      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <session-id>",
	Short: "Handle a scanned session",
	Long: `Resolves the session and either adds the offered card or answers the
share request. For share requests the best matching card is used unless
--card picks another candidate; --field and --drop toggle optional fields.
Sharing asks for confirmation and the wallet PIN.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		out, err := app.Flow.Scan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return finishFlow(cmd, app, out)
	},
}

func init() {
	for _, c := range []*cobra.Command{scanCmd, openCmd} {
		c.Flags().IntVar(&shareCard, "card", -1, "candidate card index")
		c.Flags().StringSliceVar(&shareFields, "field", nil, "optional field to share")
		c.Flags().StringSliceVar(&shareDrop, "drop", nil, "optional field to withhold")
		c.Flags().BoolVar(&dryRun, "dry-run", false, "show the request without answering")
	}
}

// finishFlow prints the result of an add flow, or drives a pending share to
// confirmation.
func finishFlow(cmd *cobra.Command, app *wallet.App, out model.FlowResponse) error {
	w := cmd.OutOrStdout()
	if out.Card != nil {
		fmt.Fprintln(w, successStyle.Render("Card added"))
		printCard(w, app.View(*out.Card))
		return nil
	}
	if out.Share == nil {
		return nil
	}
	if out.Outcome != "" || dryRun {
		printShare(w, *out.Share)
		return nil
	}

	ctx := cmd.Context()
	view := *out.Share
	var err error
	if shareCard >= 0 {
		if view, err = app.Flow.SelectCard(ctx, shareCard); err != nil {
			return err
		}
	}
	for _, f := range shareFields {
		if view, err = app.Flow.SetField(ctx, strings.TrimSpace(f), true); err != nil {
			return err
		}
	}
	for _, f := range shareDrop {
		if view, err = app.Flow.SetField(ctx, strings.TrimSpace(f), false); err != nil {
			return err
		}
	}
	printShare(w, view)

	res, err := app.Flow.ConfirmShare(ctx, wallet.NewTerminalPIN(app.PIN()))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, successStyle.Render("Shared "+strings.Join(res.SelectedFields, ", ")))
	return nil
}
