package main

import (
	"fmt"
	"time"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/AlexZinkM/card-wallet/wallet"
	"github.com/spf13/cobra"
)

var (
	inboxUnread bool
	inboxStatus string
	inboxIntent string
	pruneAge    time.Duration
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Refresh and list the inbox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q model.InboxQuery
		if inboxStatus != "" {
			q.Status = &inboxStatus
		}
		if inboxIntent != "" {
			q.Intent = &inboxIntent
		}
		if inboxUnread {
			q.Unread = &inboxUnread
		}
		if err := q.Validate(); err != nil {
			return err
		}

		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		app.Refresh(cmd.Context())
		n := 0
		for _, e := range app.Inbox.Entries() {
			if q.Match(e) {
				printEntry(cmd.OutOrStdout(), e)
				n++
			}
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Inbox is empty"))
		}
		return nil
	},
}

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Record the session named in a wallet link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		out := app.Flow.CaptureDeeplink(cmd.Context(), args[0])
		if !out.Captured {
			return fmt.Errorf("no session in %q", args[0])
		}
		printEntry(cmd.OutOrStdout(), *out.Entry)
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <session-id>",
	Short: "Act on an inbox session",
	Long: `Opens the share request of a session, or adds its offered card after
PIN confirmation. Share requests are answered the same way as scan.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		out, err := app.Flow.OpenInboxSession(cmd.Context(), args[0], wallet.NewTerminalPIN(app.PIN()))
		if err != nil {
			return err
		}
		return finishFlow(cmd, app, out)
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <session-id>",
	Short: "Remove an inbox entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()
		app.Inbox.Remove(args[0])
		return nil
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop inbox entries without recent activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		n := app.Inbox.Prune(pruneAge)
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", n)
		return nil
	},
}

func init() {
	inboxCmd.Flags().BoolVar(&inboxUnread, "unread", false, "only unread entries")
	inboxCmd.Flags().StringVar(&inboxStatus, "status", "", "only entries with this status code")
	inboxCmd.Flags().StringVar(&inboxIntent, "intent", "", "use_card or add_card")
	pruneCmd.Flags().DurationVar(&pruneAge, "older-than", 24*time.Hour, "inactivity threshold")
}
