package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the cards in the wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		cards := app.Store.Cards()
		if len(cards) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("No cards yet. Run `wallet seed` to add demo cards."))
			return nil
		}
		for _, c := range cards {
			printCard(cmd.OutOrStdout(), app.View(c))
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [set]",
	Short: "Add the demo cards of a seed set",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		set := ""
		if len(args) == 1 {
			set = args[0]
		}
		cards, err := app.Seed(set)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Added %d cards", len(cards))))
		return nil
	},
}

var renewCmd = &cobra.Command{
	Use:   "renew <card-id>",
	Short: "Reissue a card for another year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		c, err := app.Store.Renew(args[0])
		if err != nil {
			return err
		}
		printCard(cmd.OutOrStdout(), app.View(c))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <card-id>",
	Short: "Remove a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()
		return app.Store.Remove(args[0])
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every card and inbox entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()
		return app.Clear()
	},
}
