package main

import (
	"errors"
	"fmt"

	"github.com/OsbornePro/quickcopy/internal/client"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Take the pending credential (the quick copy window does this on load)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := qc.Fetch(cmd.Context())
		if errors.Is(err, client.ErrNoCredential) {
			return printResult(cmd.OutOrStdout(),
				map[string]any{"ok": false, "error": err.Error()},
				err.Error())
		}
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(),
			map[string]any{"ok": true, "credential_json": payload},
			payload)
	},
}

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the quick copy window and drop any pending credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := qc.Close(cmd.Context()); err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), map[string]any{"ok": true}, "closed")
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the quick copy window state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := qc.Status(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(),
			map[string]any{"ok": true, "window": st},
			fmt.Sprintf("window: %s", st))
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the command API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := loadToken()
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), map[string]any{"token": tok}, tok)
	},
}
