package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	skyvault "github.com/skyvault/skyvault-go"
	"github.com/skyvault/skyvault-go/engine"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify account credentials against the configured engine",
		Long: `Verify that the configured account can log in.

The account email comes from session.email, SKYVAULT_EMAIL, or --email.
The password is read from the SKYVAULT_PASSWORD environment variable.
Each skyvault invocation opens its own session, so login is a
credentials check rather than a persistent state change.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the provider session for this account",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the account, quota, and block status",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	details, err := client.AccountDetails(ctx)
	if err != nil {
		return err
	}

	statusf("Logged in as %s.\n", details.Email)

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.Logout(ctx); err != nil {
		return err
	}

	statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	Email        string `json:"email"`
	StorageUsed  int64  `json:"storage_used"`
	StorageMax   int64  `json:"storage_max"`
	TransferUsed int64  `json:"transfer_used"`
	TransferMax  int64  `json:"transfer_max"`
	Blocked      bool   `json:"blocked"`
	BlockReason  string `json:"block_reason,omitempty"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	details, err := client.AccountDetails(ctx)
	if err != nil {
		return fmt.Errorf("fetching account details: %w", err)
	}

	blocked, err := client.WhyBlocked(ctx)
	if err != nil {
		return fmt.Errorf("checking block status: %w", err)
	}

	if flagJSON {
		return printWhoamiJSON(details, blocked)
	}

	printWhoamiText(details, blocked)

	return nil
}

func printWhoamiJSON(details *engine.AccountDetails, blocked *skyvault.BlockStatus) error {
	out := whoamiOutput{
		Email:        details.Email,
		StorageUsed:  details.StorageUsed,
		StorageMax:   details.StorageMax,
		TransferUsed: details.TransferUsed,
		TransferMax:  details.TransferMax,
		Blocked:      blocked.Blocked,
		BlockReason:  blocked.Reason,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	return nil
}

func printWhoamiText(details *engine.AccountDetails, blocked *skyvault.BlockStatus) {
	fmt.Printf("Account:  %s\n", details.Email)
	fmt.Printf("Storage:  %s / %s\n", formatSize(details.StorageUsed), formatSize(details.StorageMax))
	fmt.Printf("Transfer: %s / %s\n", formatSize(details.TransferUsed), formatSize(details.TransferMax))

	if blocked.Blocked {
		fmt.Printf("Blocked:  %s\n", blocked.Reason)
	}
}
