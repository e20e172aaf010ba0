package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a one-posting sample digest using the configured notifier.",
	RunE:  runNotifyTest,
}

var notifySetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the SMTP password in the OS keychain",
	Long:  "Reads the password for EMAIL_ADDRESS from stdin and stores it in the OS keychain, so EMAIL_PASSWORD can stay unset.",
	RunE:  runNotifySetPassword,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
	notifyCmd.AddCommand(notifySetPasswordCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg, creds := mustLoad(logger, true)

	n := setupNotifier(cfg, creds, newHTTPClient(), logger)

	if err := notifier.SendTestMessage(context.Background(), n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}

func runNotifySetPassword(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	address := strings.TrimSpace(os.Getenv("EMAIL_ADDRESS"))

	fmt.Fprintf(cmd.ErrOrStderr(), "SMTP password for %s: ", address)
	password, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && password == "" {
		fmt.Fprintf(os.Stderr, "\nfailed to read password: %v\n", err)
		os.Exit(1)
	}

	if err := config.SetEmailPassword(address, strings.TrimSpace(password)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store password: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored password for %s in keychain service %q\n", address, config.KeyringService)
	return nil
}
