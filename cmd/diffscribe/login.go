package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/agusespa/diffscribe/pkg/config"
	"github.com/agusespa/diffscribe/pkg/spinner"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the Confluence API token in the OS keychain",
	Long: `Store the Confluence API token in the OS keychain. Set confluence.use_keyring
in the configuration to read it from there instead of CONFLUENCE_TOKEN.`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().String("token", "", "Token to store (prompted for when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")

	if token == "" {
		if !spinner.IsTerminal(os.Stdin) {
			return fmt.Errorf("no terminal to prompt on; pass --token")
		}
		err := huh.NewInput().
			Title("Confluence API token").
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	if err := config.SaveConfluenceToken(token); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Confluence token saved to the OS keychain")
	return nil
}
