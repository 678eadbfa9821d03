package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/plotta/internal/credential"
)

// authCmd manages the credentials kept in the system keyring.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your session and AI key",
	Long: `Manage the credentials Plotta keeps in the system keyring.

Available subcommands:
  status        - Show the session identity and whether an AI key is stored
  set-ai-key    - Store the Anthropic API key used by the AI assistant
  clear-ai-key  - Remove the stored API key`,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session identity and AI key state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, err := credential.Open()
		if err != nil {
			return err
		}
		session, err := vault.Session()
		if err != nil {
			return err
		}
		fmt.Printf("user:   %s\n", session.UserID)
		if session.Email != "" {
			fmt.Printf("email:  %s\n", session.Email)
		}

		switch _, err := vault.Get(credential.KeyAIAPIKey); {
		case os.Getenv("ANTHROPIC_API_KEY") != "":
			fmt.Println("ai key: from ANTHROPIC_API_KEY")
		case err == nil:
			fmt.Println("ai key: stored in keyring")
		case errors.Is(err, keyring.ErrKeyNotFound):
			fmt.Println("ai key: not configured")
		default:
			return err
		}
		return nil
	},
}

var authSetAIKeyCmd = &cobra.Command{
	Use:   "set-ai-key",
	Short: "Store the Anthropic API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var apiKey string
		err := huh.NewInput().
			Title("Anthropic API key").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("key must not be empty")
				}
				return nil
			}).
			Value(&apiKey).
			Run()
		if err != nil {
			return err
		}

		vault, err := credential.Open()
		if err != nil {
			return err
		}
		if err := vault.Set(credential.KeyAIAPIKey, strings.TrimSpace(apiKey)); err != nil {
			return err
		}
		fmt.Println("AI key saved.")
		return nil
	},
}

var authClearAIKeyCmd = &cobra.Command{
	Use:   "clear-ai-key",
	Short: "Remove the stored Anthropic API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		vault, err := credential.Open()
		if err != nil {
			return err
		}
		if err := vault.Delete(credential.KeyAIAPIKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
		fmt.Println("AI key removed.")
		return nil
	},
}

func init() {
	authCmd.AddCommand(authStatusCmd, authSetAIKeyCmd, authClearAIKeyCmd)
}
