package main

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tagmirror/pkg/auth"
	"tagmirror/pkg/logger"
	"tagmirror/pkg/mastodon"
)

var authServer string

// registerCmd represents the one-time application registration
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this application on your Mastodon server",
	Long: `Register tagmirror as an application on your Mastodon server.

This is a one-time setup step. The returned client credentials are saved
to the system keychain (or an encrypted file if no keychain is available)
and printed so you can keep them in the config file instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := resolveServer()
		if err != nil {
			return err
		}

		client := mastodon.NewClient(20*time.Second, logger.GetLogger())
		creds, err := client.RegisterApp(context.Background(), server)
		if err != nil {
			return fmt.Errorf("application registration failed: %w", err)
		}

		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		if err := manager.Store(&auth.Credentials{
			Server:       server,
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
		}); err != nil {
			fmt.Printf("Warning: could not save credentials: %v\n", err)
		}

		fmt.Println("Application registered. To keep the credentials in your config file, add:")
		fmt.Println()
		fmt.Printf("server: %s\n", server)
		fmt.Println("auth:")
		fmt.Printf("  client_id: '%s'\n", creds.ClientID)
		fmt.Printf("  client_secret: '%s'\n", creds.ClientSecret)
		fmt.Println()
		fmt.Println("Next: run 'tagmirror login' to authorize your account.")
		return nil
	},
}

// loginCmd represents the one-time OAuth authorization
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize tagmirror against your account and store the access token",
	Long: `Complete the out-of-band OAuth flow: open the printed link in a browser,
grant read access, then paste the code your server shows you.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := resolveServer()
		if err != nil {
			return err
		}

		manager, err := auth.NewManager()
		if err != nil {
			return err
		}
		creds, err := manager.Retrieve(server)
		if err != nil {
			return fmt.Errorf("no client credentials for %s: %w (run 'tagmirror register' first)", server, err)
		}

		fmt.Println("Open this link in your web browser to give the app read permission from your user account:")
		fmt.Println()
		fmt.Println(mastodon.AuthorizeURL(server, creds.ClientID))
		fmt.Println()

		code, err := readSecret("Paste the code your server gave you: ")
		if err != nil {
			return err
		}

		client := mastodon.NewClient(20*time.Second, logger.GetLogger())
		token, err := client.ExchangeCode(context.Background(), server, creds.ClientID, creds.ClientSecret, code)
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}

		creds.AccessToken = token
		if err := manager.Store(creds); err != nil {
			fmt.Printf("Warning: could not save token: %v\n", err)
		}

		fmt.Println("Access token stored. To keep it in your config file instead, add:")
		fmt.Println()
		fmt.Println("auth:")
		fmt.Printf("  token: '%s'\n", token)
		return nil
	},
}

// resolveServer returns the --server flag value or prompts for it
func resolveServer() (string, error) {
	server := strings.TrimSpace(authServer)
	if server == "" {
		var err error
		server, err = readLine("Enter your Mastodon server domain name: ")
		if err != nil {
			return "", err
		}
	}
	if server == "" {
		return "", fmt.Errorf("server domain is required")
	}
	if _, err := url.Parse("https://" + server + "/"); err != nil {
		return "", fmt.Errorf("%s is not a valid domain: %w", server, err)
	}
	return server, nil
}

// readLine prompts and reads one trimmed line from stdin
func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("unable to read stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo when stdin is a terminal
func readSecret(prompt string) (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Print(prompt)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("unable to read input: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return readLine(prompt)
}

func init() {
	registerCmd.Flags().StringVar(&authServer, "server", "", "Mastodon server domain")
	loginCmd.Flags().StringVar(&authServer, "server", "", "Mastodon server domain")
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
}
