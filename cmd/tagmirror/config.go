package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tagmirror/pkg/config"
)

const configTemplate = `# tagmirror configuration

# The local Mastodon server statuses are imported into.
server: mastodon.example.com

# Credentials from 'tagmirror register' and 'tagmirror login'. Leave this
# section out to use the system keychain instead.
auth:
  client_id: ''
  client_secret: ''
  token: ''

# Hashtags to mirror and the remote servers to fetch them from.
hashtags:
  - name: example
    sources:
      - other.example.com
    # any:
    #   - alternatespelling

# Rate budgets. The defaults are deliberately conservative; raise them only
# if you run the servers involved.
rates:
  queries_per_minute: 1
  upstream_imports_per_hour: 5
  imports_per_hour: 20
  passes_per_hour: 4
  pass_delay: 5m

http:
  timeout: 20s

logging:
  level: info
  # file: /var/log/tagmirror.log
`

// configCmd groups the configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = config.DefaultPath()
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}

		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
		}
		if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Printf("Wrote %s\n", path)
		fmt.Println("Edit it to set your server and hashtags, then run 'tagmirror run'.")
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file for errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("configuration is invalid: %w", err)
		}

		fmt.Printf("Configuration is valid: %d hashtag(s) syncing into %s\n",
			len(cfg.Hashtags), cfg.Server)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
