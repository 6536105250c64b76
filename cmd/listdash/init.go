package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	initAdminEmail    string
	initAdminPassword string
	initListenAddr    string
	initBaseURL       string
	initDataDir       string
	initAPIKey        string
	initOutput        string
	initMetrics       bool
	initForce         bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize listdash configuration",
	Long: `Create a listdash configuration file with a superuser account, a
generated API key and a generated CSRF secret.

Examples:
  # Interactive mode - prompts for missing values
  listdash init

  # Non-interactive
  listdash init --admin-email admin@example.com -o listdash.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAdminEmail, "admin-email", "", "Superuser email")
	initCmd.Flags().StringVar(&initAdminPassword, "admin-password", "", "Superuser password (auto-generated if not provided)")
	initCmd.Flags().StringVar(&initListenAddr, "listen", ":8080", "Dashboard listen address")
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "", "Public URL prefix for navigation links")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "/var/lib/listdash", "Data directory")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "Admin API key (auto-generated if not provided)")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "Output configuration file path")
	initCmd.Flags().BoolVar(&initMetrics, "metrics", false, "Enable Prometheus metrics")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("listdash Configuration Wizard")
	fmt.Println("=============================")
	fmt.Println()

	if initAdminEmail == "" {
		initAdminEmail = prompt(reader, "Superuser email", "")
		if initAdminEmail == "" {
			return fmt.Errorf("superuser email is required")
		}
	}

	initDataDir = prompt(reader, "Data directory", initDataDir)

	if initAdminPassword == "" {
		initAdminPassword = generateRandomString(16)
		fmt.Printf("  Generated superuser password: %s\n", initAdminPassword)
	}
	if initAPIKey == "" {
		initAPIKey = generateRandomString(32)
		fmt.Printf("  Generated API key: %s\n", initAPIKey)
	}

	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", initOutput)
		}
	}

	hash, err := hashPassword(initAdminPassword)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(initDataDir, 0755); err != nil {
		fmt.Printf("  Warning: Could not create data directory: %v\n", err)
	}

	if err := os.WriteFile(initOutput, []byte(generateConfig(hash, generateRandomString(64))), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("  Configuration saved to: %s\n", initOutput)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  listdash -c %s domain add example.com https://example.com\n", initOutput)
	fmt.Printf("  listdash -c %s list create announce@example.com\n", initOutput)
	fmt.Printf("  listdash -c %s serve\n", initOutput)
	return nil
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

func generateRandomString(length int) string {
	bytes := make([]byte, length/2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateConfig(passwordHash, csrfSecret string) string {
	host := initListenAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}

	return fmt.Sprintf(`# listdash configuration
server:
  listen_addr: "%s"
  base_url: "%s"

api:
  api_key: "%s"

storage:
  path: "%s"

logging:
  level: info
  format: json

metrics:
  enabled: %t
  listen_addr: ":9090"
  path: /metrics

dashboard:
  stats_days: 31
  sync_interval: 1m
  csrf_secret: "%s"

users:
  - email: "%s"
    password_hash: "%s"
    superuser: true

# Used by the search, stats and top commands
client:
  dashboard_url: "http://%s/dashboard"
  email: "%s"
  timeout: 10s
`,
		initListenAddr, initBaseURL,
		initAPIKey,
		filepath.Join(initDataDir, "listdash.db"),
		initMetrics,
		csrfSecret,
		initAdminEmail, passwordHash,
		host, initAdminEmail,
	)
}
