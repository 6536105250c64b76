package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Dashboard account commands",
}

var userHashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for the users section of the config",
	RunE:  runUserHashPassword,
}

var userPassword string

func init() {
	userHashPasswordCmd.Flags().StringVar(&userPassword, "password", "", "Password (will prompt if not provided)")

	userCmd.AddCommand(userHashPasswordCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserHashPassword(cmd *cobra.Command, args []string) error {
	password := userPassword
	if password == "" {
		fmt.Fprint(os.Stderr, "Enter password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)

		fmt.Fprint(os.Stderr, "Confirm password: ")
		pw2, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)

		if string(pw) != string(pw2) {
			return fmt.Errorf("passwords do not match")
		}
		password = string(pw)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < 10 {
		return "", fmt.Errorf("password must be at least 10 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
