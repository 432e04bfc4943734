package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yanqian/clearday/internal/domain/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Issue a development bearer token",
	Long: `Sign a bearer token for USER_ID with the service secret. The secret is read
from AUTH_SECRET, or prompted for when stdin is a terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

var (
	tokenTTL    time.Duration
	tokenIssuer string
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	tokenCmd.Flags().StringVar(&tokenIssuer, "issuer", "clearday", "token issuer, must match auth.issuer of the service")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret, err := readSecret(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc := auth.NewService(auth.Config{Secret: secret, TokenTTL: tokenTTL, Issuer: tokenIssuer},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	token, err := svc.IssueToken(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func readSecret(prompt io.Writer) (string, error) {
	if secret := strings.TrimSpace(os.Getenv("AUTH_SECRET")); secret != "" {
		return secret, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("AUTH_SECRET is not set")
	}
	fmt.Fprint(prompt, "Auth secret: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	return secret, nil
}
