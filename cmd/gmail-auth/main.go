package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/mailbox"
)

// gmail-auth runs the one-time consent flow and writes the token file the
// daemon and refcue-sync read.
func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log)

	oauthCfg, err := mailbox.LoadOAuthConfig(cfg.Gmail.CredentialsFile)
	if err != nil {
		logger.Error("failed to load client credentials", "path", cfg.Gmail.CredentialsFile, "error", err)
		os.Exit(1)
	}

	url := oauthCfg.AuthCodeURL("refcue", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open this URL in a browser and authorize access:\n\n%s\n\nPaste the authorization code: ", url)
	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		logger.Error("failed to read authorization code", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	tok, err := oauthCfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		logger.Error("failed to exchange authorization code", "error", err)
		os.Exit(1)
	}
	if err := mailbox.SaveToken(cfg.Gmail.TokenFile, tok); err != nil {
		logger.Error("failed to save token", "path", cfg.Gmail.TokenFile, "error", err)
		os.Exit(1)
	}

	client, err := mailbox.NewGmailClient(ctx, logger, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		logger.Error("failed to create gmail client", "error", err)
		os.Exit(1)
	}
	email, err := client.Profile(ctx)
	if err != nil {
		logger.Error("token saved but profile lookup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("token saved", "path", cfg.Gmail.TokenFile, "account", email)
	fmt.Printf("Authorized %s. Token written to %s\n", email, cfg.Gmail.TokenFile)
}
