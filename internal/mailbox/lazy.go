package mailbox

import (
	"context"
	"log/slog"
	"sync"
)

// FileClient builds a GmailClient from the credential files on first use,
// so a missing token surfaces as ErrAuth on sync rather than at startup.
// A failed build is retried on the next call.
type FileClient struct {
	CredentialsFile string
	TokenFile       string
	logger          *slog.Logger

	mu     sync.Mutex
	client *GmailClient
}

func NewFileClient(credentialsFile, tokenFile string, logger *slog.Logger) *FileClient {
	return &FileClient{CredentialsFile: credentialsFile, TokenFile: tokenFile, logger: logger}
}

func (f *FileClient) get(ctx context.Context) (*GmailClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client, nil
	}
	// The token source outlives this request, so it must not inherit ctx.
	c, err := NewGmailClientFromFiles(context.WithoutCancel(ctx), f.CredentialsFile, f.TokenFile, f.logger)
	if err != nil {
		f.logger.Error("mailbox credential unavailable", "credentials_file", f.CredentialsFile, "token_file", f.TokenFile, "error", err)
		return nil, err
	}
	f.client = c
	return c, nil
}

func (f *FileClient) Search(ctx context.Context, query string, maxResults int) ([]RawMessage, error) {
	c, err := f.get(ctx)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, query, maxResults)
}

// Profile returns the authenticated account's address.
func (f *FileClient) Profile(ctx context.Context) (string, error) {
	c, err := f.get(ctx)
	if err != nil {
		return "", err
	}
	return c.Profile(ctx)
}
