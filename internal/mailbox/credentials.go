package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/joseph-ayodele/refcue/internal/common"
)

// Scopes requested for the mailbox credential. Read-only is enough.
var Scopes = []string{gmail.GmailReadonlyScope}

func authError(message string, cause error) error {
	return common.NewAppError("AUTH", message, fmt.Errorf("%w: %w", common.ErrAuth, cause))
}

// LoadOAuthConfig reads an installed-app client secret file.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, authError("read client credentials "+credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, authError("parse client credentials "+credentialsFile, err)
	}
	return cfg, nil
}

// LoadToken reads a token previously written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, authError("read token "+path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, authError("parse token "+path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, authError("token "+path+" is empty", errors.New("no access or refresh token"))
	}
	return &tok, nil
}

// SaveToken writes tok as JSON, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// TokenSource returns an auto-refreshing token source for the stored
// credential. Refreshed tokens are written back to tokenFile.
func TokenSource(ctx context.Context, credentialsFile, tokenFile string, logger *slog.Logger) (oauth2.TokenSource, error) {
	cfg, err := LoadOAuthConfig(credentialsFile)
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return NewPersistingTokenSource(cfg.TokenSource(ctx, tok), tok, tokenFile, logger), nil
}

// PersistingTokenSource saves every new token its base source hands out.
type PersistingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func NewPersistingTokenSource(base oauth2.TokenSource, current *oauth2.Token, path string, logger *slog.Logger) *PersistingTokenSource {
	p := &PersistingTokenSource{base: base, path: path, logger: logger}
	if current != nil {
		p.last = current.AccessToken
	}
	return p
}

func (p *PersistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, authError("refresh mailbox token", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		if err := SaveToken(p.path, tok); err != nil {
			// The refreshed token still works for this process.
			p.logger.Warn("failed to persist refreshed token", "path", p.path, "error", err)
		} else {
			p.logger.Info("mailbox token refreshed", "expiry", tok.Expiry)
		}
		p.last = tok.AccessToken
	}
	return tok, nil
}
