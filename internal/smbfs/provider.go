package smbfs

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/javi11/smbvfs/internal/slogutil"
	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/vfs"
)

// Credentials are authentication data supplied by an Authenticator.
type Credentials struct {
	Username string
	Password string
	Domain   string
}

// Authenticator supplies credentials for a root, typically by prompting. Returning nil
// credentials falls back to those embedded in the URI.
type Authenticator interface {
	Credentials(ctx context.Context, root *FileName) (*Credentials, error)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	CacheSize int
	// DefaultDomain is used when credentials carry a username but no domain.
	DefaultDomain string
	Authenticator Authenticator
}

// Provider turns smb:// URIs into nodes. It keeps one FileSystem per root URI, so
// every node of one share seen with one set of credentials shares a connection.
type Provider struct {
	client smb.Client
	cfg    ProviderConfig

	mu      sync.Mutex
	systems map[string]*FileSystem

	log *slog.Logger
}

// NewProvider creates a provider connecting through client.
func NewProvider(client smb.Client, cfg ProviderConfig) *Provider {
	return &Provider{
		client:  client,
		cfg:     cfg,
		systems: make(map[string]*FileSystem),
		log:     slog.Default().With("component", "smb-provider"),
	}
}

// ResolveFile parses uri and returns its node.
func (p *Provider) ResolveFile(ctx context.Context, uri string) (vfs.FileObject, error) {
	name, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	fs, err := p.FileSystem(ctx, name)
	if err != nil {
		return nil, err
	}
	return fs.ResolveFile(ctx, name)
}

// FileSystem returns the filesystem of name's root, creating it on first use.
func (p *Provider) FileSystem(ctx context.Context, name *FileName) (*FileSystem, error) {
	key := name.RootURI()

	p.mu.Lock()
	defer p.mu.Unlock()

	if fs, ok := p.systems[key]; ok {
		return fs, nil
	}

	auth, err := p.credentials(ctx, name.Root())
	if err != nil {
		return nil, err
	}

	fs := NewFileSystem(name, p.client, auth, Options{CacheSize: p.cfg.CacheSize})
	p.systems[key] = fs

	p.log.DebugContext(slogutil.With(ctx, "fs_id", fs.ID()), "Created filesystem", "root", name.Root().FriendlyURI())
	return fs, nil
}

// credentials resolves the session credentials once per filesystem: prompted data
// wins, otherwise those of the URI.
func (p *Provider) credentials(ctx context.Context, root *FileName) (smb.AuthenticationContext, error) {
	auth := smb.AuthenticationContext{
		Username: root.Username(),
		Password: root.Password(),
		Domain:   root.Domain(),
	}

	if p.cfg.Authenticator != nil {
		creds, err := p.cfg.Authenticator.Credentials(ctx, root)
		if err != nil {
			return smb.AuthenticationContext{}, err
		}
		if creds != nil {
			auth = smb.AuthenticationContext{
				Username: creds.Username,
				Password: creds.Password,
				Domain:   creds.Domain,
			}
		}
	}

	if strings.TrimSpace(auth.Username) == "" {
		return smb.Anonymous(), nil
	}
	if auth.Domain == "" {
		auth.Domain = p.cfg.DefaultDomain
	}
	return auth, nil
}

// Close closes every filesystem created by the provider.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for key, fs := range p.systems {
		errs = append(errs, fs.Close())
		delete(p.systems, key)
	}
	return errors.Join(errs...)
}
