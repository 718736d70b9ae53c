package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/avast/retry-go/v4"

	"github.com/javi11/smbvfs/internal/config"
	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/smbfs"
	"github.com/javi11/smbvfs/internal/vfs"
	"github.com/javi11/smbvfs/internal/vfs/aferofs"
)

// app is the state shared by the commands of one invocation.
type app struct {
	opts Options

	configFile string
	logLevel   string

	manager  *config.Manager
	provider *smbfs.Provider
	log      *slog.Logger
}

func (a *app) config() *config.Config {
	return a.manager.GetConfig()
}

// smbProvider returns the provider, creating it on first use.
func (a *app) smbProvider() *smbfs.Provider {
	if a.provider != nil {
		return a.provider
	}

	cfg := a.config()

	var client smb.Client
	if a.opts.Client != nil {
		client = a.opts.Client(cfg)
	} else {
		client = smb.NewSmb2Client(smb.Smb2Options{
			DialTimeout: cfg.GetDialTimeout(),
			Port:        cfg.GetPort(),
		})
	}

	pcfg := smbfs.ProviderConfig{
		CacheSize:     cfg.GetCacheSize(),
		DefaultDomain: cfg.SMB.DefaultDomain,
	}
	if cfg.PromptEnabled() {
		pcfg.Authenticator = a.opts.authenticator()
	}

	a.provider = smbfs.NewProvider(client, pcfg)
	return a.provider
}

func (a *app) local() *aferofs.FileSystem {
	if a.opts.Local == nil {
		a.opts.Local = aferofs.NewOs()
	}
	return a.opts.Local
}

// resolve maps an argument to a node: smb:// URIs go to the SMB provider, anything
// else is a local path.
func (a *app) resolve(ctx context.Context, arg string) (vfs.FileObject, error) {
	if isSMB(arg) {
		return a.smbProvider().ResolveFile(ctx, arg)
	}

	abs, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local path %s: %w", arg, err)
	}
	return a.local().Resolve(ctx, filepath.ToSlash(abs))
}

// resolveRemote is resolve restricted to smb:// URIs.
func (a *app) resolveRemote(ctx context.Context, arg string) (vfs.FileObject, error) {
	if !isSMB(arg) {
		return nil, fmt.Errorf("%s is not an %s:// URI", arg, smbfs.Scheme)
	}
	return a.smbProvider().ResolveFile(ctx, arg)
}

// withRetry runs fn again while it fails with a retryable error, such as a dropped
// connection. The filesystem reconnects on the next call by itself.
func (a *app) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	cfg := a.config()

	return retry.Do(
		func() error {
			return fn(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.GetRetryAttempts()),
		retry.Delay(cfg.GetRetryDelay()),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(provErrors.IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			a.log.WarnContext(ctx, "Operation failed, retrying", "op", op, "attempt", n+1, "err", err)
		}),
	)
}

// close releases every connection opened by the invocation.
func (a *app) close() error {
	if a.provider == nil {
		return nil
	}
	return a.provider.Close()
}

func isSMB(arg string) bool {
	return strings.HasPrefix(strings.ToLower(arg), smbfs.Scheme+"://")
}

// displayName is the name shown for a node in listings and messages.
func displayName(f vfs.FileObject) string {
	return f.Name().FriendlyURI()
}
