package smbfs

import (
	"context"
	"log/slog"
	"strings"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/slogutil"
	"github.com/javi11/smbvfs/internal/smb"
)

// SessionFactory connects to a server and sets up an authenticated session.
type SessionFactory struct {
	client smb.Client
	log    *slog.Logger
}

// NewSessionFactory creates a factory dialing through client.
func NewSessionFactory(client smb.Client) *SessionFactory {
	return &SessionFactory{
		client: client,
		log:    slog.Default().With("component", "smb-session"),
	}
}

// Open connects to address and authenticates with auth. A blank username
// authenticates anonymously. Failures are reported as a ConnectionError for address.
func (f *SessionFactory) Open(ctx context.Context, address string, auth smb.AuthenticationContext) (smb.Session, error) {
	if strings.TrimSpace(auth.Username) == "" {
		auth = smb.Anonymous()
	}

	ctx = slogutil.With(ctx, "host", address, "user", auth.Username, "domain", auth.Domain)

	conn, err := f.client.Connect(ctx, address)
	if err != nil {
		f.log.DebugContext(ctx, "Connect failed", "err", err)
		return nil, provErrors.NewConnectionError(address, err)
	}

	session, err := conn.Authenticate(ctx, auth)
	if err != nil {
		f.log.DebugContext(ctx, "Authentication failed", "err", err)
		if cerr := conn.Close(); cerr != nil {
			f.log.DebugContext(ctx, "Failed to close connection", "err", cerr)
		}
		return nil, provErrors.NewConnectionError(address, err)
	}

	f.log.DebugContext(ctx, "Session established", "anonymous", auth.IsAnonymous())
	return session, nil
}
