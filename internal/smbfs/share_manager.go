package smbfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/javi11/smbvfs/internal/slogutil"
	"github.com/javi11/smbvfs/internal/smb"
)

// ShareState is the state of the connection held by a ShareManager.
type ShareState int

const (
	// ShareAbsent means no share handle is held.
	ShareAbsent ShareState = iota
	// ShareLive means the held handle reports connected.
	ShareLive
	// ShareStale means the held handle reports disconnected.
	ShareStale
)

func (s ShareState) String() string {
	switch s {
	case ShareLive:
		return "live"
	case ShareStale:
		return "stale"
	default:
		return "absent"
	}
}

// ShareManager holds at most one connected share per filesystem and reconnects
// when the share is absent or stale. One connect attempt is made per call.
type ShareManager struct {
	mu sync.Mutex

	sessions  *SessionFactory
	address   string
	shareName string
	auth      smb.AuthenticationContext

	session smb.Session
	share   smb.Share

	log *slog.Logger
}

// NewShareManager creates a manager for shareName on address. Nothing is dialled until
// the first call to Share.
func NewShareManager(sessions *SessionFactory, address, shareName string, auth smb.AuthenticationContext) *ShareManager {
	return &ShareManager{
		sessions:  sessions,
		address:   address,
		shareName: shareName,
		auth:      auth,
		log:       slog.Default().With("component", "share-manager", "host", address, "share", shareName),
	}
}

// Share returns a live share handle, connecting first when needed.
func (m *ShareManager) Share(ctx context.Context) (smb.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.stateLocked() {
	case ShareLive:
		return m.share, nil
	case ShareStale:
		m.log.InfoContext(ctx, "Share connection lost, reconnecting")
		m.releaseLocked(ctx)
	}

	return m.connectLocked(ctx)
}

// State reports the current connection state.
func (m *ShareManager) State() ShareState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Close disconnects the share and logs off. The next call to Share reconnects.
func (m *ShareManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.share == nil && m.session == nil {
		return nil
	}

	var errs []error
	if m.share != nil {
		errs = append(errs, m.share.Close())
	}
	if m.session != nil {
		errs = append(errs, m.session.Logoff())
	}
	m.share, m.session = nil, nil

	return errors.Join(errs...)
}

func (m *ShareManager) stateLocked() ShareState {
	switch {
	case m.share == nil:
		return ShareAbsent
	case m.share.IsConnected():
		return ShareLive
	default:
		return ShareStale
	}
}

// connectLocked is the only transition into ShareLive.
func (m *ShareManager) connectLocked(ctx context.Context) (smb.Share, error) {
	session, err := m.sessions.Open(ctx, m.address, m.auth)
	if err != nil {
		return nil, err
	}

	share, err := session.ConnectShare(ctx, m.shareName)
	if err != nil {
		if lerr := session.Logoff(); lerr != nil {
			m.log.DebugContext(ctx, "Failed to log off after share connect failure", "err", lerr)
		}
		return nil, fmt.Errorf("failed to connect share %q on %q: %w", m.shareName, m.address, err)
	}

	m.session, m.share = session, share
	m.log.InfoContext(ctx, "Connected to share")

	return share, nil
}

// releaseLocked drops a stale handle. Teardown of a dead transport is best effort.
func (m *ShareManager) releaseLocked(ctx context.Context) {
	ctx = slogutil.With(ctx, "state", ShareStale.String())

	if err := m.share.Close(); err != nil {
		m.log.DebugContext(ctx, "Failed to close stale share", "err", err)
	}
	if m.session != nil {
		if err := m.session.Logoff(); err != nil {
			m.log.DebugContext(ctx, "Failed to log off stale session", "err", err)
		}
	}
	m.share, m.session = nil, nil
}
