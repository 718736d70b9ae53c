package smbfs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	provErrors "github.com/javi11/smbvfs/internal/errors"
	"github.com/javi11/smbvfs/internal/smb"
	"github.com/javi11/smbvfs/internal/smb/smbtest"
)

func newTestManager(backend *smbtest.Backend, share string, auth smb.AuthenticationContext) *ShareManager {
	return NewShareManager(NewSessionFactory(backend.Client()), "host", share, auth)
}

func TestShareManager_LazyAndReused(t *testing.T) {
	ctx := context.Background()
	backend := smbtest.NewBackend("share")
	m := newTestManager(backend, "share", smb.AuthenticationContext{Username: "user", Password: "pass"})

	assert.Equal(t, ShareAbsent, m.State())
	assert.Zero(t, backend.Calls(smbtest.OpConnect), "nothing is dialled before first use")

	first, err := m.Share(ctx)
	require.NoError(t, err)
	second, err := m.Share(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, ShareLive, m.State())
	assert.Equal(t, 1, backend.Calls(smbtest.OpConnect))
	assert.Equal(t, 1, backend.Calls(smbtest.OpConnectShare))
}

func TestShareManager_ReconnectsWhenStale(t *testing.T) {
	ctx := context.Background()
	backend := smbtest.NewBackend("share")
	m := newTestManager(backend, "share", smb.Anonymous())

	first, err := m.Share(ctx)
	require.NoError(t, err)

	backend.Disconnect()
	assert.Equal(t, ShareStale, m.State())

	second, err := m.Share(ctx)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, second.IsConnected())
	assert.Equal(t, ShareLive, m.State())
	assert.Equal(t, 2, backend.Calls(smbtest.OpConnect))
}

func TestShareManager_ConnectFailure(t *testing.T) {
	ctx := context.Background()
	backend := smbtest.NewBackend("share")
	errRefused := errors.New("connection refused")
	backend.Fail(smbtest.OpConnect, smbtest.AnyPath, errRefused)

	m := newTestManager(backend, "share", smb.Anonymous())

	_, err := m.Share(ctx)
	var connErr *provErrors.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "host", connErr.Host)
	assert.ErrorIs(t, err, errRefused)

	assert.Equal(t, 1, backend.Calls(smbtest.OpConnect), "a single attempt per call")
	assert.Equal(t, ShareAbsent, m.State())

	backend.ClearFailures()
	_, err = m.Share(ctx)
	require.NoError(t, err, "the next call connects again")
	assert.Equal(t, 2, backend.Calls(smbtest.OpConnect))
}

func TestShareManager_AuthenticationFailure(t *testing.T) {
	backend := smbtest.NewBackend("share")
	backend.Fail(smbtest.OpAuthenticate, smbtest.AnyPath, smb.NewStatusError("session setup", "", smb.StatusLogonFailure))

	m := newTestManager(backend, "share", smb.AuthenticationContext{Username: "user", Password: "wrong"})

	_, err := m.Share(context.Background())
	assert.True(t, provErrors.IsConnectionError(err))
}

func TestShareManager_UnknownShare(t *testing.T) {
	backend := smbtest.NewBackend("share")
	m := newTestManager(backend, "other", smb.Anonymous())

	_, err := m.Share(context.Background())
	require.Error(t, err)

	status, ok := smb.StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, smb.StatusBadNetworkName, status)
	assert.False(t, provErrors.IsConnectionError(err))
}

func TestShareManager_Authentication(t *testing.T) {
	tests := []struct {
		name string
		auth smb.AuthenticationContext
		want smb.AuthenticationContext
	}{
		{
			name: "credentials",
			auth: smb.AuthenticationContext{Username: "user", Password: "pass", Domain: "CORP"},
			want: smb.AuthenticationContext{Username: "user", Password: "pass", Domain: "CORP"},
		},
		{
			name: "empty username is anonymous",
			auth: smb.AuthenticationContext{Password: "ignored"},
			want: smb.Anonymous(),
		},
		{
			name: "blank username is anonymous",
			auth: smb.AuthenticationContext{Username: "  ", Password: "ignored", Domain: "CORP"},
			want: smb.Anonymous(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := smbtest.NewBackend("share")
			m := newTestManager(backend, "share", tt.auth)

			_, err := m.Share(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []smb.AuthenticationContext{tt.want}, backend.Authentications())
		})
	}
}

func TestShareManager_ConcurrentConnect(t *testing.T) {
	backend := smbtest.NewBackend("share")
	m := newTestManager(backend, "share", smb.Anonymous())

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Share(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, backend.Calls(smbtest.OpConnect))
}

func TestShareManager_Close(t *testing.T) {
	ctx := context.Background()
	backend := smbtest.NewBackend("share")
	m := newTestManager(backend, "share", smb.Anonymous())

	require.NoError(t, m.Close(), "closing an unused manager is a no-op")

	share, err := m.Share(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	assert.False(t, share.IsConnected())
	assert.Equal(t, ShareAbsent, m.State())
}
