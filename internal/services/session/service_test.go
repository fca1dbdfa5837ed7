package session_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
	"axolotl/internal/metrics"
	"axolotl/internal/relay"
	"axolotl/internal/services/identity"
	"axolotl/internal/services/prekey"
	sessionsvc "axolotl/internal/services/session"
	"axolotl/internal/session"
	"axolotl/internal/store"
)

const pass = "Correct-Horse-9"

func setup(t *testing.T) (alice *sessionsvc.Service, aliceStore *store.Memory, bobFP domain.Fingerprint) {
	t.Helper()
	srv := httptest.NewServer(relay.NewServer(relay.ServerConfig{MaxQueue: 10, MaxPreKeys: 100}, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	rc := relay.NewClient(srv.URL, srv.Client(), zerolog.Nop())

	kdf := store.WithKDFParams(store.KDFParams{N: 1 << 10, R: 8, P: 1})
	bobStore := store.NewMemory(kdf)
	_, fp, err := identity.New(bobStore, zerolog.Nop()).GenerateIdentity(pass)
	require.NoError(t, err)
	_, err = prekey.New(bobStore, bobStore, bobStore, rc, "", zerolog.Nop()).RegisterPreKeys(context.Background(), pass, "bob", 2)
	require.NoError(t, err)

	aliceStore = store.NewMemory(kdf)
	_, _, err = identity.New(aliceStore, zerolog.Nop()).GenerateIdentity(pass)
	require.NoError(t, err)
	alice = sessionsvc.New(aliceStore, aliceStore, rc, metrics.New(nil), zerolog.Nop(), session.WithMaxSessionStates(2))
	return alice, aliceStore, fp
}

func TestInitiateSession(t *testing.T) {
	alice, ks, bobFP := setup(t)

	info, err := alice.InitiateSession(context.Background(), pass, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.Username("bob"), info.Peer)
	assert.Equal(t, bobFP, info.RemoteFingerprint)
	assert.True(t, info.PendingPreKey)
	assert.Equal(t, 1, info.States)
	assert.Len(t, info.SessionTag, 32)

	_, ok, err := ks.LoadSession("bob")
	require.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := alice.GetSession(pass, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, info, got)
}

func TestInitiateSession_ReplacesExisting(t *testing.T) {
	alice, _, _ := setup(t)
	ctx := context.Background()

	first, err := alice.InitiateSession(ctx, pass, "bob")
	require.NoError(t, err)
	second, err := alice.InitiateSession(ctx, pass, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionTag, second.SessionTag)
	assert.Equal(t, 1, second.States)
}

func TestInitiateSession_UnknownPeer(t *testing.T) {
	alice, _, _ := setup(t)
	_, err := alice.InitiateSession(context.Background(), pass, "carol")
	require.ErrorIs(t, err, relay.ErrNotFound)
}

func TestGetSession_Missing(t *testing.T) {
	alice, _, _ := setup(t)
	_, ok, err := alice.GetSession(pass, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListSessions(t *testing.T) {
	alice, _, bobFP := setup(t)
	_, err := alice.InitiateSession(context.Background(), pass, "bob")
	require.NoError(t, err)

	infos, err := alice.ListSessions(pass)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, bobFP, infos[0].RemoteFingerprint)
}

func TestLoadSession_LocalIdentityChanged(t *testing.T) {
	alice, _, _ := setup(t)
	_, err := alice.InitiateSession(context.Background(), pass, "bob")
	require.NoError(t, err)

	other, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	_, _, err = alice.LoadSession(other, "bob")
	require.ErrorIs(t, err, session.ErrLocalIdentityChanged)
}
