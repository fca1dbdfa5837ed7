package message_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/domain"
	"axolotl/internal/message"
	"axolotl/internal/metrics"
	"axolotl/internal/relay"
	"axolotl/internal/services/identity"
	messagesvc "axolotl/internal/services/message"
	"axolotl/internal/services/prekey"
	sessionsvc "axolotl/internal/services/session"
	"axolotl/internal/session"
	"axolotl/internal/store"
)

const pass = "Correct-Horse-9"

type party struct {
	name     domain.Username
	ks       *store.Memory
	reg      *prometheus.Registry
	prekeys  *prekey.Service
	sessions *sessionsvc.Service
	messages *messagesvc.Service
}

func newRelay(t *testing.T) *relay.Client {
	t.Helper()
	srv := httptest.NewServer(relay.NewServer(relay.ServerConfig{MaxQueue: 100, MaxPreKeys: 100}, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return relay.NewClient(srv.URL, srv.Client(), zerolog.Nop())
}

func newParty(t *testing.T, rc *relay.Client, name domain.Username, opts ...session.Option) *party {
	t.Helper()
	ks := store.NewMemory(store.WithKDFParams(store.KDFParams{N: 1 << 10, R: 8, P: 1}))
	_, _, err := identity.New(ks, zerolog.Nop()).GenerateIdentity(pass)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := &party{name: name, ks: ks, reg: reg}
	p.prekeys = prekey.New(ks, ks, ks, rc, "", zerolog.Nop())
	p.sessions = sessionsvc.New(ks, ks, rc, m, zerolog.Nop(), opts...)
	p.messages = messagesvc.New(ks, p.prekeys, p.sessions, rc, m, zerolog.Nop())

	_, err = p.prekeys.RegisterPreKeys(context.Background(), pass, name, 5)
	require.NoError(t, err)
	return p
}

func (p *party) send(t *testing.T, to *party, text string) {
	t.Helper()
	require.NoError(t, p.messages.SendMessage(context.Background(), pass, p.name, to.name, []byte(text)))
}

func (p *party) recv(t *testing.T) []string {
	t.Helper()
	msgs, err := p.messages.ReceiveMessage(context.Background(), pass, p.name, 0)
	require.NoError(t, err)
	return texts(msgs)
}

func texts(msgs []domain.DecryptedMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Plaintext)
	}
	return out
}

func counter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	var v float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			v += m.GetCounter().GetValue()
		}
	}
	return v
}

func TestConversation(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")

	alice.send(t, bob, "hello bob")
	alice.send(t, bob, "are you there")
	assert.Equal(t, []string{"hello bob", "are you there"}, bob.recv(t))

	bob.send(t, alice, "hi alice")
	assert.Equal(t, []string{"hi alice"}, alice.recv(t))

	alice.send(t, bob, "great")
	bob.send(t, alice, "crossing")
	assert.Equal(t, []string{"great"}, bob.recv(t))
	assert.Equal(t, []string{"crossing"}, alice.recv(t))

	assert.Empty(t, bob.recv(t), "queue is acked")

	info, ok, err := alice.sessions.GetSession(pass, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, info.PendingPreKey)

	assert.Equal(t, 3.0, counter(t, alice.reg, "axolotl_messages_encrypted_total"))
	assert.Equal(t, 3.0, counter(t, bob.reg, "axolotl_messages_decrypted_total"))
	assert.Equal(t, 1.0, counter(t, alice.reg, "axolotl_sessions_created_total"))
	assert.Equal(t, 1.0, counter(t, bob.reg, "axolotl_sessions_created_total"))
}

func TestReceive_ConsumesOneTimePreKey(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")

	before, err := bob.ks.CountPreKeys()
	require.NoError(t, err)
	alice.send(t, bob, "hi")
	assert.Equal(t, []string{"hi"}, bob.recv(t))

	after, err := bob.ks.CountPreKeys()
	require.NoError(t, err)
	assert.Equal(t, before-1, after)
}

func TestReceive_DropsUndecryptable(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")
	ctx := context.Background()

	require.NoError(t, rc.SendMessage(ctx, domain.Envelope{From: "mallory", To: "bob", Payload: []byte{0x07, 0x00}}))
	alice.send(t, bob, "still works")

	msgs, err := bob.messages.ReceiveMessage(ctx, pass, "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"still works"}, texts(msgs))
	assert.Equal(t, 1.0, counter(t, bob.reg, "axolotl_decrypt_failures_total"))

	envs, err := rc.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, envs, "dropped message is acked too")
}

func TestReceive_ReplayDropped(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")
	ctx := context.Background()

	alice.send(t, bob, "one")
	envs, err := rc.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, []string{"one"}, bob.recv(t))

	replay := envs[0]
	replay.ID = ""
	require.NoError(t, rc.SendMessage(ctx, replay))
	assert.Empty(t, bob.recv(t))
	assert.Equal(t, 1.0, counter(t, bob.reg, "axolotl_decrypt_failures_total"))
}

func TestReceive_StaleSessionTagDoesNotBlockQueue(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")
	ctx := context.Background()

	alice.send(t, bob, "one")
	assert.Equal(t, []string{"one"}, bob.recv(t))
	bob.send(t, alice, "ack")
	assert.Equal(t, []string{"ack"}, alice.recv(t))

	alice.send(t, bob, "two")
	envs, err := rc.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, []string{"two"}, bob.recv(t))

	m, err := message.Deserialise(envs[0].Payload)
	require.NoError(t, err)
	cm, ok := m.(*message.CipherMessage)
	require.True(t, ok)
	cm.SessionTag[0] ^= 0xff
	stale, err := cm.Serialise()
	require.NoError(t, err)
	require.NoError(t, rc.SendMessage(ctx, domain.Envelope{From: "alice", To: "bob", Payload: stale}))
	alice.send(t, bob, "valid after stale")

	assert.Equal(t, []string{"valid after stale"}, bob.recv(t))
	assert.Equal(t, 1.0, counter(t, bob.reg, "axolotl_decrypt_failures_total"))
	assert.Empty(t, bob.recv(t))
}

func TestReceive_RemoteIdentityChangedStops(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	bob := newParty(t, rc, "bob")
	ctx := context.Background()

	alice.send(t, bob, "hi")
	assert.Equal(t, []string{"hi"}, bob.recv(t))

	// A new device claiming to be alice, with a different identity.
	impostor := newParty(t, rc, "alice-new")
	impostor.name = "alice"
	impostor.send(t, bob, "it's me")
	alice.send(t, bob, "queued behind")

	msgs, err := bob.messages.ReceiveMessage(ctx, pass, "bob", 0)
	require.ErrorIs(t, err, session.ErrRemoteIdentityChanged)
	assert.Empty(t, msgs)

	envs, err := rc.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, envs, 2, "nothing acked past the failure")
}

func TestSend_NoBundle(t *testing.T) {
	rc := newRelay(t)
	alice := newParty(t, rc, "alice")
	err := alice.messages.SendMessage(context.Background(), pass, "alice", "nobody", []byte("x"))
	require.ErrorIs(t, err, relay.ErrNotFound)
}

func TestSend_NoRelay(t *testing.T) {
	ks := store.NewMemory()
	svc := messagesvc.New(ks, ks, nil, nil, metrics.New(nil), zerolog.Nop())
	err := svc.SendMessage(context.Background(), pass, "alice", "bob", []byte("x"))
	require.ErrorIs(t, err, messagesvc.ErrNoRelay)
}
