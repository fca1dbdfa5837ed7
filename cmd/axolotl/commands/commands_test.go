package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/relay"
)

const pass = "Correct-Horse-9"

// run executes one CLI invocation and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	err := root.ExecuteContext(context.Background())
	if wire != nil {
		require.NoError(t, wire.Close())
		wire = nil
	}
	return out.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(relay.NewServer(relay.ServerConfig{MaxQueue: 100, MaxPreKeys: 100}, zerolog.Nop()).Handler())
	defer srv.Close()
	t.Setenv("AXOLOTL_HTTP_TIMEOUT", "5s")

	alice := []string{"--home", t.TempDir(), "-p", pass, "--relay", srv.URL}
	bob := []string{"--home", t.TempDir(), "-p", pass, "--relay", srv.URL}
	with := func(base []string, args ...string) []string {
		return append(append([]string{}, base...), args...)
	}

	out, err := run(t, with(alice, "init")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Fingerprint:")
	_, err = run(t, with(bob, "init")...)
	require.NoError(t, err)
	bobFP, err := run(t, with(bob, "fingerprint")...)
	require.NoError(t, err)

	_, err = run(t, with(alice, "register", "alice", "-n", "3")...)
	require.NoError(t, err)
	out, err = run(t, with(bob, "register", "bob", "-n", "3")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Registered 4 prekey bundles for bob")

	out, err = run(t, with(alice, "start-session", "bob")...)
	require.NoError(t, err)
	fp := strings.TrimSpace(strings.TrimPrefix(bobFP, "Fingerprint:"))
	assert.Len(t, fp, 64)
	assert.Contains(t, out, "Remote fingerprint: "+fp)

	_, err = run(t, with(alice, "send", "bob", "hello from alice")...)
	require.NoError(t, err)
	out, err = run(t, with(bob, "recv")...)
	require.NoError(t, err)
	assert.Contains(t, out, "[alice] hello from alice")

	_, err = run(t, with(bob, "send", "alice", "hi back")...)
	require.NoError(t, err)
	out, err = run(t, with(alice, "recv")...)
	require.NoError(t, err)
	assert.Contains(t, out, "[bob] hi back")

	out, err = run(t, with(alice, "sessions")...)
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "false")
}

func TestCLI_Errors(t *testing.T) {
	home := t.TempDir()

	_, err := run(t, "--home", home, "init")
	require.ErrorIs(t, err, errNoPassphrase)

	_, err = run(t, "--home", home, "-p", pass, "register", "alice")
	require.ErrorIs(t, err, errNoRelay)

	_, err = run(t, "--home", home, "-p", pass, "init")
	require.NoError(t, err)
	_, err = run(t, "--home", home, "-p", pass, "--relay", "http://127.0.0.1:1", "send", "bob", "x")
	require.ErrorIs(t, err, errNoUsername)
}
