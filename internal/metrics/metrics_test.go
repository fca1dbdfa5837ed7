package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/metrics"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.Encrypted()
	m.Encrypted()
	m.Decrypted()
	m.DecryptFailed("drop_message")
	m.SessionCreated(metrics.RoleInitiator)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 4)
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			got[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, got["axolotl_messages_encrypted_total"])
	assert.Equal(t, 1.0, got["axolotl_messages_decrypted_total"])
	assert.Equal(t, 1.0, got["axolotl_decrypt_failures_total"])
	assert.Equal(t, 1.0, got["axolotl_sessions_created_total"])
}

func TestNilRegisterer(t *testing.T) {
	m := metrics.New(nil)
	assert.NotPanics(t, func() {
		m.Encrypted()
		m.SessionCreated(metrics.RoleResponder)
	})
}
