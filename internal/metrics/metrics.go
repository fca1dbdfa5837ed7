// Package metrics holds the client-side prometheus counters.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Session roles for SessionCreated.
const (
	RoleInitiator = "initiator"
	RoleResponder = "responder"
)

// Metrics counts engine outcomes in the application layer.
type Metrics struct {
	encrypted       prometheus.Counter
	decrypted       prometheus.Counter
	decryptFailures *prometheus.CounterVec
	sessionsCreated *prometheus.CounterVec
}

// New registers the counters with reg. A nil reg leaves them unregistered,
// which suits tests and one-shot CLI runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		encrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axolotl",
			Name:      "messages_encrypted_total",
			Help:      "Messages sealed for sending.",
		}),
		decrypted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "axolotl",
			Name:      "messages_decrypted_total",
			Help:      "Messages opened successfully.",
		}),
		decryptFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axolotl",
			Name:      "decrypt_failures_total",
			Help:      "Messages that failed to open, by disposition.",
		}, []string{"reason"}),
		sessionsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "axolotl",
			Name:      "sessions_created_total",
			Help:      "Sessions created, by role.",
		}, []string{"role"}),
	}
	if reg != nil {
		reg.MustRegister(m.encrypted, m.decrypted, m.decryptFailures, m.sessionsCreated)
	}
	return m
}

func (m *Metrics) Encrypted() { m.encrypted.Inc() }

func (m *Metrics) Decrypted() { m.decrypted.Inc() }

// DecryptFailed counts a failure under reason, usually a session.Disposition.
func (m *Metrics) DecryptFailed(reason string) { m.decryptFailures.WithLabelValues(reason).Inc() }

func (m *Metrics) SessionCreated(role string) { m.sessionsCreated.WithLabelValues(role).Inc() }
