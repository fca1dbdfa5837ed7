package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
)

const maxBodyBytes = 4 << 20

// mailbox is everything the relay holds for one user.
type mailbox struct {
	oneTime    []domain.PublishedPreKey // served front first
	lastResort *domain.PublishedPreKey
	queue      []domain.Envelope
}

// Server is an in-memory relay.
type Server struct {
	cfg     ServerConfig
	log     zerolog.Logger
	reg     *prometheus.Registry
	metrics *serverMetrics
	router  chi.Router
	now     func() time.Time

	mu    sync.Mutex
	users map[domain.Username]*mailbox
}

// NewServer builds a relay with its own metrics registry.
func NewServer(cfg ServerConfig, logger zerolog.Logger) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		log:     logger,
		reg:     reg,
		metrics: newServerMetrics(reg),
		now:     time.Now,
		users:   make(map[domain.Username]*mailbox),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.log, s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))

	r.Route("/v1/users/{user}", func(r chi.Router) {
		r.Put("/prekeys", s.handleUpload)
		r.Get("/prekey", s.handleFetchPreKey)
		r.Post("/messages", s.handleSend)
		r.Get("/messages", s.handleFetchMessages)
		r.Post("/messages/ack", s.handleAck)
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("relay listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info().Msg("relay shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) box(user domain.Username) *mailbox {
	b, ok := s.users[user]
	if !ok {
		b = new(mailbox)
		s.users[user] = b
	}
	return b
}

func userParam(r *http.Request) (domain.Username, error) {
	u := chi.URLParam(r, "user")
	if u == "" || len(u) > 64 {
		return "", errors.New("invalid username")
	}
	return domain.Username(u), nil
}

// checkBundle makes sure an upload is a well-formed bundle for its id whose
// signature, if present, verifies.
func checkBundle(p domain.PublishedPreKey) error {
	b, err := keys.DeserialisePreKeyBundle(p.Bundle)
	if err != nil {
		return err
	}
	if b.PreKeyID != p.ID {
		return fmt.Errorf("bundle id %d does not match %d", b.PreKeyID, p.ID)
	}
	if b.Verify() == keys.PreKeyAuthInvalid {
		return fmt.Errorf("bundle %d: bad signature", p.ID)
	}
	return nil
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_user", err)
		return
	}
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if len(req.PreKeys) == 0 || len(req.PreKeys) > s.cfg.MaxPreKeys {
		s.fail(w, http.StatusBadRequest, "bad_prekeys", fmt.Errorf("want 1 to %d prekeys, got %d", s.cfg.MaxPreKeys, len(req.PreKeys)))
		return
	}

	var oneTime []domain.PublishedPreKey
	var lastResort *domain.PublishedPreKey
	for i := range req.PreKeys {
		p := req.PreKeys[i]
		if err := checkBundle(p); err != nil {
			s.fail(w, http.StatusBadRequest, "bad_prekeys", err)
			return
		}
		if p.ID == keys.MaxPreKeyID {
			lastResort = &p
			continue
		}
		oneTime = append(oneTime, p)
	}

	s.mu.Lock()
	b := s.box(user)
	b.oneTime = oneTime
	if lastResort != nil {
		b.lastResort = lastResort
	}
	s.mu.Unlock()

	s.log.Info().Str("user", user.String()).Int("one_time", len(oneTime)).Bool("last_resort", lastResort != nil).Msg("prekeys published")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFetchPreKey(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_user", err)
		return
	}
	s.mu.Lock()
	var out *domain.PublishedPreKey
	kind := "one_time"
	if b, ok := s.users[user]; ok {
		switch {
		case len(b.oneTime) > 0:
			p := b.oneTime[0]
			b.oneTime = b.oneTime[1:]
			out = &p
		case b.lastResort != nil:
			out = b.lastResort
			kind = "last_resort"
		}
	}
	s.mu.Unlock()

	if out == nil {
		s.fail(w, http.StatusNotFound, "no_prekey", fmt.Errorf("no prekey for %s", user))
		return
	}
	s.metrics.prekeysServed.WithLabelValues(kind).Inc()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_user", err)
		return
	}
	var env domain.Envelope
	if err := decodeJSON(w, r, &env); err != nil {
		s.fail(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if env.To != "" && env.To != user {
		s.fail(w, http.StatusBadRequest, "bad_recipient", fmt.Errorf("envelope is for %s", env.To))
		return
	}
	if len(env.Payload) == 0 {
		s.fail(w, http.StatusBadRequest, "empty_payload", errors.New("empty payload"))
		return
	}
	env.To = user
	env.ID = uuid.NewString()
	if env.Timestamp == 0 {
		env.Timestamp = s.now().Unix()
	}

	s.mu.Lock()
	b := s.box(user)
	if len(b.queue) >= s.cfg.MaxQueue {
		s.mu.Unlock()
		s.fail(w, http.StatusInsufficientStorage, "queue_full", fmt.Errorf("queue for %s is full", user))
		return
	}
	b.queue = append(b.queue, env)
	s.mu.Unlock()
	s.metrics.queued.Inc()

	writeJSON(w, http.StatusAccepted, sendResponse{ID: env.ID})
}

func (s *Server) handleFetchMessages(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_user", err)
		return
	}
	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		if limit, err = strconv.Atoi(q); err != nil || limit < 0 {
			s.fail(w, http.StatusBadRequest, "bad_limit", fmt.Errorf("bad limit %q", q))
			return
		}
	}

	s.mu.Lock()
	var out []domain.Envelope
	if b, ok := s.users[user]; ok {
		n := len(b.queue)
		if limit > 0 && limit < n {
			n = limit
		}
		out = append(out, b.queue[:n]...)
	}
	s.mu.Unlock()

	if out == nil {
		out = []domain.Envelope{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	user, err := userParam(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "bad_user", err)
		return
	}
	var req ackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, http.StatusBadRequest, "bad_json", err)
		return
	}
	if req.Count < 0 {
		s.fail(w, http.StatusBadRequest, "bad_count", fmt.Errorf("negative count %d", req.Count))
		return
	}

	s.mu.Lock()
	n := 0
	if b, ok := s.users[user]; ok {
		n = min(req.Count, len(b.queue))
		clear(b.queue[:n])
		b.queue = b.queue[n:]
	}
	s.mu.Unlock()
	s.metrics.queued.Sub(float64(n))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, status int, reason string, err error) {
	s.metrics.rejected.WithLabelValues(reason).Inc()
	s.log.Debug().Err(err).Int("status", status).Str("reason", reason).Msg("request rejected")
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
