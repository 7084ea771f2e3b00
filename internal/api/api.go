// internal/api/api.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/eventlog"
	"github.com/tamzrod/modbus-gateway/internal/gateway"
	"github.com/tamzrod/modbus-gateway/internal/profile"
)

// Config wires the HTTP surface to the rest of the gateway.
type Config struct {
	Gateway  *gateway.Gateway
	Events   *eventlog.Log // optional
	Hostname string

	// Persist writes an accepted binding set to durable storage. The
	// in-memory set is already swapped when Persist runs; a persist
	// failure is reported to the client but not rolled back.
	Persist func([]config.BindingConfig) error

	Logger *slog.Logger
}

// Server exposes the gateway over a JSON HTTP API.
type Server struct {
	gw     *gateway.Gateway
	events *eventlog.Log
	host   string
	log    *slog.Logger

	// persistMu serializes Persist: the closure touches shared state
	// (the loaded configuration and its file) that the gateway's locks
	// do not cover.
	persistMu sync.Mutex
	persist   func([]config.BindingConfig) error

	started time.Time
	router  *mux.Router
}

// New builds the API server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		gw:      cfg.Gateway,
		events:  cfg.Events,
		host:    cfg.Hostname,
		persist: cfg.Persist,
		log:     cfg.Logger,
		started: time.Now(),
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/bindings", s.handleGetBindings).Methods(http.MethodGet)
	v1.HandleFunc("/bindings", s.handlePutBindings).Methods(http.MethodPut)
	v1.HandleFunc("/bindings/{slot}/values", s.handleValues).Methods(http.MethodGet)
	v1.HandleFunc("/testread", s.handleTestRead).Methods(http.MethodPost)
	v1.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	v1.HandleFunc("/resume", s.handleResume).Methods(http.MethodPost)
	v1.HandleFunc("/profiles", s.handleProfiles).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ---- HELPERS ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorBody{Error: err.Error()})
}

// statusFor maps gateway errors onto HTTP codes. Lock contention is a
// retryable condition, not a client fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gateway.ErrLockTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrInvalidSlot):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// ---- HANDLERS ----

type statusBody struct {
	Hostname      string        `json:"hostname"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Paused        bool          `json:"paused"`
	Counters      gateway.Stats `json:"counters"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusBody{
		Hostname:      s.host,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Paused:        s.gw.Paused(),
		Counters:      s.gw.Counters(),
	})
}

func (s *Server) handleGetBindings(w http.ResponseWriter, r *http.Request) {
	bindings, err := s.gw.Bindings()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, bindings)
}

type putBindingsBody struct {
	Bindings []config.BindingConfig `json:"bindings"`
}

type putBindingsReply struct {
	Bindings []gateway.BindingStatus `json:"bindings"`
	Warnings []string                `json:"warnings,omitempty"`
	Persist  string                  `json:"persist_error,omitempty"`
}

func (s *Server) handlePutBindings(w http.ResponseWriter, r *http.Request) {
	var body putBindingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode bindings: %w", err))
		return
	}

	warnings, err := s.gw.UpdateBindings(body.Bindings)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	reply := putBindingsReply{}
	for _, wrn := range warnings {
		reply.Warnings = append(reply.Warnings, wrn.String())
	}

	if s.persist != nil {
		s.persistMu.Lock()
		accepted, err := s.gw.ConfigBindings()
		if err == nil {
			err = s.persist(accepted)
		}
		s.persistMu.Unlock()
		if err != nil {
			s.log.Error("binding persist failed", "error", err)
			reply.Persist = err.Error()
		}
	}

	reply.Bindings, err = s.gw.Bindings()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("bad slot: %w", err))
		return
	}
	values, err := s.gw.ReadDecoded(slot)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

type testReadBody struct {
	DeviceID     uint8  `json:"device_id"`
	StartAddress uint16 `json:"start_address"`
	Count        uint16 `json:"count"`
	Input        bool   `json:"input"` // input registers instead of holding
}

type testReadReply struct {
	Registers []uint16 `json:"registers"`
}

func (s *Server) handleTestRead(w http.ResponseWriter, r *http.Request) {
	var body testReadBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode test read: %w", err))
		return
	}
	fn := profile.ReadHolding
	if body.Input {
		fn = profile.ReadInput
	}
	words, err := s.gw.TestRead(body.DeviceID, body.StartAddress, body.Count, fn)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, testReadReply{Registers: words})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.gw.ResetStatistics(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, s.gw.Counters())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.gw.Pause()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.gw.Resume()
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

type profileBody struct {
	ID                    int              `json:"id"`
	Name                  string           `json:"name"`
	ReadFunction          string           `json:"read_function"`
	FloatPairs            bool             `json:"float_pairs"`
	SwapBytes             bool             `json:"swap_bytes"`
	SwapWords             bool             `json:"swap_words"`
	RecommendedIntervalMs int              `json:"recommended_interval_ms"`
	Presets               []profile.Preset `json:"presets,omitempty"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	out := make([]profileBody, 0, profile.Count())
	for id := 0; id < profile.Count(); id++ {
		p, _ := profile.ByID(id)
		out = append(out, profileBody{
			ID:                    id,
			Name:                  p.Name,
			ReadFunction:          p.ReadFunction.String(),
			FloatPairs:            p.FloatPairs,
			SwapBytes:             p.SwapBytes,
			SwapWords:             p.SwapWords,
			RecommendedIntervalMs: int(p.RecommendedInterval / time.Millisecond),
			Presets:               p.Presets,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type eventBody struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeJSON(w, http.StatusOK, []eventBody{})
		return
	}
	events, err := s.events.Recent(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]eventBody, 0, len(events))
	for _, ev := range events {
		out = append(out, eventBody{At: ev.At, Kind: ev.Kind, Detail: ev.Detail})
	}
	writeJSON(w, http.StatusOK, out)
}
