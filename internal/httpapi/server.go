// Package httpapi exposes the bridge over HTTP: the audio and dashboard
// websockets, health and status endpoints, and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Aegis-ai-labs/Aegis/internal/bridge"
	"github.com/Aegis-ai-labs/Aegis/internal/config"
	"github.com/Aegis-ai-labs/Aegis/internal/observability"
	"github.com/Aegis-ai-labs/Aegis/internal/protocol"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 120 * time.Second
	maxFrameSize = 2 << 20
)

type Server struct {
	cfg      config.Config
	svc      *bridge.Service
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, svc *bridge.Service, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		svc:     svc,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive the user's mic
				// session if the bridge is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/ws/audio", s.handleAudioWS)
	r.Get("/ws/dashboard", s.handleDashboardWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"connections": s.svc.Registry().ActiveSessions(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"connections": s.svc.Registry().ActiveSessions(),
		"latency":     s.svc.Latency().Snapshot(),
	})
}

// handleAudioWS is the wearable endpoint: binary frames carry PCM16LE audio
// in both directions, text frames carry JSON control messages.
func (s *Server) handleAudioWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ActiveConnections.Inc()
		defer s.metrics.ActiveConnections.Dec()
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan bridge.Inbound, 256)
	outbound := make(chan bridge.Outbound, 256)
	sess := s.svc.NewSession("")

	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = sess.Run(ctx, inbound, outbound)
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if msg.Audio != nil {
					if err := conn.WriteMessage(websocket.BinaryMessage, msg.Audio); err != nil {
						cancel()
						return
					}
					s.countWS("outbound", "audio")
					continue
				}
				if err := conn.WriteJSON(msg.JSON); err != nil {
					cancel()
					return
				}
				s.countWS("outbound", "json")
			}
		}
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msgType {
		case websocket.BinaryMessage:
			s.countWS("inbound", "audio")
			select {
			case <-ctx.Done():
				break readLoop
			case inbound <- bridge.Inbound{Audio: data}:
			}
		case websocket.TextMessage:
			ctl, err := protocol.ParseControl(data)
			if err != nil {
				// Malformed or unknown control frames are counted and
				// dropped; session state is untouched.
				s.countWS("inbound", "invalid")
				continue
			}
			s.countWS("inbound", string(ctl.Type))
			select {
			case <-ctx.Done():
				break readLoop
			case inbound <- bridge.Inbound{Control: &ctl}:
			}
		}
	}

	cancel()
	close(inbound)
	<-runDone
	<-writerDone
}

// handleDashboardWS streams conversation events to monitoring clients. It is
// send-only; inbound frames are read just to detect disconnect.
func (s *Server) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subID, events := s.svc.Registry().Subscribe(64)
	defer s.svc.Registry().Unsubscribe(subID)

	go func() {
		defer cancel()
		conn.SetReadLimit(maxFrameSize)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(map[string]any{
		"type":        "snapshot",
		"connections": s.svc.Registry().ActiveSessions(),
		"latency":     s.svc.Latency().Snapshot(),
	}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			s.countWS("outbound", "dashboard")
		}
	}
}

func (s *Server) countWS(direction, kind string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, kind).Inc()
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
