// Package httpapi exposes the kiosk control surface: scan submission for
// the reader shim, a status endpoint for the kiosk UI, and an operator
// reconnect for the door actuator.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/actuator"
	"github.com/fitaccess/kiosk/internal/kiosk/overlay"
	"github.com/fitaccess/kiosk/internal/kiosk/service"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type Dependencies struct {
	Logger    *slog.Logger
	Addr      string
	Admission *service.Admission
	Overlay   *overlay.Scheduler
	Actuator  *actuator.Controller
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux
	admission  *service.Admission
	overlay    *overlay.Scheduler
	actuator   *actuator.Controller
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:    d.Logger,
		mux:       mux,
		admission: d.Admission,
		overlay:   d.Overlay,
		actuator:  d.Actuator,
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("POST /v1/actuator/reconnect", s.handleReconnect)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type scanRequest struct {
	Code   string `json:"code"`
	Source string `json:"source"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	src := types.SourceCode
	switch req.Source {
	case "", string(types.SourceCode):
	case string(types.SourceManual):
		src = types.SourceManual
	default:
		writeError(w, http.StatusBadRequest, "invalid_source", "source must be \"code\" or \"manual-id\"")
		return
	}

	decision, err := s.admission.HandleScan(r.Context(), req.Code, src)
	if err != nil {
		if errors.Is(err, service.ErrLookupFailed) {
			writeError(w, http.StatusBadGateway, "lookup_failed", "membership backend unavailable, scan ignored")
			return
		}
		s.logger.Error("scan error", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if decision == nil {
		// Empty or debounced input: nothing happened.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

type statusResponse struct {
	Overlay    overlay.Snapshot    `json:"overlay"`
	Actuator   types.ActuatorState `json:"actuator"`
	ServerTime time.Time           `json:"server_time"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Overlay:    overlay.Snapshot{State: types.OverlayIdle},
		Actuator:   types.ActuatorDisconnected,
		ServerTime: time.Now().UTC(),
	}
	if s.overlay != nil {
		resp.Overlay = s.overlay.Snapshot()
	}
	if s.actuator != nil {
		resp.Actuator = s.actuator.State()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if s.actuator == nil {
		writeError(w, http.StatusServiceUnavailable, "no_actuator", "kiosk runs without a door actuator")
		return
	}

	if err := s.actuator.Reconnect(); err != nil {
		s.logger.Error("actuator reconnect failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "reconnect_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"state": s.actuator.State()})
}
