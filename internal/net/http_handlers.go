package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"garden-brawl/server/internal/net/ws"
	"garden-brawl/server/internal/session"
)

type HTTPHandlerConfig struct {
	Logger    *log.Logger
	QueueSize int
}

// DiagnosticsFunc returns a snapshot of every live session.
type DiagnosticsFunc func() []session.DiagnosticsSnapshot

// NewHTTPHandler wires the health, diagnostics and websocket endpoints onto
// one mux.
func NewHTTPHandler(resolve ws.SessionResolver, diagnostics DiagnosticsFunc, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string                        `json:"status"`
			ServerTime int64                         `json:"serverTime"`
			Sessions   []session.DiagnosticsSnapshot `json:"sessions"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
		}
		if diagnostics != nil {
			payload.Sessions = diagnostics()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	wsHandler := ws.NewHandler(resolve, ws.HandlerConfig{
		Logger:    logger,
		QueueSize: cfg.QueueSize,
	})
	mux.HandleFunc("/ws", wsHandler.Handle)

	return mux
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	w.Write([]byte(message))
}
