package app

import (
	"net/http"

	"github.com/getmockd/wsgate/pkg/broker"
	"github.com/getmockd/wsgate/pkg/config"
	"github.com/getmockd/wsgate/pkg/httputil"
	"github.com/getmockd/wsgate/pkg/metrics"
)

// mqttHealth is the embedded broker section of /healthz.
type mqttHealth struct {
	Running          bool    `json:"running"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
	ConnectedClients int64   `json:"connectedClients"`
}

func (s *Server) routes(cfg *config.Config, gw http.Handler, mgr *broker.ConnectionManager, mq *broker.MQTTBroker, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.Server.Path, gw)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		if s.Draining() {
			httputil.WriteServiceUnavailable(w, "shutting_down", "gateway is shutting down")
			return
		}
		body := map[string]any{
			"status":      "ok",
			"connections": mgr.Stats(),
		}
		if mq != nil {
			body["mqtt"] = mqttHealth{
				Running:          mq.IsRunning(),
				UptimeSeconds:    mq.Uptime().Seconds(),
				ConnectedClients: mq.ConnectedClients(),
			}
		}
		httputil.WriteOK(w, body)
	})

	mux.HandleFunc("GET /connections", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteOK(w, mgr.List())
	})

	mux.HandleFunc("GET /connections/{id}", func(w http.ResponseWriter, r *http.Request) {
		info, ok := mgr.Info(r.PathValue("id"))
		if !ok {
			httputil.WriteNotFound(w, "not_found", "connection not found")
			return
		}
		httputil.WriteOK(w, info)
	})

	mux.HandleFunc("DELETE /connections/{id}", func(w http.ResponseWriter, r *http.Request) {
		t := mgr.Get(r.PathValue("id"))
		if t == nil {
			httputil.WriteNotFound(w, "not_found", "connection not found")
			return
		}
		_ = t.Close()
		httputil.WriteNoContent(w)
	})

	if cfg.Metrics.Enabled && m != nil {
		mux.Handle("GET "+cfg.Metrics.Path, m.Handler())
	}
	return mux
}
