package http

import (
	"net/http"
	"time"

	"echo-hue-bridge/internal/domain/registry"
)

// handleStatus is a diagnostic surface supplementing spec.md: it reports
// the Hub Lifecycle state and status signal (spec.md §4.G, §6) plus device
// counts. It is not a configuration UI.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, signal := s.statusFn()

	deviceCount := 0
	if entries, err := registry.ListDevices(r.Context(), s.host, s.hub); err == nil {
		deviceCount = len(entries)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":        state,
		"status":       signal,
		"hub_id":       s.hub.ID,
		"address":      s.hub.IP,
		"port":         s.hub.Port,
		"device_count": deviceCount,
		"uptime":       time.Since(s.startedAt).String(),
	})
}
