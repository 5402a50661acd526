package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"echo-hue-bridge/internal/domain/huefacade"
	"echo-hue-bridge/internal/domain/registry"
)

// handlePair implements "Pairing" (spec.md §4.D, POST /api). devicetype is
// accepted but ignored.
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceType string `json:"devicetype"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxHueBodyBytes)
	_ = json.NewDecoder(r.Body).Decode(&body)

	username := fmt.Sprintf("node-red-alexa-%s", s.hub.ID)
	writeJSON(w, http.StatusOK, []map[string]interface{}{
		{"success": map[string]interface{}{
			"username":  username,
			"clientkey": username,
		}},
	})
}

func (s *Server) bridgeConfig(whitelistUser string) map[string]interface{} {
	cfg := map[string]interface{}{
		"name":             "Philips hue",
		"swversion":        "1960114090",
		"apiversion":       "1.41.0",
		"mac":              "00:17:88:10:22:01",
		"bridgeid":         s.hub.HueBridgeID(),
		"modelid":          "BSB002",
		"ipaddress":        s.hub.IP,
		"netmask":          "255.255.255.0",
		"gateway":          s.hub.IP,
		"linkbutton":       true,
		"portalservices":   false,
		"factorynew":       false,
		"replacesbridgeid": nil,
		"datastoreversion": "131",
		"zigbeechannel":    15,
		"whitelist":        map[string]interface{}{},
	}
	if whitelistUser != "" {
		cfg["whitelist"] = map[string]interface{}{
			whitelistUser: map[string]interface{}{
				"name":        "node-red-alexa",
				"create date": "2024-01-01T00:00:00",
				"last use date": "2024-01-01T00:00:00",
			},
		}
	}
	return cfg
}

// handleBridgeConfig implements GET /api/config.
func (s *Server) handleBridgeConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.bridgeConfig(""))
}

// handleFullState implements GET /api/:user.
func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lights":        huefacade.BuildLights(entries),
		"groups":        map[string]interface{}{},
		"config":        s.bridgeConfig(user),
		"schedules":     map[string]interface{}{},
		"scenes":        map[string]interface{}{},
		"rules":         map[string]interface{}{},
		"sensors":       map[string]interface{}{},
		"resourcelinks": map[string]interface{}{},
	})
}

// handleGetLights implements GET /api/:user/lights.
func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, huefacade.BuildLights(entries))
}

// handleGetLight implements GET /api/:user/lights/:id.
func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, e := range entries {
		if registryTokenMatches(e, id) {
			writeJSON(w, http.StatusOK, huefacade.NewLight(e.Name, e.UniqueID))
			return
		}
	}
	writeHueError(w, http.StatusNotFound, 1, fmt.Sprintf("/lights/%s", id),
		fmt.Sprintf("resource, /lights/%s, not available", id))
}

func registryTokenMatches(e registry.Entry, token string) bool {
	_, ok := registry.Resolve([]registry.Entry{e}, token)
	return ok
}

// handleSetLightState implements PUT /api/:user/lights/:id/state.
func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxHueBodyBytes)
	order, body, err := decodeOrderedObject(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeHueError(w, http.StatusBadRequest, 6, fmt.Sprintf("/lights/%s/state", id), "body contains invalid json")
		return
	}
	if len(order) == 0 {
		writeHueError(w, http.StatusBadRequest, 6, fmt.Sprintf("/lights/%s/state", id), "invalid/missing parameters in body")
		return
	}

	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	deviceID, ok := registry.Resolve(entries, id)
	if !ok {
		writeHueError(w, http.StatusNotFound, 1, fmt.Sprintf("/lights/%s", id),
			fmt.Sprintf("resource, /lights/%s, not available", id))
		return
	}

	event, consumed, mapped := huefacade.MapPutToEvent(body)
	if !mapped {
		writeHueError(w, http.StatusBadRequest, 6, fmt.Sprintf("/lights/%s/state", id), "invalid/missing parameters in body")
		return
	}

	if err := s.dispatcher.Dispatch(r.Context(), deviceID, event); err != nil {
		writeHueError(w, http.StatusNotFound, 1, fmt.Sprintf("/lights/%s", id),
			fmt.Sprintf("resource, /lights/%s, not available", id))
		return
	}

	// Echo only the keys the winning precedence rule consumed, in the order
	// they appeared in the request (spec.md §4.D) — not every key present
	// in the body.
	consumedSet := make(map[string]bool, len(consumed))
	for _, k := range consumed {
		consumedSet[k] = true
	}
	resp := make([]map[string]interface{}, 0, len(consumed))
	for _, k := range order {
		if !consumedSet[k] {
			continue
		}
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{
				fmt.Sprintf("/lights/%s/state/%s", id, k): body[k],
			},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
