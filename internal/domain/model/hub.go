package model

import (
	"fmt"
	"strings"
)

// HubState tracks the lifecycle of a single bridge personality:
// initializing -> listening -> closing -> closed.
type HubState string

const (
	HubInitializing HubState = "initializing"
	HubListening    HubState = "listening"
	HubClosing      HubState = "closing"
	HubClosed       HubState = "closed"
)

type StatusColor string

const (
	StatusGreen  StatusColor = "green"
	StatusYellow StatusColor = "yellow"
	StatusRed    StatusColor = "red"
)

// StatusSignal is the (color, message) tuple a Hub reports to its host.
type StatusSignal struct {
	Color   StatusColor `json:"color"`
	Message string      `json:"message"`
}

// Hub is a network personality: one TCP listener and one SSDP socket bound
// to a single logical bridge identity.
type Hub struct {
	ID    string // hubId: stable string, 32 hex chars preferred
	Port  int
	IP    string
	Debug bool
}

// BridgeUUID is deterministic per hub, per the Hue bridge UUID convention
// this emulator mimics.
func (h *Hub) BridgeUUID() string {
	return fmt.Sprintf("2f402f80-da50-11e1-9b23-%s", h.ID)
}

// HueBridgeID is the upper-cased hubId used in SSDP/Hue headers.
func (h *Hub) HueBridgeID() string {
	return strings.ToUpper(h.ID)
}
