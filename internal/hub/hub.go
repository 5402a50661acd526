// Package hub implements the Hub Lifecycle (spec.md §4.G): one network
// personality owning a TCP listener, an SSDP socket, and the HTTP handler
// chain, progressing through initializing -> listening -> closing -> closed.
package hub

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echo-hue-bridge/internal/adapters/input/ssdp"
	httpadapter "echo-hue-bridge/internal/adapters/input/http"
	"echo-hue-bridge/internal/domain/dispatch"
	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/ports"
)

const shutdownGrace = 5 * time.Second

// Hub owns every resource a single bridge personality needs and exposes the
// status signal its host polls.
type Hub struct {
	model *model.Hub
	host  ports.HostEnvironment
	log   zerolog.Logger

	dispatcher *dispatch.Dispatcher
	httpServer *http.Server
	ssdpServer *ssdp.Server
	listener   net.Listener

	mu     sync.RWMutex
	state  model.HubState
	signal model.StatusSignal
}

func New(m *model.Hub, host ports.HostEnvironment, log zerolog.Logger) *Hub {
	return &Hub{
		model: m,
		host:  host,
		log:   log,
		state: model.HubInitializing,
		signal: model.StatusSignal{
			Color:   model.StatusYellow,
			Message: "starting",
		},
	}
}

// Start binds the TCP listener first: per spec.md §4.B/§4.G, a TCP bind
// failure is fatal to the hub, but an SSDP/UDP bind failure is logged and
// tolerated so the HTTP side still starts (§4.B is more specific than the
// general §4.G "either bind fails" framing, and wins).
func (h *Hub) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", h.model.IP, h.model.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		h.setState(model.HubClosed, model.StatusRed, "tcp bind failed: "+err.Error())
		return fmt.Errorf("hub: tcp listen %s: %w", addr, err)
	}
	h.listener = ln

	h.dispatcher = dispatch.New(h.host, h.log)

	srv := httpadapter.NewServer(h.model, h.host, h.dispatcher, h.log)
	srv.SetStatusProvider(h.Status)
	h.httpServer = &http.Server{Handler: srv.Handler()}

	go func() {
		if err := h.httpServer.Serve(h.listener); err != nil && err != http.ErrServerClosed {
			h.log.Error().Err(err).Msg("hub: http server stopped unexpectedly")
		}
	}()

	h.ssdpServer = ssdp.NewServer(h.model, h.model.Port, 30*time.Second, h.log)
	if err := h.ssdpServer.Start(ctx); err != nil {
		h.log.Warn().Err(err).Msg("hub: ssdp bind failed, discovery disabled for this hub")
		h.ssdpServer = nil
	}

	h.setState(model.HubListening, model.StatusGreen, fmt.Sprintf("listening on %d", h.model.Port))
	return nil
}

// Shutdown stops SSDP advertising, drains the HTTP server, and closes the
// dispatcher's per-sink queues so their worker goroutines exit, all bounded
// by a 5 s grace period (spec.md §5).
func (h *Hub) Shutdown(ctx context.Context) error {
	h.setState(model.HubClosing, model.StatusYellow, "shutting down")

	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	if h.ssdpServer != nil {
		if err := h.ssdpServer.Shutdown(ctx); err != nil {
			h.log.Warn().Err(err).Msg("hub: ssdp shutdown error")
		}
	}

	var err error
	if h.httpServer != nil {
		err = h.httpServer.Shutdown(ctx)
	}

	if h.dispatcher != nil {
		if closeErr := h.dispatcher.Close(ctx); closeErr != nil {
			h.log.Warn().Err(closeErr).Msg("hub: dispatcher close error")
		}
	}

	h.setState(model.HubClosed, model.StatusRed, "closed")
	return err
}

func (h *Hub) Status() (model.HubState, model.StatusSignal) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.signal
}

func (h *Hub) setState(state model.HubState, color model.StatusColor, message string) {
	h.mu.Lock()
	h.state = state
	h.signal = model.StatusSignal{Color: color, Message: message}
	h.mu.Unlock()
}
