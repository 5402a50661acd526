// Package http is the input adapter exposing the UPnP descriptor, the Hue
// v1 REST Facade, and the Alexa Directive Handler over a single chi router
// (spec.md §4.C, §4.D, §4.E).
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"echo-hue-bridge/internal/domain/dispatch"
	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/ports"
)

const (
	requestDeadline  = 10 * time.Second
	rateLimitWindow  = 15 * time.Minute
	rateLimitPerIP   = 100
	maxHueBodyBytes  = 10 * 1024
)

type Server struct {
	hub        *model.Hub
	host       ports.HostEnvironment
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger

	startedAt time.Time
	statusFn  func() (model.HubState, model.StatusSignal)
}

func NewServer(hub *model.Hub, host ports.HostEnvironment, dispatcher *dispatch.Dispatcher, logger zerolog.Logger) *Server {
	return &Server{
		hub:        hub,
		host:       host,
		dispatcher: dispatcher,
		logger:     logger,
		startedAt:  time.Now(),
		statusFn: func() (model.HubState, model.StatusSignal) {
			return model.HubInitializing, model.StatusSignal{}
		},
	}
}

// SetStatusProvider wires the admin status endpoint to the Hub Lifecycle's
// current state. Called once by internal/hub during wiring.
func (s *Server) SetStatusProvider(fn func() (model.HubState, model.StatusSignal)) {
	s.statusFn = fn
}

// Handler builds the route tree and middleware stack. Rate limiting and
// hardening headers apply to every route, per spec.md §5.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.securityHeadersMiddleware)
	r.Use(httprate.Limit(
		rateLimitPerIP,
		rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	))
	r.Use(middleware.Timeout(requestDeadline))

	r.Get("/description.xml", s.handleDescription)

	r.Post("/api", s.handlePair)
	r.Get("/api/config", s.handleBridgeConfig)
	r.Get("/api/{user}", s.handleFullState)
	r.Get("/api/{user}/lights", s.handleGetLights)
	r.Get("/api/{user}/lights/{id}", s.handleGetLight)
	r.Put("/api/{user}/lights/{id}/state", s.handleSetLightState)

	r.Post("/alexa", s.handleAlexaDirective)

	r.Get("/admin/status", s.handleStatus)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.hub.Debug {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// securityHeadersMiddleware sets the standard hardening headers spec.md §5
// requires on every response.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}
