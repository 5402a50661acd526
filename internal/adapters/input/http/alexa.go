package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"echo-hue-bridge/internal/domain/alexadirective"
	"echo-hue-bridge/internal/domain/dispatch"
	"echo-hue-bridge/internal/domain/registry"
)

// handleAlexaDirective implements the Alexa Directive Handler (spec.md
// §4.E): a single POST endpoint accepting the Smart Home v3 envelope and
// routing to Discovery or a control mapping. It never propagates a panic
// to the HTTP framework — middleware.Recoverer is the last line of
// defense, but failures here are turned into INTERNAL_ERROR explicitly so
// the response still carries the Alexa envelope.
func (s *Server) handleAlexaDirective(w http.ResponseWriter, r *http.Request) {
	unknownHeader := alexadirective.Header{MessageID: "unknown"}
	defer func() {
		if rec := recover(); rec != nil {
			writeAlexa(w, http.StatusInternalServerError, alexadirective.BuildErrorResponse(unknownHeader, alexadirective.ErrTypeInternalError, "internal error"))
		}
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxHueBodyBytes)
	var req alexadirective.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeAlexa(w, http.StatusBadRequest, alexadirective.BuildErrorResponse(unknownHeader, alexadirective.ErrTypeInvalidDirective, "malformed request body"))
		return
	}

	header := req.Directive.Header
	if header.MessageID == "" {
		header.MessageID = "unknown"
	}
	if header.Namespace == "" {
		writeAlexa(w, http.StatusBadRequest, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInvalidDirective, "missing header.namespace"))
		return
	}

	if header.Namespace == "Alexa.Discovery" && header.Name == "Discover" {
		s.handleAlexaDiscovery(w, r, header)
		return
	}

	if req.Directive.Endpoint == nil || req.Directive.Endpoint.EndpointID == "" {
		writeAlexa(w, http.StatusBadRequest, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInvalidDirective, "Missing endpointId"))
		return
	}
	endpointID := req.Directive.Endpoint.EndpointID

	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		writeAlexa(w, http.StatusInternalServerError, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInternalError, "registry lookup failed"))
		return
	}
	deviceID, ok := registry.Resolve(entries, endpointID)
	if !ok {
		writeAlexa(w, http.StatusNotFound, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeEndpointUnreachable, "endpoint not found"))
		return
	}

	event, propName, err := alexadirective.MapDirectiveToEvent(header.Namespace, header.Name, req.Directive.Payload)
	if err != nil {
		writeAlexa(w, http.StatusBadRequest, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInvalidDirective,
			fmt.Sprintf("Unsupported directive: %s.%s", header.Namespace, header.Name)))
		return
	}

	if err := s.dispatcher.Dispatch(r.Context(), deviceID, event); err != nil {
		if errors.Is(err, dispatch.ErrDeviceNotFound) {
			writeAlexa(w, http.StatusNotFound, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeEndpointUnreachable, "endpoint not found"))
			return
		}
		writeAlexa(w, http.StatusInternalServerError, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInternalError, "dispatch failed"))
		return
	}

	resp := alexadirective.BuildDirectiveResponse(header, endpointID, header.Namespace, propName, event.Payload, time.Now())
	writeAlexa(w, http.StatusOK, resp)
}

func (s *Server) handleAlexaDiscovery(w http.ResponseWriter, r *http.Request, header alexadirective.Header) {
	entries, err := registry.ListDevices(r.Context(), s.host, s.hub)
	if err != nil {
		writeAlexa(w, http.StatusInternalServerError, alexadirective.BuildErrorResponse(header, alexadirective.ErrTypeInternalError, "registry lookup failed"))
		return
	}
	writeAlexa(w, http.StatusOK, alexadirective.BuildDiscoveryResponse(header, entries))
}

func writeAlexa(w http.ResponseWriter, status int, resp *alexadirective.Response) {
	writeJSON(w, status, resp)
}
