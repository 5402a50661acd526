// Package alexadirective holds the Alexa Smart Home v3 wire types and the
// pure mapping/response-building logic for spec.md §4.E. Types follow the
// shapes in JeremyProffitt-garage-door-lights' shared Alexa models, trimmed
// to what this bridge exposes (Discovery, Power/Brightness/Color control).
package alexadirective

import "encoding/json"

const (
	ErrTypeInvalidDirective    = "INVALID_DIRECTIVE"
	ErrTypeEndpointUnreachable = "ENDPOINT_UNREACHABLE"
	ErrTypeInternalError       = "INTERNAL_ERROR"
)

type Request struct {
	Directive Directive `json:"directive"`
}

type Directive struct {
	Header   Header          `json:"header"`
	Endpoint *Endpoint       `json:"endpoint,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	PayloadVersion   string `json:"payloadVersion,omitempty"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

type Endpoint struct {
	EndpointID string `json:"endpointId"`
}

type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

type Context struct {
	Properties []Property `json:"properties,omitempty"`
}

type Property struct {
	Namespace                 string      `json:"namespace"`
	Name                      string      `json:"name"`
	Value                     interface{} `json:"value"`
	TimeOfSample              string      `json:"timeOfSample"`
	UncertaintyInMilliseconds int         `json:"uncertaintyInMilliseconds"`
}

type Event struct {
	Header   Header      `json:"header"`
	Endpoint *Endpoint   `json:"endpoint,omitempty"`
	Payload  interface{} `json:"payload"`
}

type DiscoveryPayload struct {
	Endpoints []DiscoveryEndpoint `json:"endpoints"`
}

type DiscoveryEndpoint struct {
	EndpointID        string       `json:"endpointId"`
	ManufacturerName  string       `json:"manufacturerName"`
	FriendlyName      string       `json:"friendlyName"`
	Description       string       `json:"description"`
	DisplayCategories []string     `json:"displayCategories"`
	Capabilities      []Capability `json:"capabilities"`
}

type Capability struct {
	Type       string                `json:"type"`
	Interface  string                `json:"interface"`
	Version    string                `json:"version"`
	Properties *CapabilityProperties `json:"properties,omitempty"`
}

type CapabilityProperties struct {
	Supported           []SupportedProperty `json:"supported,omitempty"`
	ProactivelyReported bool                `json:"proactivelyReported"`
	Retrievable         bool                `json:"retrievable"`
}

type SupportedProperty struct {
	Name string `json:"name"`
}

type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
