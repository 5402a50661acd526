package alexadirective

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/domain/registry"
	"echo-hue-bridge/internal/htmlsanitize"
)

// MapDirectiveToEvent implements the directive-to-SemanticEvent table in
// spec.md §4.E. It returns the property name used to label the value in
// the success response's context.properties[0].
func MapDirectiveToEvent(namespace, name string, payload json.RawMessage) (model.SemanticEvent, string, error) {
	switch namespace + "." + name {
	case "Alexa.PowerController.TurnOn":
		return model.SemanticEvent{Topic: model.TopicPower, Payload: "ON"}, "powerState", nil

	case "Alexa.PowerController.TurnOff":
		return model.SemanticEvent{Topic: model.TopicPower, Payload: "OFF"}, "powerState", nil

	case "Alexa.BrightnessController.SetBrightness":
		var p struct {
			Brightness float64 `json:"brightness"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return model.SemanticEvent{}, "", err
		}
		return model.SemanticEvent{Topic: model.TopicBrightness, Payload: p.Brightness}, "brightness", nil

	case "Alexa.BrightnessController.AdjustBrightness":
		var p struct {
			BrightnessDelta float64 `json:"brightnessDelta"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return model.SemanticEvent{}, "", err
		}
		return model.SemanticEvent{Topic: model.TopicBrightness, Payload: p.BrightnessDelta}, "brightness", nil

	case "Alexa.ColorController.SetColor":
		var p struct {
			Color interface{} `json:"color"`
		}
		if err := json.Unmarshal(payload, &p); err != nil {
			return model.SemanticEvent{}, "", err
		}
		return model.SemanticEvent{Topic: model.TopicColor, Payload: p.Color}, "color", nil

	default:
		return model.SemanticEvent{}, "", fmt.Errorf("unsupported directive: %s.%s", namespace, name)
	}
}

func newMessageID() string {
	return uuid.NewString()
}

// responseMessageID echoes the request's messageId per spec.md §4.E,
// falling back to a generated id only when the request carried none.
func responseMessageID(requestMessageID string) string {
	if requestMessageID != "" {
		return requestMessageID
	}
	return newMessageID()
}

// BuildDiscoveryResponse implements spec.md §4.E's Alexa.Discovery.Discover
// contract: one endpoint per registry entry, each carrying the four fixed
// capabilities, with friendlyName HTML-sanitized. The response header
// echoes the request's messageId when present.
func BuildDiscoveryResponse(header Header, entries []registry.Entry) *Response {
	endpoints := make([]DiscoveryEndpoint, 0, len(entries))
	for _, e := range entries {
		endpoints = append(endpoints, DiscoveryEndpoint{
			EndpointID:        e.DeviceID,
			ManufacturerName:  "Signify",
			FriendlyName:      htmlsanitize.StripTags(e.Name),
			Description:       "Virtual light bridged by the local smart-home bridge emulator",
			DisplayCategories: []string{"LIGHT", "SWITCH"},
			Capabilities: []Capability{
				alexaInterfaceCapability(),
				powerControllerCapability(),
				brightnessControllerCapability(),
				colorControllerCapability(),
			},
		})
	}

	return &Response{
		Event: Event{
			Header: Header{
				Namespace:      "Alexa.Discovery",
				Name:           "Discover.Response",
				PayloadVersion: "3",
				MessageID:      responseMessageID(header.MessageID),
			},
			Payload: DiscoveryPayload{Endpoints: endpoints},
		},
	}
}

func alexaInterfaceCapability() Capability {
	return Capability{Type: "AlexaInterface", Interface: "Alexa", Version: "3"}
}

func powerControllerCapability() Capability {
	return Capability{
		Type:      "AlexaInterface",
		Interface: "Alexa.PowerController",
		Version:   "3",
		Properties: &CapabilityProperties{
			Supported:           []SupportedProperty{{Name: "powerState"}},
			ProactivelyReported: false,
			Retrievable:         true,
		},
	}
}

func brightnessControllerCapability() Capability {
	return Capability{
		Type:      "AlexaInterface",
		Interface: "Alexa.BrightnessController",
		Version:   "3",
		Properties: &CapabilityProperties{
			Supported:           []SupportedProperty{{Name: "brightness"}},
			ProactivelyReported: false,
			Retrievable:         true,
		},
	}
}

func colorControllerCapability() Capability {
	return Capability{
		Type:      "AlexaInterface",
		Interface: "Alexa.ColorController",
		Version:   "3",
		Properties: &CapabilityProperties{
			Supported:           []SupportedProperty{{Name: "color"}},
			ProactivelyReported: false,
			Retrievable:         true,
		},
	}
}

// BuildDirectiveResponse builds the success envelope for a mapped control
// directive, echoing correlationToken when present and reporting the new
// value with a millisecond-precision UTC timestamp.
func BuildDirectiveResponse(header Header, endpointID, propNamespace, propName string, value interface{}, now time.Time) *Response {
	return &Response{
		Context: &Context{Properties: []Property{{
			Namespace:                 propNamespace,
			Name:                      propName,
			Value:                     value,
			TimeOfSample:              now.UTC().Format("2006-01-02T15:04:05.000Z"),
			UncertaintyInMilliseconds: 0,
		}}},
		Event: Event{
			Header: Header{
				Namespace:        "Alexa",
				Name:             "Response",
				PayloadVersion:   "3",
				MessageID:        responseMessageID(header.MessageID),
				CorrelationToken: header.CorrelationToken,
			},
			Endpoint: &Endpoint{EndpointID: endpointID},
			Payload:  map[string]interface{}{},
		},
	}
}

// BuildErrorResponse builds the ErrorResponse envelope, echoing the
// request's messageId and correlationToken per spec.md §4.E.
func BuildErrorResponse(header Header, errType, message string) *Response {
	return &Response{
		Event: Event{
			Header: Header{
				Namespace:        "Alexa",
				Name:             "ErrorResponse",
				PayloadVersion:   "3",
				MessageID:        header.MessageID,
				CorrelationToken: header.CorrelationToken,
			},
			Payload: ErrorPayload{Type: errType, Message: message},
		},
	}
}
