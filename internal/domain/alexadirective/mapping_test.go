package alexadirective

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/domain/registry"
)

func TestMapDirectiveToEvent_PowerController(t *testing.T) {
	event, prop, err := MapDirectiveToEvent("Alexa.PowerController", "TurnOn", nil)
	require.NoError(t, err)
	assert.Equal(t, model.TopicPower, event.Topic)
	assert.Equal(t, "ON", event.Payload)
	assert.Equal(t, "powerState", prop)

	event, _, err = MapDirectiveToEvent("Alexa.PowerController", "TurnOff", nil)
	require.NoError(t, err)
	assert.Equal(t, "OFF", event.Payload)
}

func TestMapDirectiveToEvent_SetBrightness(t *testing.T) {
	payload, _ := json.Marshal(map[string]interface{}{"brightness": 42})
	event, prop, err := MapDirectiveToEvent("Alexa.BrightnessController", "SetBrightness", payload)
	require.NoError(t, err)
	assert.Equal(t, model.TopicBrightness, event.Topic)
	assert.Equal(t, float64(42), event.Payload)
	assert.Equal(t, "brightness", prop)
}

func TestMapDirectiveToEvent_UnsupportedDirectiveErrors(t *testing.T) {
	_, _, err := MapDirectiveToEvent("Alexa.LockController", "Lock", nil)
	assert.Error(t, err)
}

func TestBuildDiscoveryResponse_FourFixedCapabilitiesPerEndpoint(t *testing.T) {
	entries := []registry.Entry{{DeviceID: "dev-1", Name: "<b>Lamp</b>", Index: 1, UniqueID: "u1"}}
	resp := BuildDiscoveryResponse(Header{MessageID: "req-0"}, entries)

	require.Len(t, resp.Event.Payload.(DiscoveryPayload).Endpoints, 1)
	ep := resp.Event.Payload.(DiscoveryPayload).Endpoints[0]
	assert.Equal(t, "Lamp", ep.FriendlyName)
	assert.Len(t, ep.Capabilities, 4)
	assert.Equal(t, "Alexa.Discovery", resp.Event.Header.Namespace)
	assert.Equal(t, "Discover.Response", resp.Event.Header.Name)
	assert.Equal(t, "req-0", resp.Event.Header.MessageID)
}

func TestBuildDiscoveryResponse_GeneratesMessageIDWhenRequestHasNone(t *testing.T) {
	resp := BuildDiscoveryResponse(Header{}, nil)
	assert.NotEmpty(t, resp.Event.Header.MessageID)
}

func TestBuildDirectiveResponse_EchoesCorrelationTokenAndTimestampFormat(t *testing.T) {
	header := Header{MessageID: "req-1", CorrelationToken: "tok-1"}
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)
	resp := BuildDirectiveResponse(header, "ep-1", "Alexa.PowerController", "powerState", "ON", now)

	assert.Equal(t, "tok-1", resp.Event.Header.CorrelationToken)
	assert.Equal(t, "req-1", resp.Event.Header.MessageID)
	assert.Equal(t, "2026-08-03T12:00:00.000Z", resp.Context.Properties[0].TimeOfSample)
	assert.Equal(t, "ep-1", resp.Event.Endpoint.EndpointID)
}

func TestBuildErrorResponse_EchoesRequestMessageID(t *testing.T) {
	header := Header{MessageID: "req-2", CorrelationToken: "tok-2"}
	resp := BuildErrorResponse(header, ErrTypeEndpointUnreachable, "gone")

	assert.Equal(t, "req-2", resp.Event.Header.MessageID)
	assert.Equal(t, "ErrorResponse", resp.Event.Header.Name)
	payload := resp.Event.Payload.(ErrorPayload)
	assert.Equal(t, ErrTypeEndpointUnreachable, payload.Type)
}
