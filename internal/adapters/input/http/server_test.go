package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo-hue-bridge/internal/adapters/output/hostenv"
	"echo-hue-bridge/internal/domain/alexadirective"
	"echo-hue-bridge/internal/domain/dispatch"
	"echo-hue-bridge/internal/domain/model"
)

const (
	defaultTestWait = time.Second
	defaultTestTick = 10 * time.Millisecond
)

func newTestServer(t *testing.T) (*Server, *hostenv.Memory) {
	t.Helper()
	host := hostenv.New()
	require.NoError(t, host.CreateNode(context.Background(), "light", "dev-1", "0123456789abcdef", "Living Room Lamp"))

	hub := &model.Hub{ID: "0123456789abcdef", Port: 80, IP: "10.0.0.5"}
	dispatcher := dispatch.New(host, zerolog.Nop())
	return NewServer(hub, host, dispatcher, zerolog.Nop()), host
}

func TestHandleDescription_ReturnsBridgeXML(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/description.xml", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PhilipsHueBridge")
	assert.Contains(t, rec.Body.String(), s.hub.BridgeUUID())
}

func TestHandleDescription_WrongVerbReturns405(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/description.xml", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlePair_ReturnsUsername(t *testing.T) {
	s, _ := newTestServer(t)
	body := bytes.NewBufferString(`{"devicetype":"echo"}`)
	req := httptest.NewRequest(http.MethodPost, "/api", body)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp[0]["success"]["username"])
}

func TestHandleGetLights_ListsRegisteredDevices(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/someuser/lights", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var lights map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lights))
	require.Contains(t, lights, "1")
	assert.Equal(t, "Living Room Lamp", lights["1"]["name"])
}

func TestHandleGetLight_UnknownIDReturnsHueNotFoundEnvelope(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/someuser/lights/999", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp []map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp[0]["error"]["type"])
}

func TestHandleSetLightState_OnWinsAndEchoesOnlyConsumedKey(t *testing.T) {
	s, host := newTestServer(t)
	body := bytes.NewBufferString(`{"on":true,"bri":200}`)
	req := httptest.NewRequest(http.MethodPut, "/api/someuser/lights/1/state", body)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	_, hasOnKey := resp[0]["success"]["/lights/1/state/on"]
	assert.True(t, hasOnKey)

	assert.Eventually(t, func() bool {
		v, ok := host.LastPayload("dev-1", "power")
		return ok && v == "ON"
	}, defaultTestWait, defaultTestTick)
}

func TestHandleSetLightState_InvalidBodyReturnsHueError6(t *testing.T) {
	s, _ := newTestServer(t)
	body := bytes.NewBufferString(`not json`)
	req := httptest.NewRequest(http.MethodPut, "/api/someuser/lights/1/state", body)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp []map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(6), resp[0]["error"]["type"])
}

func TestHandleAlexaDiscovery_ReturnsRegisteredEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	reqBody, _ := json.Marshal(alexadirective.Request{
		Directive: alexadirective.Directive{
			Header: alexadirective.Header{Namespace: "Alexa.Discovery", Name: "Discover", MessageID: "m1"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/alexa", bytes.NewReader(reqBody))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp alexadirective.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	payload := resp.Event.Payload.(map[string]interface{})
	endpoints := payload["endpoints"].([]interface{})
	require.Len(t, endpoints, 1)
	assert.Equal(t, "m1", resp.Event.Header.MessageID)
}

func TestHandleAlexaDirective_UnknownEndpointReturnsEndpointUnreachable(t *testing.T) {
	s, _ := newTestServer(t)
	reqBody, _ := json.Marshal(alexadirective.Request{
		Directive: alexadirective.Directive{
			Header:   alexadirective.Header{Namespace: "Alexa.PowerController", Name: "TurnOn", MessageID: "m2"},
			Endpoint: &alexadirective.Endpoint{EndpointID: "missing"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/alexa", bytes.NewReader(reqBody))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp alexadirective.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ErrorResponse", resp.Event.Header.Name)
	payload := resp.Event.Payload.(map[string]interface{})
	assert.Equal(t, alexadirective.ErrTypeEndpointUnreachable, payload["type"])
}

func TestHandleAlexaDirective_TurnOnDispatchesAndRespondsWithProperty(t *testing.T) {
	s, host := newTestServer(t)
	reqBody, _ := json.Marshal(alexadirective.Request{
		Directive: alexadirective.Directive{
			Header:   alexadirective.Header{Namespace: "Alexa.PowerController", Name: "TurnOn", MessageID: "m3", CorrelationToken: "tok"},
			Endpoint: &alexadirective.Endpoint{EndpointID: "dev-1"},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/alexa", bytes.NewReader(reqBody))
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp alexadirective.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tok", resp.Event.Header.CorrelationToken)
	assert.Equal(t, "m3", resp.Event.Header.MessageID)
	require.NotNil(t, resp.Context)
	assert.Equal(t, "powerState", resp.Context.Properties[0].Name)

	assert.Eventually(t, func() bool {
		v, ok := host.LastPayload("dev-1", "power")
		return ok && v == "ON"
	}, defaultTestWait, defaultTestTick)
}

func TestHandleStatus_ReportsDeviceCount(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["device_count"])
}
