package huefacade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/domain/registry"
)

func TestNewLight_StripsHTMLFromName(t *testing.T) {
	l := NewLight("<script>Lamp</script>", "uid-1")
	assert.Equal(t, "Lamp", l.Name)
	assert.Equal(t, "LCT015", l.ModelID)
	assert.True(t, l.State.Reachable)
}

func TestBuildLights_KeyedByIndex(t *testing.T) {
	entries := []registry.Entry{
		{DeviceID: "a", Name: "A", Index: 1, UniqueID: "u-a"},
		{DeviceID: "b", Name: "B", Index: 2, UniqueID: "u-b"},
	}
	lights := BuildLights(entries)
	require.Len(t, lights, 2)
	assert.Equal(t, "A", lights["1"].Name)
	assert.Equal(t, "B", lights["2"].Name)
}

func TestMapPutToEvent_OnTakesPrecedenceOverEverything(t *testing.T) {
	event, consumed, ok := MapPutToEvent(map[string]interface{}{"on": true, "bri": float64(100)})
	require.True(t, ok)
	assert.Equal(t, model.TopicPower, event.Topic)
	assert.Equal(t, "ON", event.Payload)
	assert.Equal(t, []string{"on"}, consumed)
}

func TestMapPutToEvent_BriAloneMapsToBrightnessPercent(t *testing.T) {
	event, consumed, ok := MapPutToEvent(map[string]interface{}{"bri": float64(127)})
	require.True(t, ok)
	assert.Equal(t, model.TopicBrightness, event.Topic)
	assert.InDelta(t, 50, event.Payload.(int), 1)
	assert.Equal(t, []string{"bri"}, consumed)
}

func TestMapPutToEvent_HueAndSatWinOverBriAndConsumeIt(t *testing.T) {
	event, consumed, ok := MapPutToEvent(map[string]interface{}{"hue": float64(100), "sat": float64(254), "bri": float64(254)})
	require.True(t, ok)
	assert.Equal(t, model.TopicColor, event.Topic)
	payload := event.Payload.(model.ColorPayload)
	assert.Equal(t, float64(100), payload.Hue)
	assert.Equal(t, []string{"hue", "sat", "bri"}, consumed)
}

func TestMapPutToEvent_XYMapsToColor(t *testing.T) {
	event, consumed, ok := MapPutToEvent(map[string]interface{}{"xy": []interface{}{0.3, 0.3}})
	require.True(t, ok)
	assert.Equal(t, model.TopicColor, event.Topic)
	assert.Equal(t, []string{"xy"}, consumed)
}

func TestMapPutToEvent_CTMapsToColor(t *testing.T) {
	event, consumed, ok := MapPutToEvent(map[string]interface{}{"ct": float64(300)})
	require.True(t, ok)
	assert.Equal(t, model.TopicColor, event.Topic)
	assert.Equal(t, []string{"ct"}, consumed)
}

func TestMapPutToEvent_EmptyBodyFails(t *testing.T) {
	_, _, ok := MapPutToEvent(map[string]interface{}{})
	assert.False(t, ok)
}
