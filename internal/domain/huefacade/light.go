// Package huefacade holds the Hue v1 REST Facade's pure domain logic
// (spec.md §4.D): the light-object JSON shape Echo expects and the
// PUT-body-to-SemanticEvent mapping. HTTP specifics (status codes,
// routing, body-size limits) live in the adapter.
package huefacade

import (
	"math"
	"strconv"

	"github.com/amimof/huego"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/domain/registry"
	"echo-hue-bridge/internal/htmlsanitize"
)

// LightState is the "state" object embedded in a Hue light. It embeds
// huego.State for the fields the real Hue v1 API defines (and which Echo's
// validator checks field-by-field), adding only Mode, which huego's client
// model has no use for but spec.md §4.D's literal shape requires. The
// bridge never tracks real device state; these are always the defaults —
// Echo only needs enough shape to accept the device.
type LightState struct {
	huego.State
	Mode string `json:"mode"`
}

func defaultState() LightState {
	return LightState{
		State: huego.State{
			On:        false,
			Bri:       254,
			Hue:       0,
			Sat:       254,
			Effect:    "none",
			Xy:        []float32{0, 0},
			Ct:        199,
			Alert:     "none",
			ColorMode: "ct",
			Reachable: true,
		},
		Mode: "homeautomation",
	}
}

// Light is the generated-not-stored Hue light object.
type Light struct {
	State            LightState `json:"state"`
	Type             string     `json:"type"`
	Name             string     `json:"name"`
	ModelID          string     `json:"modelid"`
	ManufacturerName string     `json:"manufacturername"`
	ProductName      string     `json:"productname"`
	UniqueID         string     `json:"uniqueid"`
	SWVersion        string     `json:"swversion"`
}

func NewLight(name, uniqueID string) Light {
	return Light{
		State:            defaultState(),
		Type:             "Extended color light",
		Name:             htmlsanitize.StripTags(name),
		ModelID:          "LCT015",
		ManufacturerName: "Signify",
		ProductName:      "Hue color lamp",
		UniqueID:         uniqueID,
		SWVersion:        "1.46.13",
	}
}

// BuildLights maps every registry entry to its Hue light object, keyed by
// the dense string index Echo's /lights listing expects.
func BuildLights(entries []registry.Entry) map[string]Light {
	out := make(map[string]Light, len(entries))
	for _, e := range entries {
		out[strconv.Itoa(e.Index)] = NewLight(e.Name, e.UniqueID)
	}
	return out
}

// MapPutToEvent implements the PUT precedence table in spec.md §4.D: the
// first matching rule wins, and case 2 fires on bri alone only when hue and
// sat are both absent. The returned keys are exactly the body keys the
// winning rule consumed — spec.md §4.D's PUT success response echoes only
// those, not every key present in the request.
func MapPutToEvent(body map[string]interface{}) (model.SemanticEvent, []string, bool) {
	on, hasOn := body["on"]
	bri, hasBri := body["bri"]
	hue, hasHue := body["hue"]
	sat, hasSat := body["sat"]
	xy, hasXY := body["xy"]
	ct, hasCT := body["ct"]

	switch {
	case hasOn:
		onBool, _ := on.(bool)
		payload := "OFF"
		if onBool {
			payload = "ON"
		}
		return model.SemanticEvent{Topic: model.TopicPower, Payload: payload}, []string{"on"}, true

	case hasBri && !hasHue && !hasSat:
		pct := clamp(math.Round(toFloat(bri)/254*100), 0, 100)
		return model.SemanticEvent{Topic: model.TopicBrightness, Payload: int(pct)}, []string{"bri"}, true

	case hasHue && hasSat:
		event := model.SemanticEvent{Topic: model.TopicColor, Payload: model.ColorPayload{
			Hue:        hue,
			Saturation: toFloat(sat) / 254,
			Brightness: briOrDefault(body, hasBri, bri) / 254,
		}}
		return event, consumedKeys(hasBri, "hue", "sat"), true

	case hasXY:
		event := model.SemanticEvent{Topic: model.TopicColor, Payload: model.ColorPayload{
			XY:         xy,
			Brightness: briOrDefault(body, hasBri, bri) / 254,
		}}
		return event, consumedKeys(hasBri, "xy"), true

	case hasCT:
		event := model.SemanticEvent{Topic: model.TopicColor, Payload: model.ColorPayload{
			CT:         ct,
			Brightness: briOrDefault(body, hasBri, bri) / 254,
		}}
		return event, consumedKeys(hasBri, "ct"), true

	default:
		return model.SemanticEvent{}, nil, false
	}
}

func consumedKeys(hasBri bool, keys ...string) []string {
	if hasBri {
		keys = append(keys, "bri")
	}
	return keys
}

func briOrDefault(body map[string]interface{}, hasBri bool, bri interface{}) float64 {
	if hasBri {
		return toFloat(bri)
	}
	return 254
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
