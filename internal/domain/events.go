package domain

import "encoding/json"

// Event names on the display WebSocket.
const (
	EventGetConfig         = "get_config"
	EventUpdatePublication = "update_publication"
	EventBlink             = "blink"
)

// Envelope is the frame exchanged with display clients in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// BlinkPulse is the payload of a blink event.
type BlinkPulse struct {
	Color string `json:"color"`
}

// NewEnvelope marshals payload into a frame for event.
func NewEnvelope(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
