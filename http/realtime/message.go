package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/xy-planning-network/waypoint/http/route"
)

// ErrorEvent names the Message replying to an event that could not be handled.
const ErrorEvent = "error"

// A Message is a single frame exchanged over a realtime connection.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// An EventHandler answers the data sent with an event.
// A nil reply sends nothing back.
type EventHandler func(c *route.Context, data json.RawMessage) (any, error)

// inbound is a Message whose data is decoded by the EventHandler.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func decodeMessage(raw []byte) (inbound, error) {
	var in inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	if in.Event == "" {
		return in, fmt.Errorf("%w: missing event", ErrMalformed)
	}

	return in, nil
}
