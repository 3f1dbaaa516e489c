package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Message types accepted by Handle.
const (
	GetState      = "GET_STATE"
	EnableReader  = "ENABLE_READER"
	DisableReader = "DISABLE_READER"
	UpdateStyles  = "UPDATE_STYLES"
)

// Message is a request from the popup or host.
type Message struct {
	Type        string            `json:"type"`
	Preferences *StylePreferences `json:"preferences,omitempty"`
}

// Response answers a Message. Enabled always reports the state after the
// message was handled.
type Response struct {
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

// Handle processes one message. It never panics; failures are reported in
// the response.
func (s *Session) Handle(ctx context.Context, msg Message) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("type", msg.Type).Msg("message handler panicked")
			resp = Response{Enabled: s.Enabled(), Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	var err error
	switch msg.Type {
	case GetState:
	case EnableReader:
		err = s.Enable(ctx)
	case DisableReader:
		err = s.Disable()
	case UpdateStyles:
		if msg.Preferences == nil {
			err = fmt.Errorf("%w: missing preferences", ErrInvalidStyles)
			break
		}
		err = s.UpdateStyles(ctx, *msg.Preferences)
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	resp.Enabled = s.Enabled()
	if err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("message failed")
		resp.Error = err.Error()
	}
	return resp
}

// HandleJSON decodes a JSON message, handles it and encodes the response.
func (s *Session) HandleJSON(ctx context.Context, data []byte) []byte {
	var msg Message
	var resp Response
	if err := json.Unmarshal(data, &msg); err != nil {
		resp = Response{Enabled: s.Enabled(), Error: fmt.Sprintf("decode message: %v", err)}
	} else {
		resp = s.Handle(ctx, msg)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Response holds only a bool and a string.
		return []byte(`{"enabled":false,"error":"encode response"}`)
	}
	return out
}
