package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypeToggle            MessageType = "toggle"
	MessageTypeReplay            MessageType = "replay"
	MessageTypeSelectLanguage    MessageType = "select_language"
	MessageTypeRecognitionResult MessageType = "recognition_result"
	MessageTypeRecognitionEnd    MessageType = "recognition_end"
	MessageTypeRecognitionError  MessageType = "recognition_error"
	MessageTypePing              MessageType = "ping"
)

// Server to client message types. Provider events (recognition_start,
// speak, speaking_start...) are sent with their own type names.
const (
	MessageTypeState MessageType = "state"
	MessageTypePong  MessageType = "pong"
	MessageTypeError MessageType = "error"
)

// Error codes sent in error messages
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeUnsupportedHost = "unsupported_host"
	ErrorCodeRecognition     = "recognition_error"
	ErrorCodeUnknownLanguage = "unknown_language"
	ErrorCodeNothingToReplay = "nothing_to_replay"
	ErrorCodeInternal        = "internal_error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// CommandMessage is a user command without arguments (toggle, replay)
type CommandMessage struct {
	BaseMessage
}

// SelectLanguageMessage changes the target language
type SelectLanguageMessage struct {
	BaseMessage
	Language string `json:"language"`
}

// RecognitionResultMessage carries a final transcript from the browser
type RecognitionResultMessage struct {
	BaseMessage
	Generation uint64 `json:"generation"`
	Transcript string `json:"transcript"`
}

// RecognitionEndMessage reports the end of a browser recognition session
type RecognitionEndMessage struct {
	BaseMessage
	Generation uint64 `json:"generation"`
}

// RecognitionErrorMessage reports a browser recognition error
type RecognitionErrorMessage struct {
	BaseMessage
	Generation uint64 `json:"generation"`
	Error      string `json:"error"`
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StateView is the session state as shown to clients
type StateView struct {
	entities.SessionState
	Listening bool `json:"listening"`
}

// StateMessage pushes a session state snapshot
type StateMessage struct {
	BaseMessage
	State StateView `json:"state"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct{}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{}
}

// ValidateMessage parses and validates an incoming message
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch base.Type {
	case MessageTypeToggle, MessageTypeReplay:
		return &CommandMessage{BaseMessage: base}, nil

	case MessageTypeSelectLanguage:
		var msg SelectLanguageMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid select_language message: %w", err)
		}
		if strings.TrimSpace(msg.Language) == "" {
			return nil, fmt.Errorf("language is required")
		}
		return &msg, nil

	case MessageTypeRecognitionResult:
		var msg RecognitionResultMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid recognition_result message: %w", err)
		}
		if msg.Generation == 0 {
			return nil, fmt.Errorf("generation is required")
		}
		return &msg, nil

	case MessageTypeRecognitionEnd:
		var msg RecognitionEndMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid recognition_end message: %w", err)
		}
		if msg.Generation == 0 {
			return nil, fmt.Errorf("generation is required")
		}
		return &msg, nil

	case MessageTypeRecognitionError:
		var msg RecognitionErrorMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid recognition_error message: %w", err)
		}
		if msg.Generation == 0 {
			return nil, fmt.Errorf("generation is required")
		}
		if msg.Error == "" {
			return nil, fmt.Errorf("error is required")
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			return nil, fmt.Errorf("invalid ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong),
		Data:        data,
	}
}

// CreateStateMessage creates a state push message
func CreateStateMessage(state entities.SessionState) *StateMessage {
	return &StateMessage{
		BaseMessage: newBase(MessageTypeState),
		State: StateView{
			SessionState: state,
			Listening:    state.Listening(),
		},
	}
}

// CreateEventMessage creates a provider event message; payload fields are
// merged next to type and timestamp
func CreateEventMessage(eventType string, payload map[string]interface{}) map[string]interface{} {
	msg := make(map[string]interface{}, len(payload)+2)
	for k, v := range payload {
		msg[k] = v
	}
	msg["type"] = eventType
	msg["timestamp"] = time.Now().Format(time.RFC3339)
	return msg
}
