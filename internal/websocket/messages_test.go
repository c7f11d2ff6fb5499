package websocket

import (
	"encoding/json"
	"testing"

	"github.com/rishithkoduri/web-translator/domain/entities"
)

func TestMessageValidator_Commands(t *testing.T) {
	validator := NewMessageValidator()

	for _, msgType := range []MessageType{MessageTypeToggle, MessageTypeReplay} {
		msg, err := validator.ValidateMessage([]byte(`{"type":"` + string(msgType) + `"}`))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", msgType, err)
		}
		cmd, ok := msg.(*CommandMessage)
		if !ok {
			t.Fatalf("%s: expected *CommandMessage, got %T", msgType, msg)
		}
		if cmd.Type != msgType {
			t.Errorf("expected type %s, got %s", msgType, cmd.Type)
		}
	}
}

func TestMessageValidator_SelectLanguage(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{"valid", `{"type":"select_language","language":"fr"}`, false},
		{"unknown code is passed through", `{"type":"select_language","language":"xx"}`, false},
		{"missing language", `{"type":"select_language"}`, true},
		{"blank language", `{"type":"select_language","language":"  "}`, true},
		{"wrong type", `{"type":"select_language","language":5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := msg.(*SelectLanguageMessage); !ok {
				t.Errorf("expected *SelectLanguageMessage, got %T", msg)
			}
		})
	}
}

func TestMessageValidator_RecognitionEvents(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name    string
		message string
		want    interface{}
		wantErr bool
	}{
		{
			name:    "result",
			message: `{"type":"recognition_result","generation":3,"transcript":"hello"}`,
			want:    &RecognitionResultMessage{},
		},
		{
			name:    "empty transcript is allowed",
			message: `{"type":"recognition_result","generation":3,"transcript":""}`,
			want:    &RecognitionResultMessage{},
		},
		{
			name:    "result without generation",
			message: `{"type":"recognition_result","transcript":"hello"}`,
			wantErr: true,
		},
		{
			name:    "end",
			message: `{"type":"recognition_end","generation":1}`,
			want:    &RecognitionEndMessage{},
		},
		{
			name:    "end without generation",
			message: `{"type":"recognition_end"}`,
			wantErr: true,
		},
		{
			name:    "error",
			message: `{"type":"recognition_error","generation":2,"error":"no-speech"}`,
			want:    &RecognitionErrorMessage{},
		},
		{
			name:    "error without reason",
			message: `{"type":"recognition_error","generation":2}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			switch tt.want.(type) {
			case *RecognitionResultMessage:
				m, ok := msg.(*RecognitionResultMessage)
				if !ok || m.Generation != 3 {
					t.Errorf("unexpected message %#v", msg)
				}
			case *RecognitionEndMessage:
				m, ok := msg.(*RecognitionEndMessage)
				if !ok || m.Generation != 1 {
					t.Errorf("unexpected message %#v", msg)
				}
			case *RecognitionErrorMessage:
				m, ok := msg.(*RecognitionErrorMessage)
				if !ok || m.Generation != 2 || m.Error != "no-speech" {
					t.Errorf("unexpected message %#v", msg)
				}
			}
		})
	}
}

func TestMessageValidator_ValidatePing(t *testing.T) {
	validator := NewMessageValidator()

	msg, err := validator.ValidateMessage([]byte(`{"type":"ping","data":"abc"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ping, ok := msg.(*PingMessage)
	if !ok {
		t.Fatalf("expected *PingMessage, got %T", msg)
	}
	if ping.Data != "abc" {
		t.Errorf("expected data abc, got %s", ping.Data)
	}
}

func TestMessageValidator_InvalidJSON(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type": "toggle"`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMessageValidator_UnsupportedMessageType(t *testing.T) {
	validator := NewMessageValidator()

	if _, err := validator.ValidateMessage([]byte(`{"type":"audio_chunk"}`)); err == nil {
		t.Error("expected error for unsupported message type")
	}
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage(ErrorCodeUnknownLanguage, "unknown language", "select_language")

	if msg.Type != MessageTypeError {
		t.Errorf("expected type %s, got %s", MessageTypeError, msg.Type)
	}
	if msg.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["error_code"] != ErrorCodeUnknownLanguage {
		t.Errorf("expected error_code %s, got %v", ErrorCodeUnknownLanguage, decoded["error_code"])
	}
	if decoded["details"] != "select_language" {
		t.Errorf("expected details, got %v", decoded["details"])
	}
}

func TestCreatePongMessage(t *testing.T) {
	msg := CreatePongMessage("abc")
	if msg.Type != MessageTypePong || msg.Data != "abc" {
		t.Errorf("unexpected pong %#v", msg)
	}
}

func TestCreateStateMessage(t *testing.T) {
	state := entities.NewSessionState("fr")
	if err := state.BeginListening(); err != nil {
		t.Fatalf("BeginListening: %v", err)
	}

	data, err := json.Marshal(CreateStateMessage(state))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Type  string `json:"type"`
		State struct {
			Phase          string `json:"phase"`
			Status         string `json:"status"`
			TargetLanguage string `json:"target_language"`
			Listening      bool   `json:"listening"`
		} `json:"state"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded.Type != "state" {
		t.Errorf("expected type state, got %s", decoded.Type)
	}
	if decoded.State.Phase != "listening" || !decoded.State.Listening {
		t.Errorf("expected listening state, got %+v", decoded.State)
	}
	if decoded.State.Status != entities.StatusListening {
		t.Errorf("expected status %q, got %q", entities.StatusListening, decoded.State.Status)
	}
	if decoded.State.TargetLanguage != "fr" {
		t.Errorf("expected target fr, got %s", decoded.State.TargetLanguage)
	}
}

func TestCreateEventMessage(t *testing.T) {
	msg := CreateEventMessage("speak", map[string]interface{}{"text": "hola", "type": "ignored"})

	if msg["type"] != "speak" {
		t.Errorf("expected type speak, got %v", msg["type"])
	}
	if msg["text"] != "hola" {
		t.Errorf("expected text hola, got %v", msg["text"])
	}
	if _, ok := msg["timestamp"]; !ok {
		t.Error("expected timestamp")
	}
}
