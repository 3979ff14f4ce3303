package session

import (
	"encoding/json"
	"testing"

	"github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"
)

func TestServerMessageWireShape(t *testing.T) {
	tests := []struct {
		name string
		msg  *ServerMessage
		want string
	}{
		{
			name: "connection",
			msg:  ConnectionMessage("small", "cuda"),
			want: `{"type":"connection","status":"connected","model":"small","device":"cuda"}`,
		},
		{
			name: "status",
			msg:  StatusMessage("Processing audio..."),
			want: `{"type":"status","message":"Processing audio..."}`,
		},
		{
			name: "transcription",
			msg:  TranscriptionMessage(&whisper.Segment{Text: "hi", Start: 0, End: 1.5}),
			want: `{"type":"transcription","text":"hi","start":0,"end":1.5,"final":true}`,
		},
		{
			name: "error",
			msg:  ErrorMessage("Failed to load model"),
			want: `{"type":"error","message":"Failed to load model"}`,
		},
		{
			name: "model changed",
			msg:  ModelChangedMessage("base", "cpu"),
			want: `{"type":"model_changed","model":"base","device":"cpu"}`,
		},
		{
			name: "pong",
			msg:  PongMessage(),
			want: `{"type":"pong"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("expected %s, got %s", tt.want, string(data))
			}
		})
	}
}

func TestTranscriptionMessageKeepsZeroStart(t *testing.T) {
	msg := TranscriptionMessage(&whisper.Segment{Text: "x", Start: 0, End: 0})
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := decoded["start"]; !ok {
		t.Error("zero start timestamp dropped from wire message")
	}
	if _, ok := decoded["end"]; !ok {
		t.Error("zero end timestamp dropped from wire message")
	}
}

func TestClientMessageDecoding(t *testing.T) {
	raw := `{"type":"audio","data":"AAAA","format":"webm"}`
	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != MessageTypeAudio {
		t.Errorf("expected audio, got %s", msg.Type)
	}
	if msg.Format != "webm" {
		t.Errorf("expected webm, got %s", msg.Format)
	}
}
