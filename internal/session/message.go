package session

import "github.com/nikolabisercic/whisper-gpu-realtime/internal/whisper"

type MessageType string

// Client-to-server message kinds.
const (
	MessageTypeAudio       MessageType = "audio"
	MessageTypeChangeModel MessageType = "change_model"
	MessageTypePing        MessageType = "ping"
)

// Server-to-client message kinds.
const (
	MessageTypeConnection    MessageType = "connection"
	MessageTypeStatus        MessageType = "status"
	MessageTypeTranscription MessageType = "transcription"
	MessageTypeError         MessageType = "error"
	MessageTypeModelChanged  MessageType = "model_changed"
	MessageTypePong          MessageType = "pong"
)

// ClientMessage is the decoded form of every inbound message. Which fields
// are meaningful depends on Type; dispatch switches exhaustively on it.
type ClientMessage struct {
	Type   MessageType `json:"type"`
	Data   string      `json:"data,omitempty"`
	Format string      `json:"format,omitempty"`
	Model  string      `json:"model,omitempty"`
}

// ServerMessage is the wire shape of every outbound message. Constructors
// below are the only way instances are built, so each type carries exactly
// the fields the protocol defines for it.
type ServerMessage struct {
	Type    MessageType `json:"type"`
	Status  string      `json:"status,omitempty"`
	Model   string      `json:"model,omitempty"`
	Device  string      `json:"device,omitempty"`
	Message string      `json:"message,omitempty"`
	Text    string      `json:"text,omitempty"`
	Start   *float64    `json:"start,omitempty"`
	End     *float64    `json:"end,omitempty"`
	Final   bool        `json:"final,omitempty"`
}

func ConnectionMessage(model, device string) *ServerMessage {
	return &ServerMessage{
		Type:   MessageTypeConnection,
		Status: "connected",
		Model:  model,
		Device: device,
	}
}

func StatusMessage(text string) *ServerMessage {
	return &ServerMessage{Type: MessageTypeStatus, Message: text}
}

func TranscriptionMessage(seg *whisper.Segment) *ServerMessage {
	start := seg.Start
	end := seg.End
	return &ServerMessage{
		Type:  MessageTypeTranscription,
		Text:  seg.Text,
		Start: &start,
		End:   &end,
		Final: true,
	}
}

func ErrorMessage(text string) *ServerMessage {
	return &ServerMessage{Type: MessageTypeError, Message: text}
}

func ModelChangedMessage(model, device string) *ServerMessage {
	return &ServerMessage{Type: MessageTypeModelChanged, Model: model, Device: device}
}

func PongMessage() *ServerMessage {
	return &ServerMessage{Type: MessageTypePong}
}
