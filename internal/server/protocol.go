package server

// MessageType tags frames pushed over /ws.
type MessageType string

const (
	MsgStatus MessageType = "status"
)

// Message is the envelope for every /ws frame.
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}
