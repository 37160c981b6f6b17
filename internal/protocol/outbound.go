package protocol

// Notification levels for KindNotify.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// OverlayRequest asks the host to pick a file and send it back as a message
// of kind Type for the viewport at Index.
type OverlayRequest struct {
	Type  Kind `json:"type"`
	Index int  `json:"index"`
}

// Notification is a host-native message shown to the user.
type Notification struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Ready is the envelope sent once the engine can take messages.
func Ready() Envelope {
	return Envelope{Type: KindReady}
}

// DebugAnswer wraps the reply to a DebugRequest.
func DebugAnswer(body any) (Envelope, error) {
	return NewEnvelope(KindDebugAnswer, body)
}
