package domain

// Event names exchanged over the real-time transport.
// "typing" and "stop typing" travel in both directions.
const (
	EventSetup      = "setup"
	EventJoinChat   = "join chat"
	EventNewMessage = "new message"
	EventTyping     = "typing"
	EventStopTyping = "stop typing"

	EventConnected       = "connected"
	EventMessageReceived = "message received"
)
