// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern. The dashboard
// runs one hub per event feed (status, conversation events).
package hub

// Message is a JSON-encoded payload to be broadcast to clients.
type Message struct {
	Data []byte
}

// NewMessage wraps pre-encoded JSON bytes.
func NewMessage(data []byte) Message {
	return Message{Data: data}
}
