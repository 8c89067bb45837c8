package core

import "time"

// Message is a stored end-to-end encrypted message. The server never
// holds the keys to decrypt EncryptedContent or EncryptedSessionKey.
type Message struct {
	ID                  string    // Unique message identifier
	Sender              string    // Username of the sender
	Receiver            string    // Username of the receiver
	EncryptedContent    string    // Ciphertext, encrypted by the sender
	EncryptedSessionKey string    // Session key wrapped with the receiver's public key
	Signature           string    // Sender's signature over the content
	IV                  string    // Initialization vector used by the client
	Read                bool      // Whether the receiver has opened the message
	SentAt              time.Time // When the server accepted the message
}

// OutgoingMessage carries the client-supplied fields of a new message.
type OutgoingMessage struct {
	Receiver            string
	EncryptedContent    string
	EncryptedSessionKey string
	Signature           string
	IV                  string
}

// MessageSummary is an inbox listing entry without the message body.
type MessageSummary struct {
	ID     string
	Sender string
	Read   bool
	SentAt time.Time
}
