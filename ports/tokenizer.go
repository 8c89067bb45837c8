package ports

// Tokenizer issues and verifies signed session tokens
type Tokenizer interface {
	// Issue creates a signed, time-bounded bearer token for subject
	Issue(subject string) (string, error)

	// Subject verifies a token and returns the subject it was issued for
	Subject(token string) (string, error)
}
