package broker

import "github.com/google/uuid"

const (
	MessageIDPrefix = "mxb"
	messageIDLength = 10
)

// IDSource produces a fresh globally-unique identifier per call.
// Implementations are expected to return at least 10 characters.
type IDSource interface {
	NewID() string
}

// UUIDSource is the default IDSource backed by random (v4) UUIDs.
type UUIDSource struct{}

func (UUIDSource) NewID() string { return uuid.NewString() }

// IDSourceFunc adapts a plain function to IDSource.
type IDSourceFunc func() string

func (f IDSourceFunc) NewID() string { return f() }

// MessageID derives the broker message-id from a raw identifier:
// the fixed prefix followed by the first 10 characters of raw.
// A shorter raw value is used whole.
func MessageID(raw string) string {
	r := []rune(raw)
	if len(r) > messageIDLength {
		r = r[:messageIDLength]
	}
	return MessageIDPrefix + string(r)
}
