package model

import "time"

type MessageStatus string

const (
	StatusSent     MessageStatus = "sent"     // gateway answered 2xx
	StatusRejected MessageStatus = "rejected" // gateway answered non-2xx
	StatusFailed   MessageStatus = "failed"   // no response (transport error)
)

func (s MessageStatus) String() string {
	return string(s)
}

func (s MessageStatus) Valid() bool {
	return s == StatusSent || s == StatusRejected || s == StatusFailed
}

// Message is one send attempt as recorded in the messages table.
type Message struct {
	ID              string        `db:"id"              json:"id"`
	CustomerID      int64         `db:"customer_id"     json:"customer_id"`
	Phone           string        `db:"phone"           json:"phone"`
	Text            string        `db:"text"            json:"text"`
	BrokerMessageID string        `db:"broker_msg_id"   json:"message_id"`
	Status          MessageStatus `db:"status"          json:"status"`
	StatusCode      int           `db:"status_code"     json:"status_code"`
	Response        string        `db:"response"        json:"body"`
	Error           string        `db:"error"           json:"error,omitempty"`
	CreatedAt       time.Time     `db:"created_at"      json:"created_at"`
}

// Legacy renders the send the way the old text-only contract did:
// the error description for a transport failure, otherwise the raw body.
func (m Message) Legacy() string {
	if m.Status == StatusFailed {
		return m.Error
	}
	return m.Response
}
