package model

import "time"

// Code is one verification code handed out to a phone number.
type Code struct {
	ID         int64     `db:"id"          json:"id"`
	CustomerID int64     `db:"customer_id" json:"customer_id"`
	Phone      string    `db:"phone"       json:"phone"`
	Code       string    `db:"code"        json:"-"`
	MessageID  string    `db:"message_id"  json:"message_id"` // audit row of the send
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}
