package model

import "time"

const CustomerActive = "active"

// Customer is an API client allowed to call /v1.
type Customer struct {
	ID        int64     `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	APIKey    string    `db:"api_key"    json:"api_key"`
	Status    string    `db:"status"     json:"status"` // active|suspended
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (c Customer) Active() bool { return c.Status == CustomerActive }
