package model

// Envelope is the payload consumed from Kafka.
type Envelope struct {
	ID     string `json:"id"`      // producer-side id, used for logging only
	UserID int64  `json:"user_id"` // customer id, 0 for internal producers
	SMS    SMS    `json:"sms"`
}
