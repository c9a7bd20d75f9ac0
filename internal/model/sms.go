package model

// SMS is a send request as accepted by the HTTP API and the Kafka consumer.
type SMS struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}
