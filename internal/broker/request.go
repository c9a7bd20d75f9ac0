package broker

// Request is the JSON body accepted by the broker's send endpoint.
// It always carries exactly one message.
type Request struct {
	Messages []Message `json:"messages"`
}

type Message struct {
	Recipient string `json:"recipient"`
	MessageID string `json:"message-id"`
	SMS       SMS    `json:"sms"`
}

type SMS struct {
	Originator string  `json:"originator"`
	Content    Content `json:"content"`
}

type Content struct {
	Text string `json:"text"`
}

// NewRequest builds the single-message envelope.
func NewRequest(originator, phone, messageID, text string) Request {
	return Request{
		Messages: []Message{
			{
				Recipient: phone,
				MessageID: messageID,
				SMS: SMS{
					Originator: originator,
					Content:    Content{Text: text},
				},
			},
		},
	}
}
