package domain

import "time"

// SendReport summarises one transmission attempt made by the line.
type SendReport struct {
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient"`
	Emitter   Identity  `json:"emitter"`
	EncoderID string    `json:"encoder_id"`
	At        time.Time `json:"at"`
	Outcome   Outcome   `json:"outcome"`
	// Received counts the receivers that decoded the message.
	Received int `json:"received"`
	// Decoded is the text the first successful receiver decoded.
	Decoded string `json:"decoded,omitempty"`
	// FailedComponent names the first component whose error the outcome reports.
	FailedComponent string `json:"failed_component,omitempty"`
}
