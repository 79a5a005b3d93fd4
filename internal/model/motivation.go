package model

import "time"

type Motivation struct {
	ID                   int64     `json:"id"`
	SenderID             int64     `json:"sender_id"`
	ReceiverID           int64     `json:"receiver_id"`
	Message              string    `json:"message"`
	ImagePath            *string   `json:"image_path"`
	ReceiverClosed       bool      `json:"receiver_closed"`
	ReceiverMessage      *string   `json:"receiver_message"`
	SenderClosedResponse bool      `json:"sender_closed_response"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
