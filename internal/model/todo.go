package model

import "time"

type Todo struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Day         time.Time  `json:"day"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
