package model

import "time"

type WorkOrder struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	HourPrice float64   `json:"hour_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WorkOrderEntry struct {
	ID          int64      `json:"id"`
	WorkOrderID int64      `json:"work_order_id"`
	CreatedBy   *int64     `json:"created_by"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type WorkOrderShare struct {
	ID           int64     `json:"id"`
	WorkOrderID  int64     `json:"work_order_id"`
	SharedWithID int64     `json:"shared_with_id"`
	Permission   string    `json:"permission"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
