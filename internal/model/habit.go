package model

import "time"

type Habit struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Frequency   string    `json:"frequency"`
	// SelectedDays holds the configured weekdays (0=Sunday .. 6=Saturday)
	// when Frequency is "custom"; nil otherwise.
	SelectedDays []int     `json:"selected_days,omitempty"`
	Color        string    `json:"color"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type HabitInvitation struct {
	ID           int64     `json:"id"`
	HabitID      int64     `json:"habit_id"`
	SharedWithID int64     `json:"shared_with_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Completion struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	HabitID      int64     `json:"habit_id"`
	Day          time.Time `json:"day"`
	Completed    bool      `json:"completed"`
	MediaPath    *string   `json:"media_path"`
	MediaKind    *string   `json:"media_kind"`
	MediaCaption *string   `json:"media_caption"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Participation is a habit together with the querying user's role in it and
// the date their completions start counting.
type Participation struct {
	Habit    Habit     `json:"habit"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
