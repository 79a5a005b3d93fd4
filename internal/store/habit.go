package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

const dayLayout = "2006-01-02"

// utcDay truncates a driver-decoded DATE value to midnight UTC. The driver
// hands columns declared DATE back as time.Time already, so reads scan them
// directly instead of re-parsing text.
func utcDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type HabitStore struct {
	db *sql.DB
}

func NewHabitStore(db *sql.DB) *HabitStore {
	return &HabitStore{db: db}
}

func scanHabit(scanner interface{ Scan(...any) error }) (*model.Habit, error) {
	var h model.Habit
	var start, end time.Time
	var selectedDays sql.NullString

	err := scanner.Scan(
		&h.ID, &h.UserID, &h.Name, &h.Description, &start, &end,
		&h.Frequency, &selectedDays, &h.Color, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.StartDate = utcDay(start)
	h.EndDate = utcDay(end)
	if selectedDays.Valid && selectedDays.String != "" {
		if err := json.Unmarshal([]byte(selectedDays.String), &h.SelectedDays); err != nil {
			return nil, fmt.Errorf("parse selected_days: %w", err)
		}
	}
	return &h, nil
}

const habitCols = `id, user_id, name, description, start_date, end_date, frequency, selected_days, color, created_at, updated_at`

func marshalSelectedDays(days []int) (sql.NullString, error) {
	if len(days) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(days)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal selected_days: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (s *HabitStore) Create(userID int64, name, description string, startDate, endDate time.Time, frequency string, selectedDays []int, color string) (*model.Habit, error) {
	days, err := marshalSelectedDays(selectedDays)
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO habits (user_id, name, description, start_date, end_date, frequency, selected_days, color) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, name, description, startDate.Format(dayLayout), endDate.Format(dayLayout), frequency, days, color,
	)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *HabitStore) GetByID(id int64) (*model.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

// GetOwned fetches a habit only if the given user owns it.
func (s *HabitStore) GetOwned(id, userID int64) (*model.Habit, error) {
	row := s.db.QueryRow(`SELECT `+habitCols+` FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	h, err := scanHabit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get owned habit: %w", err)
	}
	return h, nil
}

func (s *HabitStore) ListByOwner(userID int64) ([]model.Habit, error) {
	rows, err := s.db.Query(
		`SELECT `+habitCols+` FROM habits WHERE user_id = ? ORDER BY start_date ASC, name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// ListParticipating returns the habits the user owns plus those shared with
// them under an accepted invitation. Owners join on the habit's start date;
// sharers on the timestamp their invitation was accepted.
func (s *HabitStore) ListParticipating(userID int64) ([]model.Participation, error) {
	owned, err := s.ListByOwner(userID)
	if err != nil {
		return nil, err
	}

	var parts []model.Participation
	for _, h := range owned {
		parts = append(parts, model.Participation{Habit: h, Role: "owner", JoinedAt: h.StartDate})
	}

	rows, err := s.db.Query(
		`SELECT h.id, h.user_id, h.name, h.description, h.start_date, h.end_date,
		        h.frequency, h.selected_days, h.color, h.created_at, h.updated_at,
		        i.updated_at
		 FROM habits h
		 JOIN habit_invitations i ON i.habit_id = h.id
		 WHERE i.shared_with_id = ? AND i.status = 'accepted'
		 ORDER BY h.start_date ASC, h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shared habits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h model.Habit
		var start, end time.Time
		var selectedDays sql.NullString
		var joinedAt time.Time

		err := rows.Scan(
			&h.ID, &h.UserID, &h.Name, &h.Description, &start, &end,
			&h.Frequency, &selectedDays, &h.Color, &h.CreatedAt, &h.UpdatedAt,
			&joinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan shared habit: %w", err)
		}
		h.StartDate = utcDay(start)
		h.EndDate = utcDay(end)
		if selectedDays.Valid && selectedDays.String != "" {
			if err := json.Unmarshal([]byte(selectedDays.String), &h.SelectedDays); err != nil {
				return nil, fmt.Errorf("parse selected_days: %w", err)
			}
		}
		parts = append(parts, model.Participation{Habit: h, Role: "sharer", JoinedAt: joinedAt})
	}
	return parts, rows.Err()
}

func (s *HabitStore) Update(id, userID int64, name, description string, startDate, endDate time.Time, frequency string, selectedDays []int, color string) (*model.Habit, error) {
	days, err := marshalSelectedDays(selectedDays)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(
		`UPDATE habits SET name = ?, description = ?, start_date = ?, end_date = ?, frequency = ?, selected_days = ?, color = ?, updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		name, description, startDate.Format(dayLayout), endDate.Format(dayLayout), frequency, days, color, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return s.GetOwned(id, userID)
}

// Delete removes a habit owned by the given user. Invitations and
// completions cascade.
func (s *HabitStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM habits WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return nil
}
