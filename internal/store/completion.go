package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	var day time.Time

	err := scanner.Scan(
		&c.ID, &c.UserID, &c.HabitID, &day, &c.Completed,
		&c.MediaPath, &c.MediaKind, &c.MediaCaption, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Day = utcDay(day)
	return &c, nil
}

const completionCols = `id, user_id, habit_id, day, completed, media_path, media_kind, media_caption, created_at, updated_at`

// Upsert records the completion flag for (user, habit, day), overwriting the
// flag on an existing row. Media columns are left alone so re-marking a day
// does not discard an attachment.
func (s *CompletionStore) Upsert(userID, habitID int64, day time.Time, completed bool) (*model.Completion, error) {
	_, err := s.db.Exec(
		`INSERT INTO habit_completions (user_id, habit_id, day, completed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, habit_id, day) DO UPDATE
		 SET completed = excluded.completed, updated_at = datetime('now')`,
		userID, habitID, day.Format(dayLayout), completed,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert completion: %w", err)
	}
	return s.GetForDay(userID, habitID, day)
}

func (s *CompletionStore) GetForDay(userID, habitID int64, day time.Time) (*model.Completion, error) {
	row := s.db.QueryRow(
		`SELECT `+completionCols+` FROM habit_completions WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, day.Format(dayLayout),
	)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

func (s *CompletionStore) ListForUserInRange(userID int64, start, end time.Time) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM habit_completions
		 WHERE user_id = ? AND day >= ? AND day <= ?
		 ORDER BY day ASC`,
		userID, start.Format(dayLayout), end.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

func (s *CompletionStore) ListForHabitInRange(habitID int64, start, end time.Time) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM habit_completions
		 WHERE habit_id = ? AND day >= ? AND day <= ?
		 ORDER BY day ASC, user_id ASC`,
		habitID, start.Format(dayLayout), end.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list habit completions: %w", err)
	}
	defer rows.Close()

	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// SetMedia attaches media metadata to an existing completion row, reporting
// whether the row existed.
func (s *CompletionStore) SetMedia(userID, habitID int64, day time.Time, path, kind, caption string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE habit_completions SET media_path = ?, media_kind = ?, media_caption = ?, updated_at = datetime('now')
		 WHERE user_id = ? AND habit_id = ? AND day = ?`,
		path, kind, caption, userID, habitID, day.Format(dayLayout),
	)
	if err != nil {
		return false, fmt.Errorf("set completion media: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *CompletionStore) ClearMedia(userID, habitID int64, day time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE habit_completions SET media_path = NULL, media_kind = NULL, media_caption = NULL, updated_at = datetime('now')
		 WHERE user_id = ? AND habit_id = ? AND day = ?`,
		userID, habitID, day.Format(dayLayout),
	)
	if err != nil {
		return false, fmt.Errorf("clear completion media: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
