package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

type TodoStore struct {
	db *sql.DB
}

func NewTodoStore(db *sql.DB) *TodoStore {
	return &TodoStore{db: db}
}

func scanTodo(scanner interface{ Scan(...any) error }) (*model.Todo, error) {
	var t model.Todo
	var day time.Time
	err := scanner.Scan(
		&t.ID, &t.UserID, &day, &t.Title, &t.Description,
		&t.Completed, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Day = utcDay(day)
	return &t, nil
}

const todoCols = `id, user_id, day, title, description, completed, completed_at, created_at, updated_at`

func (s *TodoStore) GetByID(id, userID int64) (*model.Todo, error) {
	row := s.db.QueryRow(`SELECT `+todoCols+` FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	t, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get todo: %w", err)
	}
	return t, nil
}

func (s *TodoStore) ListForDay(userID int64, day time.Time) ([]model.Todo, error) {
	rows, err := s.db.Query(
		`SELECT `+todoCols+` FROM todos WHERE user_id = ? AND day = ? ORDER BY created_at ASC, id ASC`,
		userID, day.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list todos for day: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func (s *TodoStore) ListInRange(userID int64, start, end time.Time) ([]model.Todo, error) {
	rows, err := s.db.Query(
		`SELECT `+todoCols+` FROM todos WHERE user_id = ? AND day >= ? AND day <= ? ORDER BY day ASC, created_at ASC`,
		userID, start.Format(dayLayout), end.Format(dayLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("list todos in range: %w", err)
	}
	defer rows.Close()
	return collectTodos(rows)
}

func collectTodos(rows *sql.Rows) ([]model.Todo, error) {
	var todos []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

// TodoInput is one desired todo on a day, used by ReplaceForDay.
type TodoInput struct {
	ID          int64 // zero for new todos
	Title       string
	Description string
}

// ReplaceForDay swaps the user's todo list for a day with the given set, in
// one transaction. Inputs carrying the id of an existing row update that row
// in place so its completed state survives the edit; rows absent from the
// input are deleted; inputs without an id are inserted.
func (s *TodoStore) ReplaceForDay(userID int64, day time.Time, inputs []TodoInput) ([]model.Todo, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keep := make([]any, 0, len(inputs)+2)
	keep = append(keep, userID, day.Format(dayLayout))
	placeholders := ""
	for _, in := range inputs {
		if in.ID == 0 {
			continue
		}
		keep = append(keep, in.ID)
		if placeholders != "" {
			placeholders += ", "
		}
		placeholders += "?"
	}

	deleteQuery := `DELETE FROM todos WHERE user_id = ? AND day = ?`
	if placeholders != "" {
		deleteQuery += ` AND id NOT IN (` + placeholders + `)`
	}
	if _, err := tx.Exec(deleteQuery, keep...); err != nil {
		return nil, fmt.Errorf("delete removed todos: %w", err)
	}

	for _, in := range inputs {
		if in.ID != 0 {
			_, err = tx.Exec(
				`UPDATE todos SET title = ?, description = ?, updated_at = datetime('now')
				 WHERE id = ? AND user_id = ? AND day = ?`,
				in.Title, in.Description, in.ID, userID, day.Format(dayLayout),
			)
			if err != nil {
				return nil, fmt.Errorf("update todo: %w", err)
			}
			continue
		}
		_, err = tx.Exec(
			`INSERT INTO todos (user_id, day, title, description) VALUES (?, ?, ?, ?)`,
			userID, day.Format(dayLayout), in.Title, in.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("insert todo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.ListForDay(userID, day)
}

// ToggleComplete flips a todo's completed flag, stamping or clearing
// completed_at to match. Reports whether the row existed.
func (s *TodoStore) ToggleComplete(id, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE todos
		 SET completed = NOT completed,
		     completed_at = CASE WHEN completed THEN NULL ELSE datetime('now') END,
		     updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("toggle todo: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *TodoStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM todos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return nil
}
