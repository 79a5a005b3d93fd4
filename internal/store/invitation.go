package store

import (
	"database/sql"
	"fmt"

	"github.com/rutina-app/rutina/internal/habit"
	"github.com/rutina-app/rutina/internal/model"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.HabitInvitation, error) {
	var inv model.HabitInvitation
	err := scanner.Scan(&inv.ID, &inv.HabitID, &inv.SharedWithID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const invitationCols = `id, habit_id, shared_with_id, status, created_at, updated_at`

func (s *InvitationStore) Get(habitID, sharedWithID int64) (*model.HabitInvitation, error) {
	row := s.db.QueryRow(
		`SELECT `+invitationCols+` FROM habit_invitations WHERE habit_id = ? AND shared_with_id = ?`,
		habitID, sharedWithID,
	)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// Invite creates a pending invitation, or resets an existing refused or
// abandoned one back to pending. A row that is already pending or accepted
// is left untouched. At most one invitation exists per (habit, invitee).
func (s *InvitationStore) Invite(habitID, sharedWithID int64) (*model.HabitInvitation, error) {
	_, err := s.db.Exec(
		`INSERT INTO habit_invitations (habit_id, shared_with_id) VALUES (?, ?)
		 ON CONFLICT(habit_id, shared_with_id) DO UPDATE
		 SET status = 'pending', updated_at = datetime('now')
		 WHERE habit_invitations.status IN ('refused', 'abandoned')`,
		habitID, sharedWithID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return s.Get(habitID, sharedWithID)
}

// UpdateStatus changes an invitation's status only if the stored status
// still equals from, reporting whether a row was updated. This is the
// single-row compare-and-swap guarding concurrent transitions.
func (s *InvitationStore) UpdateStatus(habitID, sharedWithID int64, from, to habit.InvitationStatus) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE habit_invitations SET status = ?, updated_at = datetime('now')
		 WHERE habit_id = ? AND shared_with_id = ? AND status = ?`,
		string(to), habitID, sharedWithID, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update invitation status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *InvitationStore) ListForHabit(habitID int64) ([]model.HabitInvitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM habit_invitations WHERE habit_id = ? ORDER BY created_at ASC`,
		habitID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations for habit: %w", err)
	}
	defer rows.Close()

	var invs []model.HabitInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

func (s *InvitationStore) ListForUserByStatus(userID int64, status habit.InvitationStatus) ([]model.HabitInvitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM habit_invitations WHERE shared_with_id = ? AND status = ? ORDER BY created_at DESC`,
		userID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations for user: %w", err)
	}
	defer rows.Close()

	var invs []model.HabitInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// DeleteExcept removes a habit's invitations for users not in keep. Used
// when the owner edits the habit's share list.
func (s *InvitationStore) DeleteExcept(habitID int64, keep []int64) error {
	if len(keep) == 0 {
		_, err := s.db.Exec(`DELETE FROM habit_invitations WHERE habit_id = ?`, habitID)
		if err != nil {
			return fmt.Errorf("delete invitations: %w", err)
		}
		return nil
	}

	query := `DELETE FROM habit_invitations WHERE habit_id = ? AND shared_with_id NOT IN (?` +
		repeatPlaceholder(len(keep)-1) + `)`
	args := make([]any, 0, len(keep)+1)
	args = append(args, habitID)
	for _, id := range keep {
		args = append(args, id)
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
