package store

import (
	"database/sql"
	"fmt"

	"github.com/rutina-app/rutina/internal/model"
)

type FriendshipStore struct {
	db *sql.DB
}

func NewFriendshipStore(db *sql.DB) *FriendshipStore {
	return &FriendshipStore{db: db}
}

func scanFriendship(scanner interface{ Scan(...any) error }) (*model.Friendship, error) {
	var f model.Friendship
	err := scanner.Scan(&f.ID, &f.SenderID, &f.ReceiverID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const friendshipCols = `id, sender_id, receiver_id, status, created_at, updated_at`

func (s *FriendshipStore) Create(senderID, receiverID int64) (*model.Friendship, error) {
	result, err := s.db.Exec(
		`INSERT INTO friendships (sender_id, receiver_id) VALUES (?, ?)`,
		senderID, receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert friendship: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FriendshipStore) GetByID(id int64) (*model.Friendship, error) {
	row := s.db.QueryRow(`SELECT `+friendshipCols+` FROM friendships WHERE id = ?`, id)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

// GetBetween returns the friendship row connecting the two users in either
// direction, regardless of status.
func (s *FriendshipStore) GetBetween(userID, otherID int64) (*model.Friendship, error) {
	row := s.db.QueryRow(
		`SELECT `+friendshipCols+` FROM friendships
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
		userID, otherID, otherID, userID,
	)
	f, err := scanFriendship(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship between: %w", err)
	}
	return f, nil
}

// AreFriends reports whether the two users share an accepted friendship, in
// either direction.
func (s *FriendshipStore) AreFriends(userID, otherID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM friendships
		 WHERE status = 'accepted'
		   AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))`,
		userID, otherID, otherID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return n > 0, nil
}

// UpdateStatus resolves a pending request addressed to the given receiver,
// reporting whether a row was updated. Only pending rows move; an already
// resolved request is left as is.
func (s *FriendshipStore) UpdateStatus(id, receiverID int64, status string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE friendships SET status = ?, updated_at = datetime('now')
		 WHERE id = ? AND receiver_id = ? AND status = 'pending'`,
		status, id, receiverID,
	)
	if err != nil {
		return false, fmt.Errorf("update friendship status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *FriendshipStore) ListPendingForReceiver(receiverID int64) ([]model.Friendship, error) {
	rows, err := s.db.Query(
		`SELECT `+friendshipCols+` FROM friendships WHERE receiver_id = ? AND status = 'pending' ORDER BY created_at DESC`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending friendships: %w", err)
	}
	defer rows.Close()

	var friendships []model.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		friendships = append(friendships, *f)
	}
	return friendships, rows.Err()
}

// ListAcceptedFriends returns the users on the other end of the given user's
// accepted friendships.
func (s *FriendshipStore) ListAcceptedFriends(userID int64) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		 FROM friendships f
		 JOIN users u ON u.id = CASE WHEN f.sender_id = ? THEN f.receiver_id ELSE f.sender_id END
		 WHERE f.status = 'accepted' AND (f.sender_id = ? OR f.receiver_id = ?)
		 ORDER BY u.name ASC`,
		userID, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Delete removes a friendship if the given user is on either end of it.
func (s *FriendshipStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM friendships WHERE id = ? AND (sender_id = ? OR receiver_id = ?)`,
		id, userID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}
