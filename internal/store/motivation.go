package store

import (
	"database/sql"
	"fmt"

	"github.com/rutina-app/rutina/internal/model"
)

type MotivationStore struct {
	db *sql.DB
}

func NewMotivationStore(db *sql.DB) *MotivationStore {
	return &MotivationStore{db: db}
}

func scanMotivation(scanner interface{ Scan(...any) error }) (*model.Motivation, error) {
	var m model.Motivation
	err := scanner.Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.ImagePath,
		&m.ReceiverClosed, &m.ReceiverMessage, &m.SenderClosedResponse,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const motivationCols = `id, sender_id, receiver_id, message, image_path, receiver_closed, receiver_message, sender_closed_response, created_at, updated_at`

func (s *MotivationStore) Create(senderID, receiverID int64, message string, imagePath *string) (*model.Motivation, error) {
	result, err := s.db.Exec(
		`INSERT INTO motivations (sender_id, receiver_id, message, image_path) VALUES (?, ?, ?, ?)`,
		senderID, receiverID, message, imagePath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert motivation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MotivationStore) GetByID(id int64) (*model.Motivation, error) {
	row := s.db.QueryRow(`SELECT `+motivationCols+` FROM motivations WHERE id = ?`, id)
	m, err := scanMotivation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get motivation: %w", err)
	}
	return m, nil
}

// ListOpenForReceiver returns motivations the receiver has not yet closed,
// oldest first.
func (s *MotivationStore) ListOpenForReceiver(receiverID int64) ([]model.Motivation, error) {
	rows, err := s.db.Query(
		`SELECT `+motivationCols+` FROM motivations WHERE receiver_id = ? AND receiver_closed = 0 ORDER BY created_at ASC`,
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("list motivations: %w", err)
	}
	defer rows.Close()
	return collectMotivations(rows)
}

// ListOpenResponsesForSender returns motivations whose receiver replied and
// whose sender has not yet dismissed the reply.
func (s *MotivationStore) ListOpenResponsesForSender(senderID int64) ([]model.Motivation, error) {
	rows, err := s.db.Query(
		`SELECT `+motivationCols+` FROM motivations
		 WHERE sender_id = ? AND receiver_closed = 1 AND receiver_message IS NOT NULL AND sender_closed_response = 0
		 ORDER BY updated_at ASC`,
		senderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list motivation responses: %w", err)
	}
	defer rows.Close()
	return collectMotivations(rows)
}

func collectMotivations(rows *sql.Rows) ([]model.Motivation, error) {
	var motivations []model.Motivation
	for rows.Next() {
		m, err := scanMotivation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan motivation: %w", err)
		}
		motivations = append(motivations, *m)
	}
	return motivations, rows.Err()
}

// Close marks a motivation read by its receiver, with an optional reply to
// the sender. Reports whether the motivation was still open.
func (s *MotivationStore) Close(id, receiverID int64, reply *string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE motivations SET receiver_closed = 1, receiver_message = ?, updated_at = datetime('now')
		 WHERE id = ? AND receiver_id = ? AND receiver_closed = 0`,
		reply, id, receiverID,
	)
	if err != nil {
		return false, fmt.Errorf("close motivation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// CloseResponse dismisses a receiver's reply on the sender's side.
func (s *MotivationStore) CloseResponse(id, senderID int64) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE motivations SET sender_closed_response = 1, updated_at = datetime('now')
		 WHERE id = ? AND sender_id = ? AND sender_closed_response = 0`,
		id, senderID,
	)
	if err != nil {
		return false, fmt.Errorf("close motivation response: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
