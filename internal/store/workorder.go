package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rutina-app/rutina/internal/model"
)

type WorkOrderStore struct {
	db *sql.DB
}

func NewWorkOrderStore(db *sql.DB) *WorkOrderStore {
	return &WorkOrderStore{db: db}
}

func scanWorkOrder(scanner interface{ Scan(...any) error }) (*model.WorkOrder, error) {
	var w model.WorkOrder
	err := scanner.Scan(&w.ID, &w.UserID, &w.Name, &w.HourPrice, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

const workOrderCols = `id, user_id, name, hour_price, created_at, updated_at`

func (s *WorkOrderStore) Create(userID int64, name string, hourPrice float64) (*model.WorkOrder, error) {
	result, err := s.db.Exec(
		`INSERT INTO work_orders (user_id, name, hour_price) VALUES (?, ?, ?)`,
		userID, name, hourPrice,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *WorkOrderStore) GetByID(id int64) (*model.WorkOrder, error) {
	row := s.db.QueryRow(`SELECT `+workOrderCols+` FROM work_orders WHERE id = ?`, id)
	w, err := scanWorkOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return w, nil
}

// GetAccessible fetches a work order if the user owns it or has a share,
// returning the user's permission: "owner", "edit", or "view". A user with
// no access gets (nil, "", nil).
func (s *WorkOrderStore) GetAccessible(id, userID int64) (*model.WorkOrder, string, error) {
	w, err := s.GetByID(id)
	if err != nil || w == nil {
		return nil, "", err
	}
	if w.UserID == userID {
		return w, "owner", nil
	}

	var permission string
	err = s.db.QueryRow(
		`SELECT permission FROM work_order_shares WHERE work_order_id = ? AND shared_with_id = ?`,
		id, userID,
	).Scan(&permission)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get work order share: %w", err)
	}
	return w, permission, nil
}

// ListAccessible returns the work orders the user owns plus those shared
// with them.
func (s *WorkOrderStore) ListAccessible(userID int64) ([]model.WorkOrder, error) {
	rows, err := s.db.Query(
		`SELECT `+workOrderCols+` FROM work_orders WHERE user_id = ?
		 UNION
		 SELECT w.id, w.user_id, w.name, w.hour_price, w.created_at, w.updated_at
		 FROM work_orders w
		 JOIN work_order_shares s ON s.work_order_id = w.id
		 WHERE s.shared_with_id = ?
		 ORDER BY name ASC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	var orders []model.WorkOrder
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		orders = append(orders, *w)
	}
	return orders, rows.Err()
}

func (s *WorkOrderStore) Update(id, userID int64, name string, hourPrice float64) (*model.WorkOrder, error) {
	result, err := s.db.Exec(
		`UPDATE work_orders SET name = ?, hour_price = ?, updated_at = datetime('now')
		 WHERE id = ? AND user_id = ?`,
		name, hourPrice, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update work order: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete removes a work order owned by the given user. Entries and shares
// cascade.
func (s *WorkOrderStore) Delete(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM work_orders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete work order: %w", err)
	}
	return nil
}

func scanWorkOrderEntry(scanner interface{ Scan(...any) error }) (*model.WorkOrderEntry, error) {
	var e model.WorkOrderEntry
	err := scanner.Scan(
		&e.ID, &e.WorkOrderID, &e.CreatedBy, &e.Name, &e.Description,
		&e.StartedAt, &e.EndedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const workOrderEntryCols = `id, work_order_id, created_by, name, description, started_at, ended_at, created_at, updated_at`

func (s *WorkOrderStore) CreateEntry(workOrderID, createdBy int64, name, description string, startedAt time.Time, endedAt *time.Time) (*model.WorkOrderEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO work_order_entries (work_order_id, created_by, name, description, started_at, ended_at) VALUES (?, ?, ?, ?, ?, ?)`,
		workOrderID, createdBy, name, description, startedAt.UTC(), endedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work order entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEntry(id)
}

func (s *WorkOrderStore) GetEntry(id int64) (*model.WorkOrderEntry, error) {
	row := s.db.QueryRow(`SELECT `+workOrderEntryCols+` FROM work_order_entries WHERE id = ?`, id)
	e, err := scanWorkOrderEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work order entry: %w", err)
	}
	return e, nil
}

func (s *WorkOrderStore) ListEntries(workOrderID int64) ([]model.WorkOrderEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+workOrderEntryCols+` FROM work_order_entries WHERE work_order_id = ? ORDER BY started_at ASC, id ASC`,
		workOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list work order entries: %w", err)
	}
	defer rows.Close()

	var entries []model.WorkOrderEntry
	for rows.Next() {
		e, err := scanWorkOrderEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan work order entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *WorkOrderStore) UpdateEntry(id int64, name, description string, startedAt time.Time, endedAt *time.Time) (*model.WorkOrderEntry, error) {
	_, err := s.db.Exec(
		`UPDATE work_order_entries SET name = ?, description = ?, started_at = ?, ended_at = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		name, description, startedAt.UTC(), endedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update work order entry: %w", err)
	}
	return s.GetEntry(id)
}

// StopEntry stamps an open entry's end time, reporting whether the entry was
// still running.
func (s *WorkOrderStore) StopEntry(id int64, endedAt time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE work_order_entries SET ended_at = ?, updated_at = datetime('now')
		 WHERE id = ? AND ended_at IS NULL`,
		endedAt.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("stop work order entry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *WorkOrderStore) DeleteEntry(id int64) error {
	_, err := s.db.Exec(`DELETE FROM work_order_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete work order entry: %w", err)
	}
	return nil
}

// Share grants a user access to a work order, upgrading or downgrading an
// existing share's permission in place.
func (s *WorkOrderStore) Share(workOrderID, sharedWithID int64, permission string) error {
	_, err := s.db.Exec(
		`INSERT INTO work_order_shares (work_order_id, shared_with_id, permission) VALUES (?, ?, ?)
		 ON CONFLICT(work_order_id, shared_with_id) DO UPDATE
		 SET permission = excluded.permission, updated_at = datetime('now')`,
		workOrderID, sharedWithID, permission,
	)
	if err != nil {
		return fmt.Errorf("share work order: %w", err)
	}
	return nil
}

func (s *WorkOrderStore) Unshare(workOrderID, sharedWithID int64) error {
	_, err := s.db.Exec(
		`DELETE FROM work_order_shares WHERE work_order_id = ? AND shared_with_id = ?`,
		workOrderID, sharedWithID,
	)
	if err != nil {
		return fmt.Errorf("unshare work order: %w", err)
	}
	return nil
}

func (s *WorkOrderStore) ListShares(workOrderID int64) ([]model.WorkOrderShare, error) {
	rows, err := s.db.Query(
		`SELECT id, work_order_id, shared_with_id, permission, created_at, updated_at
		 FROM work_order_shares WHERE work_order_id = ? ORDER BY created_at ASC`,
		workOrderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list work order shares: %w", err)
	}
	defer rows.Close()

	var shares []model.WorkOrderShare
	for rows.Next() {
		var sh model.WorkOrderShare
		err := rows.Scan(&sh.ID, &sh.WorkOrderID, &sh.SharedWithID, &sh.Permission, &sh.CreatedAt, &sh.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan work order share: %w", err)
		}
		shares = append(shares, sh)
	}
	return shares, rows.Err()
}
