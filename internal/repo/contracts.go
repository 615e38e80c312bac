package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"condopapers/internal/domain"
)

type rowScanner interface {
	Scan(...any) error
}

func (r Repo) InsertSupplier(ctx context.Context, tx *sql.Tx, s domain.Supplier) error {
	docs, err := encodeList(s.Documents)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO suppliers(id,name,service,contact,rating,evaluations,documents_json) VALUES (?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.Service, s.Contact, s.Rating, s.Evaluations, docs)
	return err
}

func (r Repo) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,service,contact,rating,evaluations,documents_json FROM suppliers ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Supplier{}
	for rows.Next() {
		var s domain.Supplier
		var docs string
		if err := rows.Scan(&s.ID, &s.Name, &s.Service, &s.Contact, &s.Rating, &s.Evaluations, &docs); err != nil {
			return nil, err
		}
		if s.Documents, err = decodeList[string](docs); err != nil {
			return nil, fmt.Errorf("supplier %s documents: %w", s.ID, err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) InsertContract(ctx context.Context, tx *sql.Tx, c domain.Contract) error {
	alerts, err := encodeList(c.AlertDays)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO contracts(id,supplier,service,start_date,end_date,value,alert_days_json) VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.Supplier, c.Service, c.StartDate, c.EndDate, c.Value, alerts)
	return err
}

const contractCols = `id,supplier,service,start_date,end_date,value,alert_days_json`

func scanContract(s rowScanner) (domain.Contract, error) {
	var c domain.Contract
	var alerts string
	err := s.Scan(&c.ID, &c.Supplier, &c.Service, &c.StartDate, &c.EndDate, &c.Value, &alerts)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if c.AlertDays, err = decodeList[int](alerts); err != nil {
		return c, fmt.Errorf("contract %s alert days: %w", c.ID, err)
	}
	return c, nil
}

func (r Repo) GetContract(ctx context.Context, id string) (domain.Contract, error) {
	return scanContract(r.DB.QueryRowContext(ctx, `SELECT `+contractCols+` FROM contracts WHERE id=?`, id))
}

func (r Repo) ListContracts(ctx context.Context) ([]domain.Contract, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+contractCols+` FROM contracts ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Contract{}
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

const orderCols = `id,title,description,supplier,priority,status,attachments_json,created_at,updated_at`

func scanOrder(s rowScanner) (domain.ServiceOrder, error) {
	var o domain.ServiceOrder
	var attachments string
	err := s.Scan(&o.ID, &o.Title, &o.Description, &o.Supplier, &o.Priority, &o.Status, &attachments, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	if o.Attachments, err = decodeList[string](attachments); err != nil {
		return o, fmt.Errorf("service order %s attachments: %w", o.ID, err)
	}
	return o, nil
}

func (r Repo) InsertServiceOrder(ctx context.Context, tx *sql.Tx, o domain.ServiceOrder) error {
	attachments, err := encodeList(o.Attachments)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO service_orders(`+orderCols+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		o.ID, o.Title, o.Description, o.Supplier, o.Priority, o.Status, attachments, o.CreatedAt, o.UpdatedAt)
	return err
}

func (r Repo) GetServiceOrderTx(ctx context.Context, tx *sql.Tx, id string) (domain.ServiceOrder, error) {
	return scanOrder(r.q(tx).QueryRowContext(ctx, `SELECT `+orderCols+` FROM service_orders WHERE id=?`, id))
}

// ListServiceOrders returns orders in insertion order, optionally filtered by status.
func (r Repo) ListServiceOrders(ctx context.Context, status string) ([]domain.ServiceOrder, error) {
	query := `SELECT ` + orderCols + ` FROM service_orders`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, query+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ServiceOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (r Repo) UpdateServiceOrderStatus(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE service_orders SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id))
}
