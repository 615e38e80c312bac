package repo

import (
	"context"
	"database/sql"
	"errors"

	"condopapers/internal/domain"
)

const workCols = `id,unit,resident,work_type,description,status,created_at,updated_at`

func scanWork(s rowScanner) (domain.WorkRequest, error) {
	var w domain.WorkRequest
	err := s.Scan(&w.ID, &w.Unit, &w.Resident, &w.WorkType, &w.Description, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	return w, err
}

func (r Repo) InsertWorkRequest(ctx context.Context, tx *sql.Tx, w domain.WorkRequest) error {
	q := r.q(tx)
	if _, err := q.ExecContext(ctx, `INSERT INTO work_requests(`+workCols+`) VALUES (?,?,?,?,?,?,?,?)`,
		w.ID, w.Unit, w.Resident, w.WorkType, w.Description, w.Status, w.CreatedAt, w.UpdatedAt); err != nil {
		return err
	}
	for i, d := range w.Documents {
		if _, err := q.ExecContext(ctx, `INSERT INTO work_request_documents(work_request_id,position,name,type,required,uploaded) VALUES (?,?,?,?,?,?)`,
			w.ID, i, d.Name, d.Type, boolInt(d.Required), boolInt(d.Uploaded)); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) GetWorkRequest(ctx context.Context, id string) (domain.WorkRequest, error) {
	return r.GetWorkRequestTx(ctx, nil, id)
}

func (r Repo) GetWorkRequestTx(ctx context.Context, tx *sql.Tx, id string) (domain.WorkRequest, error) {
	w, err := scanWork(r.q(tx).QueryRowContext(ctx, `SELECT `+workCols+` FROM work_requests WHERE id=?`, id))
	if err != nil {
		return w, err
	}
	docs, err := r.workDocuments(ctx, r.q(tx), id)
	if err != nil {
		return w, err
	}
	w.Documents = docs[id]
	if w.Documents == nil {
		w.Documents = []domain.Document{}
	}
	return w, nil
}

// ListWorkRequests returns requests in insertion order, optionally filtered by status.
func (r Repo) ListWorkRequests(ctx context.Context, status string) ([]domain.WorkRequest, error) {
	query := `SELECT ` + workCols + ` FROM work_requests`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	rows, err := r.DB.QueryContext(ctx, query+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	res := []domain.WorkRequest{}
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, w)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	docs, err := r.workDocuments(ctx, r.DB, "")
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Documents = docs[res[i].ID]
		if res[i].Documents == nil {
			res[i].Documents = []domain.Document{}
		}
	}
	return res, nil
}

// workDocuments loads documents grouped by request id. An empty id loads all.
func (r Repo) workDocuments(ctx context.Context, q querier, id string) (map[string][]domain.Document, error) {
	query := `SELECT work_request_id,name,type,required,uploaded FROM work_request_documents`
	var args []any
	if id != "" {
		query += ` WHERE work_request_id=?`
		args = append(args, id)
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY work_request_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string][]domain.Document{}
	for rows.Next() {
		var wid string
		var d domain.Document
		var required, uploaded int
		if err := rows.Scan(&wid, &d.Name, &d.Type, &required, &uploaded); err != nil {
			return nil, err
		}
		d.Required = required == 1
		d.Uploaded = uploaded == 1
		res[wid] = append(res[wid], d)
	}
	return res, rows.Err()
}

func (r Repo) UpdateWorkRequestStatus(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE work_requests SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id))
}

func (r Repo) MarkDocumentUploaded(ctx context.Context, tx *sql.Tx, id, name string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE work_request_documents SET uploaded=1 WHERE work_request_id=? AND name=?`, id, name))
}
