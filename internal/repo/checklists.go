package repo

import (
	"context"
	"database/sql"
	"errors"

	"condopapers/internal/domain"
)

const checklistCols = `id,name,shift,completed_at,completed_by`

func scanChecklist(s rowScanner) (domain.Checklist, error) {
	var c domain.Checklist
	var at, by sql.NullString
	err := s.Scan(&c.ID, &c.Name, &c.Shift, &at, &by)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	c.CompletedAt = stringPtr(at)
	c.CompletedBy = stringPtr(by)
	return c, err
}

func (r Repo) InsertChecklist(ctx context.Context, tx *sql.Tx, c domain.Checklist) error {
	q := r.q(tx)
	if _, err := q.ExecContext(ctx, `INSERT INTO checklists(`+checklistCols+`) VALUES (?,?,?,?,?)`,
		c.ID, c.Name, c.Shift, nullableStringPtr(c.CompletedAt), nullableStringPtr(c.CompletedBy)); err != nil {
		return err
	}
	for i, t := range c.Tasks {
		if _, err := q.ExecContext(ctx, `INSERT INTO checklist_tasks(checklist_id,id,position,title,description,required,completed) VALUES (?,?,?,?,?,?,?)`,
			c.ID, t.ID, i, t.Title, t.Description, boolInt(t.Required), boolInt(t.Completed)); err != nil {
			return err
		}
	}
	return nil
}

func (r Repo) GetChecklist(ctx context.Context, id string) (domain.Checklist, error) {
	return r.GetChecklistTx(ctx, nil, id)
}

func (r Repo) GetChecklistTx(ctx context.Context, tx *sql.Tx, id string) (domain.Checklist, error) {
	c, err := scanChecklist(r.q(tx).QueryRowContext(ctx, `SELECT `+checklistCols+` FROM checklists WHERE id=?`, id))
	if err != nil {
		return c, err
	}
	tasks, err := r.checklistTasks(ctx, r.q(tx), id)
	if err != nil {
		return c, err
	}
	c.Tasks = tasks[id]
	if c.Tasks == nil {
		c.Tasks = []domain.ChecklistTask{}
	}
	return c, nil
}

func (r Repo) ListChecklists(ctx context.Context) ([]domain.Checklist, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+checklistCols+` FROM checklists ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	res := []domain.Checklist{}
	for rows.Next() {
		c, err := scanChecklist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	tasks, err := r.checklistTasks(ctx, r.DB, "")
	if err != nil {
		return nil, err
	}
	for i := range res {
		res[i].Tasks = tasks[res[i].ID]
		if res[i].Tasks == nil {
			res[i].Tasks = []domain.ChecklistTask{}
		}
	}
	return res, nil
}

func (r Repo) checklistTasks(ctx context.Context, q querier, id string) (map[string][]domain.ChecklistTask, error) {
	query := `SELECT checklist_id,id,title,description,required,completed FROM checklist_tasks`
	var args []any
	if id != "" {
		query += ` WHERE checklist_id=?`
		args = append(args, id)
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY checklist_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string][]domain.ChecklistTask{}
	for rows.Next() {
		var cid string
		var t domain.ChecklistTask
		var required, completed int
		if err := rows.Scan(&cid, &t.ID, &t.Title, &t.Description, &required, &completed); err != nil {
			return nil, err
		}
		t.Required = required == 1
		t.Completed = completed == 1
		res[cid] = append(res[cid], t)
	}
	return res, rows.Err()
}

func (r Repo) SetTaskCompleted(ctx context.Context, tx *sql.Tx, checklistID, taskID string, completed bool) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE checklist_tasks SET completed=? WHERE checklist_id=? AND id=?`, boolInt(completed), checklistID, taskID))
}

func (r Repo) MarkChecklistCompleted(ctx context.Context, tx *sql.Tx, id, at, by string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE checklists SET completed_at=?, completed_by=? WHERE id=? AND completed_at IS NULL`, at, by, id))
}
