package repo

import (
	"context"
	"database/sql"
	"errors"

	"condopapers/internal/domain"
)

const pointCols = `id,name,location,qr_code,last_check`

func scanPoint(s rowScanner) (domain.ControlPoint, error) {
	var p domain.ControlPoint
	var last sql.NullString
	err := s.Scan(&p.ID, &p.Name, &p.Location, &p.QRCode, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	p.LastCheck = stringPtr(last)
	return p, err
}

func (r Repo) InsertControlPoint(ctx context.Context, tx *sql.Tx, p domain.ControlPoint) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO control_points(`+pointCols+`) VALUES (?,?,?,?,?)`,
		p.ID, p.Name, p.Location, p.QRCode, nullableStringPtr(p.LastCheck))
	return err
}

func (r Repo) ListControlPoints(ctx context.Context) ([]domain.ControlPoint, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+pointCols+` FROM control_points ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ControlPoint{}
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// FindControlPointTx looks a point up by id or by QR code.
func (r Repo) FindControlPointTx(ctx context.Context, tx *sql.Tx, ref string) (domain.ControlPoint, error) {
	return scanPoint(r.q(tx).QueryRowContext(ctx, `SELECT `+pointCols+` FROM control_points WHERE id=? OR qr_code=? ORDER BY id=? DESC LIMIT 1`, ref, ref, ref))
}

func (r Repo) SetLastCheck(ctx context.Context, tx *sql.Tx, id, ts string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE control_points SET last_check=? WHERE id=?`, ts, id))
}

func (r Repo) InsertSecurityRound(ctx context.Context, tx *sql.Tx, s domain.SecurityRound) error {
	q := r.q(tx)
	if _, err := q.ExecContext(ctx, `INSERT INTO security_rounds(id,date,shift,porter,status) VALUES (?,?,?,?,?)`,
		s.ID, s.Date, s.Shift, s.Porter, s.Status); err != nil {
		return err
	}
	for i, p := range s.Points {
		if _, err := q.ExecContext(ctx, `INSERT INTO round_points(round_id,point_id,position,checked_at) VALUES (?,?,?,?)`,
			s.ID, p.PointID, i, p.CheckedAt); err != nil {
			return err
		}
	}
	return nil
}

// ListSecurityRounds returns rounds in insertion order. A non-empty status filters them.
func (r Repo) ListSecurityRounds(ctx context.Context, status string) ([]domain.SecurityRound, error) {
	return r.ListSecurityRoundsTx(ctx, nil, status)
}

func (r Repo) ListSecurityRoundsTx(ctx context.Context, tx *sql.Tx, status string) ([]domain.SecurityRound, error) {
	q := r.q(tx)
	query := `SELECT id,date,shift,porter,status FROM security_rounds`
	var args []any
	if status != "" {
		query += ` WHERE status=?`
		args = append(args, status)
	}
	rows, err := q.QueryContext(ctx, query+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, err
	}
	res := []domain.SecurityRound{}
	for rows.Next() {
		var s domain.SecurityRound
		if err := rows.Scan(&s.ID, &s.Date, &s.Shift, &s.Porter, &s.Status); err != nil {
			rows.Close()
			return nil, err
		}
		s.Points = []domain.RoundPoint{}
		res = append(res, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	prows, err := q.QueryContext(ctx, `SELECT round_id,point_id,checked_at FROM round_points ORDER BY round_id, position`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	points := map[string][]domain.RoundPoint{}
	for prows.Next() {
		var rid string
		var p domain.RoundPoint
		if err := prows.Scan(&rid, &p.PointID, &p.CheckedAt); err != nil {
			return nil, err
		}
		points[rid] = append(points[rid], p)
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if ps, ok := points[res[i].ID]; ok {
			res[i].Points = ps
		}
	}
	return res, nil
}

// RecordRoundPoint moves pointID to the end of the round with a new time,
// replacing any earlier scan of the same point.
func (r Repo) RecordRoundPoint(ctx context.Context, tx *sql.Tx, roundID, pointID, checkedAt string) error {
	q := r.q(tx)
	if _, err := q.ExecContext(ctx, `DELETE FROM round_points WHERE round_id=? AND point_id=?`, roundID, pointID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `INSERT INTO round_points(round_id,point_id,position,checked_at)
VALUES (?,?,(SELECT COALESCE(MAX(position),-1)+1 FROM round_points WHERE round_id=?),?)`, roundID, pointID, roundID, checkedAt)
	return err
}

func (r Repo) CountControlPointsTx(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	err := r.q(tx).QueryRowContext(ctx, `SELECT count(*) FROM control_points`).Scan(&n)
	return n, err
}
