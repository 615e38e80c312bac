package repo

import (
	"context"
	"database/sql"
	"errors"

	"condopapers/internal/domain"
)

const complianceCols = `id,name,description,issue_date,expiry_date,type,COALESCE(document_url,'')`

func scanCompliance(s rowScanner) (domain.ComplianceItem, error) {
	var c domain.ComplianceItem
	err := s.Scan(&c.ID, &c.Name, &c.Description, &c.IssueDate, &c.ExpiryDate, &c.Type, &c.DocumentURL)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) InsertComplianceItem(ctx context.Context, tx *sql.Tx, c domain.ComplianceItem) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO compliance_items(id,name,description,issue_date,expiry_date,type,document_url) VALUES (?,?,?,?,?,?,?)`,
		c.ID, c.Name, c.Description, c.IssueDate, c.ExpiryDate, c.Type, nullable(c.DocumentURL))
	return err
}

func (r Repo) GetComplianceItem(ctx context.Context, id string) (domain.ComplianceItem, error) {
	return r.GetComplianceItemTx(ctx, nil, id)
}

func (r Repo) GetComplianceItemTx(ctx context.Context, tx *sql.Tx, id string) (domain.ComplianceItem, error) {
	return scanCompliance(r.q(tx).QueryRowContext(ctx, `SELECT `+complianceCols+` FROM compliance_items WHERE id=?`, id))
}

// ListComplianceItems returns items in insertion order.
func (r Repo) ListComplianceItems(ctx context.Context) ([]domain.ComplianceItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+complianceCols+` FROM compliance_items ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.ComplianceItem{}
	for rows.Next() {
		c, err := scanCompliance(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r Repo) SetComplianceDocument(ctx context.Context, tx *sql.Tx, id, url string) error {
	return affectedOne(r.q(tx).ExecContext(ctx, `UPDATE compliance_items SET document_url=? WHERE id=?`, nullable(url), id))
}
