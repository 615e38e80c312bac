package engine

import (
	"context"
	"fmt"
	"strings"

	"condopapers/internal/domain"
	"condopapers/internal/events"
)

// ScanResult is the outcome of scanning one control point.
type ScanResult struct {
	Point  domain.ControlPoint `json:"point"`
	Rounds []domain.RoundView  `json:"rounds"`
}

func (e Engine) ListControlPoints(ctx context.Context) ([]domain.ControlPoint, error) {
	return e.Repo.ListControlPoints(ctx)
}

func roundViews(rounds []domain.SecurityRound, totalPoints int) []domain.RoundView {
	res := make([]domain.RoundView, 0, len(rounds))
	for _, r := range rounds {
		res = append(res, domain.RoundView{SecurityRound: r, Checked: len(r.Points), Total: totalPoints})
	}
	return res
}

// ListSecurityRounds returns rounds with their progress over all control points.
func (e Engine) ListSecurityRounds(ctx context.Context) ([]domain.RoundView, error) {
	rounds, err := e.Repo.ListSecurityRounds(ctx, "")
	if err != nil {
		return nil, err
	}
	points, err := e.Repo.ListControlPoints(ctx)
	if err != nil {
		return nil, err
	}
	return roundViews(rounds, len(points)), nil
}

// ScanControlPoint records a check of the point identified by id or QR code.
// Every in-progress round gets the point with the scan time, replacing an
// earlier scan of the same point.
func (e Engine) ScanControlPoint(ctx context.Context, ref, actorID string) (ScanResult, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ScanResult{}, fmt.Errorf("control point id or qr code is required: %w", ErrInvalid)
	}
	ts := e.timestamp()
	hhmm := e.now().Format("15:04")

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ScanResult{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.FindControlPointTx(ctx, tx, ref)
	if err != nil {
		return ScanResult{}, err
	}
	if err := e.Repo.SetLastCheck(ctx, tx, p.ID, ts); err != nil {
		return ScanResult{}, err
	}
	p.LastCheck = &ts
	active, err := e.Repo.ListSecurityRoundsTx(ctx, tx, domain.RoundInProgress)
	if err != nil {
		return ScanResult{}, err
	}
	roundIDs := make([]string, 0, len(active))
	for _, r := range active {
		if err := e.Repo.RecordRoundPoint(ctx, tx, r.ID, p.ID, hhmm); err != nil {
			return ScanResult{}, fmt.Errorf("record round %s: %w", r.ID, err)
		}
		roundIDs = append(roundIDs, r.ID)
	}
	if err := e.writer().Append(ctx, tx, events.ControlPointScanned, "control_point", p.ID, actorOrDefault(actorID), events.EventPayload{
		"qr_code":    p.QRCode,
		"checked_at": hhmm,
		"rounds":     roundIDs,
	}); err != nil {
		return ScanResult{}, err
	}
	updated, err := e.Repo.ListSecurityRoundsTx(ctx, tx, domain.RoundInProgress)
	if err != nil {
		return ScanResult{}, err
	}
	total, err := e.Repo.CountControlPointsTx(ctx, tx)
	if err != nil {
		return ScanResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ScanResult{}, err
	}
	return ScanResult{Point: p, Rounds: roundViews(updated, total)}, nil
}
