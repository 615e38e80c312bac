package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"condopapers/internal/domain"
	"condopapers/internal/events"
	"condopapers/internal/gate"
	"condopapers/internal/repo"
)

// StructuralDocuments are required for every structural work request.
func StructuralDocuments() []domain.Document {
	return []domain.Document{
		{Name: "ART/RRT", Type: "art", Required: true},
		{Name: "Projeto Arquitetônico", Type: "project", Required: true},
		{Name: "Memorial Descritivo", Type: "memorial", Required: true},
	}
}

func ensureWorkTransition(from, to string) error {
	switch from {
	case domain.WorkPending:
		if to == domain.WorkInAnalysis {
			return nil
		}
	case domain.WorkInAnalysis:
		if to == domain.WorkApproved || to == domain.WorkRejected {
			return nil
		}
	}
	return &TransitionError{Entity: "work request", From: from, To: to}
}

func workTerminal(s string) bool {
	return s == domain.WorkApproved || s == domain.WorkRejected
}

// DocumentGate evaluates whether every required document is uploaded.
func DocumentGate(w domain.WorkRequest) gate.Result {
	return gate.CheckFunc(w.Documents, func(d domain.Document) gate.Item {
		return gate.Item{Name: d.Name, Required: d.Required, Satisfied: d.Uploaded}
	})
}

type WorkRequestSubmitOptions struct {
	Unit        string
	Resident    string
	WorkType    string
	Description string
	ActorID     string
}

// SubmitWorkRequest opens a pending request.
func (e Engine) SubmitWorkRequest(ctx context.Context, opts WorkRequestSubmitOptions) (domain.WorkRequest, error) {
	if strings.TrimSpace(opts.Unit) == "" {
		return domain.WorkRequest{}, fmt.Errorf("unit is required: %w", ErrInvalid)
	}
	if strings.TrimSpace(opts.Resident) == "" {
		return domain.WorkRequest{}, fmt.Errorf("resident is required: %w", ErrInvalid)
	}
	if opts.WorkType != domain.WorkStructural && opts.WorkType != domain.WorkNonStructural {
		return domain.WorkRequest{}, fmt.Errorf("work type must be %s or %s: %w", domain.WorkStructural, domain.WorkNonStructural, ErrInvalid)
	}
	today := e.date()
	w := domain.WorkRequest{
		ID:          uuid.NewString(),
		Unit:        strings.TrimSpace(opts.Unit),
		Resident:    strings.TrimSpace(opts.Resident),
		WorkType:    opts.WorkType,
		Description: opts.Description,
		Status:      domain.WorkPending,
		Documents:   []domain.Document{},
		CreatedAt:   today,
		UpdatedAt:   today,
	}
	if w.WorkType == domain.WorkStructural {
		w.Documents = StructuralDocuments()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkRequest{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertWorkRequest(ctx, tx, w); err != nil {
		return domain.WorkRequest{}, fmt.Errorf("insert work request: %w", err)
	}
	if err := e.writer().Append(ctx, tx, events.WorkSubmitted, "work_request", w.ID, actorOrDefault(opts.ActorID), events.EventPayload{
		"unit":      w.Unit,
		"work_type": w.WorkType,
		"documents": len(w.Documents),
	}); err != nil {
		return domain.WorkRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkRequest{}, err
	}
	e.Metrics.Transition("work_request", w.Status)
	return w, nil
}

func (e Engine) GetWorkRequest(ctx context.Context, id string) (domain.WorkRequest, error) {
	return e.Repo.GetWorkRequest(ctx, id)
}

func (e Engine) ListWorkRequests(ctx context.Context, statusFilter string) ([]domain.WorkRequest, error) {
	switch statusFilter {
	case "", domain.WorkPending, domain.WorkInAnalysis, domain.WorkApproved, domain.WorkRejected:
	default:
		return nil, fmt.Errorf("unknown work request status %q: %w", statusFilter, ErrInvalid)
	}
	return e.Repo.ListWorkRequests(ctx, statusFilter)
}

// setWorkStatus applies a validated transition and records evtType.
func (e Engine) setWorkStatus(ctx context.Context, id, to, evtType, actorID string, payload events.EventPayload) (domain.WorkRequest, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkRequest{}, err
	}
	defer tx.Rollback()
	w, err := e.Repo.GetWorkRequestTx(ctx, tx, id)
	if err != nil {
		return domain.WorkRequest{}, err
	}
	if err := ensureWorkTransition(w.Status, to); err != nil {
		return domain.WorkRequest{}, err
	}
	if payload == nil {
		payload = events.EventPayload{}
	}
	payload["from"] = w.Status
	payload["to"] = to
	w.Status = to
	w.UpdatedAt = e.date()
	if err := e.Repo.UpdateWorkRequestStatus(ctx, tx, id, w.Status, w.UpdatedAt); err != nil {
		return domain.WorkRequest{}, err
	}
	if err := e.writer().Append(ctx, tx, evtType, "work_request", id, actorOrDefault(actorID), payload); err != nil {
		return domain.WorkRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkRequest{}, err
	}
	e.Metrics.Transition("work_request", to)
	return w, nil
}

// StartAnalysis moves a pending request into analysis.
func (e Engine) StartAnalysis(ctx context.Context, id, actorID string) (domain.WorkRequest, error) {
	return e.setWorkStatus(ctx, id, domain.WorkInAnalysis, events.WorkAnalysisStarted, actorID, nil)
}

// UploadDocument marks a named document as uploaded. Approved or rejected
// requests are locked.
func (e Engine) UploadDocument(ctx context.Context, id, name, actorID string) (domain.WorkRequest, error) {
	if strings.TrimSpace(name) == "" {
		return domain.WorkRequest{}, fmt.Errorf("document name is required: %w", ErrInvalid)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkRequest{}, err
	}
	defer tx.Rollback()
	w, err := e.Repo.GetWorkRequestTx(ctx, tx, id)
	if err != nil {
		return domain.WorkRequest{}, err
	}
	if workTerminal(w.Status) {
		return domain.WorkRequest{}, fmt.Errorf("work request %s is %s: %w", id, w.Status, ErrLocked)
	}
	idx := -1
	for i, d := range w.Documents {
		if d.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.WorkRequest{}, fmt.Errorf("document %q on work request %s: %w", name, id, repo.ErrNotFound)
	}
	if w.Documents[idx].Uploaded {
		return w, nil
	}
	if err := e.Repo.MarkDocumentUploaded(ctx, tx, id, name); err != nil {
		return domain.WorkRequest{}, err
	}
	w.Documents[idx].Uploaded = true
	w.UpdatedAt = e.date()
	if err := e.Repo.UpdateWorkRequestStatus(ctx, tx, id, w.Status, w.UpdatedAt); err != nil {
		return domain.WorkRequest{}, err
	}
	if err := e.writer().Append(ctx, tx, events.WorkDocumentUploaded, "work_request", id, actorOrDefault(actorID), events.EventPayload{"document": name}); err != nil {
		return domain.WorkRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkRequest{}, err
	}
	return w, nil
}

// ApproveWorkRequest approves a request under analysis once every required
// document is uploaded. A declined gate leaves the request unchanged and is
// reported through the returned gate.Result, not as an error.
func (e Engine) ApproveWorkRequest(ctx context.Context, id, actorID string) (domain.WorkRequest, gate.Result, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	defer tx.Rollback()
	w, err := e.Repo.GetWorkRequestTx(ctx, tx, id)
	if err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	if err := ensureWorkTransition(w.Status, domain.WorkApproved); err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	res := DocumentGate(w)
	actor := actorOrDefault(actorID)
	if !res.Allowed {
		if err := e.writer().Append(ctx, tx, events.WorkApprovalDeclined, "work_request", id, actor, events.EventPayload{
			"missing": res.Missing,
		}); err != nil {
			return domain.WorkRequest{}, gate.Result{}, err
		}
		if err := tx.Commit(); err != nil {
			return domain.WorkRequest{}, gate.Result{}, err
		}
		e.Metrics.GateDeclined("work_request")
		e.log().Info("work request approval declined", "id", id, "missing", res.Missing)
		return w, res, nil
	}
	w.Status = domain.WorkApproved
	w.UpdatedAt = e.date()
	if err := e.Repo.UpdateWorkRequestStatus(ctx, tx, id, w.Status, w.UpdatedAt); err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	if err := e.writer().Append(ctx, tx, events.WorkApproved, "work_request", id, actor, events.EventPayload{
		"from": domain.WorkInAnalysis,
		"to":   domain.WorkApproved,
	}); err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.WorkRequest{}, gate.Result{}, err
	}
	e.Metrics.Transition("work_request", domain.WorkApproved)
	return w, res, nil
}

// RejectWorkRequest closes a request under analysis. Rejection is not gated.
func (e Engine) RejectWorkRequest(ctx context.Context, id, reason, actorID string) (domain.WorkRequest, error) {
	var payload events.EventPayload
	if reason != "" {
		payload = events.EventPayload{"reason": reason}
	}
	return e.setWorkStatus(ctx, id, domain.WorkRejected, events.WorkRejected, actorID, payload)
}
