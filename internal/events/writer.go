package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types.
const (
	ComplianceCreated     = "compliance.created"
	ComplianceDocAttached = "compliance.document_attached"
	OrderStatusChanged    = "service_order.status_changed"
	WorkSubmitted         = "work_request.submitted"
	WorkAnalysisStarted   = "work_request.analysis_started"
	WorkDocumentUploaded  = "work_request.document_uploaded"
	WorkApproved          = "work_request.approved"
	WorkApprovalDeclined  = "work_request.approval_declined"
	WorkRejected          = "work_request.rejected"
	ChecklistCreated      = "checklist.created"
	ChecklistTaskToggled  = "checklist.task_toggled"
	ChecklistCompleted    = "checklist.completed"
	ChecklistDeclined     = "checklist.completion_declined"
	ControlPointScanned   = "control_point.scanned"
	StoreSeeded           = "store.seeded"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Append writes one event inside tx so it commits or rolls back with the
// mutation it describes.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	ts := now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
