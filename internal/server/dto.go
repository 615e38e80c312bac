package server

import (
	"encoding/json"

	"condopapers/internal/domain"
	"condopapers/internal/gate"
)

// Request payloads

type CreateComplianceRequest struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" minLength:"1"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type" minLength:"1"`
	IssueDate   string `json:"issue_date" format:"date"`
	ExpiryDate  string `json:"expiry_date" format:"date"`
	DocumentURL string `json:"document_url,omitempty"`
}

type AttachDocumentRequest struct {
	URL string `json:"url" minLength:"1"`
}

type SetOrderStatusRequest struct {
	Status string `json:"status" enum:"open,in_progress,completed"`
}

type SubmitWorkRequest struct {
	Unit        string `json:"unit" minLength:"1"`
	Resident    string `json:"resident" minLength:"1"`
	WorkType    string `json:"work_type" enum:"structural,non_structural"`
	Description string `json:"description,omitempty"`
}

type UploadDocumentRequest struct {
	Name string `json:"name" minLength:"1"`
}

type RejectWorkRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ChecklistTaskRequest struct {
	Title       string `json:"title" minLength:"1"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

type CreateChecklistRequest struct {
	Name  string                 `json:"name" minLength:"1"`
	Shift string                 `json:"shift" enum:"morning,afternoon,night"`
	Tasks []ChecklistTaskRequest `json:"tasks,omitempty"`
}

type ScanRequest struct {
	// Ref is a control point id or its QR code.
	Ref string `json:"ref" minLength:"1" example:"QR003"`
}

// Responses

type WorkApprovalResponse struct {
	WorkRequest domain.WorkRequest `json:"work_request"`
	Gate        gate.Result        `json:"gate"`
}

type ChecklistCompletionResponse struct {
	Checklist domain.ChecklistView `json:"checklist"`
	Gate      gate.Result          `json:"gate"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func eventResponse(evt domain.Event) EventResponse {
	payload := map[string]any{}
	if evt.Payload != "" {
		_ = json.Unmarshal([]byte(evt.Payload), &payload)
	}
	return EventResponse{
		ID:         evt.ID,
		TS:         evt.TS,
		Type:       evt.Type,
		EntityKind: evt.EntityKind,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		Payload:    payload,
	}
}
