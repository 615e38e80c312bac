package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"condopapers/internal/domain"
	"condopapers/internal/engine"
)

type output[T any] struct {
	Body T
}

func reply[T any](v T) *output[T] { return &output[T]{Body: v} }

// ActorHeader identifies who performed a change. There is no
// authentication; the value is recorded on events as given.
type ActorHeader struct {
	ActorID string `header:"X-Actor-Id" doc:"Actor recorded on events" default:"local-user"`
}

type idPath struct {
	ID string `path:"id"`
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*output[map[string]string], error) {
		return reply(map[string]string{"status": "ok"}), nil
	})
}

func registerCompliance(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-compliance",
		Method:      http.MethodGet,
		Path:        "/compliance",
		Summary:     "List inspections and certificates, most urgent first",
		Tags:        []string{"compliance"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.ComplianceView], error) {
		items, err := e.ListCompliance(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "compliance-summary",
		Method:      http.MethodGet,
		Path:        "/compliance/summary",
		Summary:     "Count compliance items per tier",
		Tags:        []string{"compliance"},
	}, func(ctx context.Context, _ *struct{}) (*output[domain.ComplianceSummary], error) {
		sum, err := e.ComplianceSummary(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(sum), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-compliance",
		Method:      http.MethodGet,
		Path:        "/compliance/{id}",
		Summary:     "Get a compliance item",
		Tags:        []string{"compliance"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, in *idPath) (*output[domain.ComplianceView], error) {
		item, err := e.GetCompliance(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(item), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-compliance",
		Method:        http.MethodPost,
		Path:          "/compliance",
		Summary:       "Register a certificate or inspection report",
		Tags:          []string{"compliance"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		Body CreateComplianceRequest
	}) (*output[domain.ComplianceView], error) {
		item, err := e.CreateCompliance(ctx, engine.ComplianceCreateOptions{
			ID:          in.Body.ID,
			Name:        in.Body.Name,
			Description: in.Body.Description,
			Type:        in.Body.Type,
			IssueDate:   in.Body.IssueDate,
			ExpiryDate:  in.Body.ExpiryDate,
			DocumentURL: in.Body.DocumentURL,
			ActorID:     in.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(item), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "attach-compliance-document",
		Method:      http.MethodPut,
		Path:        "/compliance/{id}/document",
		Summary:     "Attach the document of a compliance item",
		Tags:        []string{"compliance"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID   string `path:"id"`
		Body AttachDocumentRequest
	}) (*output[domain.ComplianceView], error) {
		item, err := e.AttachComplianceDocument(ctx, in.ID, in.Body.URL, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(item), nil
	})
}

func registerContracts(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-contracts",
		Method:      http.MethodGet,
		Path:        "/contracts",
		Summary:     "List maintenance contracts",
		Tags:        []string{"maintenance"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.ContractView], error) {
		items, err := e.ListContracts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-contract",
		Method:      http.MethodGet,
		Path:        "/contracts/{id}",
		Summary:     "Get a maintenance contract",
		Tags:        []string{"maintenance"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, in *idPath) (*output[domain.ContractView], error) {
		c, err := e.GetContract(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-suppliers",
		Method:      http.MethodGet,
		Path:        "/suppliers",
		Summary:     "List suppliers",
		Tags:        []string{"maintenance"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.Supplier], error) {
		items, err := e.ListSuppliers(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-service-orders",
		Method:      http.MethodGet,
		Path:        "/service-orders",
		Summary:     "List service orders",
		Tags:        []string{"maintenance"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *struct {
		Status string `query:"status" enum:"open,in_progress,completed"`
	}) (*output[[]domain.ServiceOrder], error) {
		items, err := e.ListServiceOrders(ctx, in.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-service-order-status",
		Method:      http.MethodPost,
		Path:        "/service-orders/{id}/status",
		Summary:     "Move a service order forward",
		Tags:        []string{"maintenance"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID   string `path:"id"`
		Body SetOrderStatusRequest
	}) (*output[domain.ServiceOrder], error) {
		o, err := e.SetServiceOrderStatus(ctx, in.ID, in.Body.Status, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(o), nil
	})
}

func registerWorkRequests(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-work-requests",
		Method:      http.MethodGet,
		Path:        "/work-requests",
		Summary:     "List renovation requests",
		Tags:        []string{"works"},
	}, func(ctx context.Context, in *struct {
		Status string `query:"status" enum:"pending,in_analysis,approved,rejected"`
	}) (*output[[]domain.WorkRequest], error) {
		items, err := e.ListWorkRequests(ctx, in.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-request",
		Method:      http.MethodGet,
		Path:        "/work-requests/{id}",
		Summary:     "Get a renovation request",
		Tags:        []string{"works"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, in *idPath) (*output[domain.WorkRequest], error) {
		w, err := e.GetWorkRequest(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(w), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "submit-work-request",
		Method:        http.MethodPost,
		Path:          "/work-requests",
		Summary:       "Submit a renovation request",
		Tags:          []string{"works"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		Body SubmitWorkRequest
	}) (*output[domain.WorkRequest], error) {
		w, err := e.SubmitWorkRequest(ctx, engine.WorkRequestSubmitOptions{
			Unit:        in.Body.Unit,
			Resident:    in.Body.Resident,
			WorkType:    in.Body.WorkType,
			Description: in.Body.Description,
			ActorID:     in.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(w), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "start-work-analysis",
		Method:      http.MethodPost,
		Path:        "/work-requests/{id}/analysis",
		Summary:     "Start analysing a pending request",
		Tags:        []string{"works"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID string `path:"id"`
	}) (*output[domain.WorkRequest], error) {
		w, err := e.StartAnalysis(ctx, in.ID, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(w), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "upload-work-document",
		Method:      http.MethodPost,
		Path:        "/work-requests/{id}/documents",
		Summary:     "Mark a document as uploaded",
		Tags:        []string{"works"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID   string `path:"id"`
		Body UploadDocumentRequest
	}) (*output[domain.WorkRequest], error) {
		w, err := e.UploadDocument(ctx, in.ID, in.Body.Name, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(w), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-work-request",
		Method:      http.MethodPost,
		Path:        "/work-requests/{id}/approve",
		Summary:     "Approve a request once every required document is uploaded",
		Tags:        []string{"works"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID string `path:"id"`
	}) (*output[WorkApprovalResponse], error) {
		w, res, err := e.ApproveWorkRequest(ctx, in.ID, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		if !res.Allowed {
			return nil, gateDeclined(res)
		}
		return reply(WorkApprovalResponse{WorkRequest: w, Gate: res}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-work-request",
		Method:      http.MethodPost,
		Path:        "/work-requests/{id}/reject",
		Summary:     "Reject a request under analysis",
		Tags:        []string{"works"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID   string `path:"id"`
		Body RejectWorkRequest `required:"false"`
	}) (*output[domain.WorkRequest], error) {
		w, err := e.RejectWorkRequest(ctx, in.ID, in.Body.Reason, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(w), nil
	})
}

func registerChecklists(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-checklists",
		Method:      http.MethodGet,
		Path:        "/checklists",
		Summary:     "List porter checklists",
		Tags:        []string{"routines"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.ChecklistView], error) {
		items, err := e.ListChecklists(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-checklist",
		Method:      http.MethodGet,
		Path:        "/checklists/{id}",
		Summary:     "Get a checklist with progress",
		Tags:        []string{"routines"},
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, in *idPath) (*output[domain.ChecklistView], error) {
		c, err := e.GetChecklist(ctx, in.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-checklist",
		Method:        http.MethodPost,
		Path:          "/checklists",
		Summary:       "Create a checklist",
		Tags:          []string{"routines"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		Body CreateChecklistRequest
	}) (*output[domain.ChecklistView], error) {
		tasks := make([]engine.TaskInput, 0, len(in.Body.Tasks))
		for _, t := range in.Body.Tasks {
			tasks = append(tasks, engine.TaskInput{Title: t.Title, Description: t.Description, Required: t.Required})
		}
		c, err := e.CreateChecklist(ctx, engine.ChecklistCreateOptions{
			Name:    in.Body.Name,
			Shift:   in.Body.Shift,
			Tasks:   tasks,
			ActorID: in.ActorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-checklist-task",
		Method:      http.MethodPost,
		Path:        "/checklists/{id}/tasks/{task_id}/toggle",
		Summary:     "Flip a task between done and not done",
		Tags:        []string{"routines"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID     string `path:"id"`
		TaskID string `path:"task_id"`
	}) (*output[domain.ChecklistView], error) {
		c, err := e.ToggleTask(ctx, in.ID, in.TaskID, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(c), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-checklist",
		Method:      http.MethodPost,
		Path:        "/checklists/{id}/complete",
		Summary:     "Finalize a checklist once every required task is done",
		Tags:        []string{"routines"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		ID string `path:"id"`
	}) (*output[ChecklistCompletionResponse], error) {
		c, res, err := e.CompleteChecklist(ctx, in.ID, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		if !res.Allowed {
			return nil, gateDeclined(res)
		}
		return reply(ChecklistCompletionResponse{Checklist: c, Gate: res}), nil
	})
}

func registerRounds(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-control-points",
		Method:      http.MethodGet,
		Path:        "/control-points",
		Summary:     "List QR control points",
		Tags:        []string{"routines"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.ControlPoint], error) {
		items, err := e.ListControlPoints(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "scan-control-point",
		Method:      http.MethodPost,
		Path:        "/control-points/scan",
		Summary:     "Record a QR scan in every round in progress",
		Tags:        []string{"routines"},
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, in *struct {
		ActorHeader
		Body ScanRequest
	}) (*output[engine.ScanResult], error) {
		res, err := e.ScanControlPoint(ctx, in.Body.Ref, in.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(res), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-security-rounds",
		Method:      http.MethodGet,
		Path:        "/security-rounds",
		Summary:     "List security rounds with progress",
		Tags:        []string{"routines"},
	}, func(ctx context.Context, _ *struct{}) (*output[[]domain.RoundView], error) {
		items, err := e.ListSecurityRounds(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(items), nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Tags:        []string{"events"},
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, in *struct {
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind" enum:"store,compliance_item,service_order,work_request,checklist,control_point"`
		EntityID   string `query:"entity_id"`
		Limit      int    `query:"limit" default:"50"`
		Cursor     string `query:"cursor"`
	}) (*output[paginatedEvents], error) {
		limit := normalizeLimit(in.Limit)
		var cursorID int64
		if in.Cursor != "" {
			parsed, err := strconv.ParseInt(in.Cursor, 10, 64)
			if err != nil {
				return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid cursor", map[string]any{"cursor": in.Cursor})
			}
			cursorID = parsed
		}
		items, err := e.ListEvents(ctx, engine.EventFilters{
			Type:       in.Type,
			EntityKind: in.EntityKind,
			EntityID:   in.EntityID,
			Before:     cursorID,
			Limit:      limit + 1,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedEvents{Items: []EventResponse{}}
		if len(items) > limit {
			resp.NextCursor = fmt.Sprintf("%d", items[limit-1].ID)
			items = items[:limit]
		}
		for _, evt := range items {
			resp.Items = append(resp.Items, eventResponse(evt))
		}
		return reply(resp), nil
	})
}
