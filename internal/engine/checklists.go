package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"condopapers/internal/domain"
	"condopapers/internal/events"
	"condopapers/internal/gate"
	"condopapers/internal/repo"
)

// Progress counts completed tasks. An empty list is 0%.
func Progress(tasks []domain.ChecklistTask) domain.Progress {
	p := domain.Progress{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			p.Completed++
		}
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

// TaskGate evaluates whether every required task is done.
func TaskGate(c domain.Checklist) gate.Result {
	return gate.CheckFunc(c.Tasks, func(t domain.ChecklistTask) gate.Item {
		return gate.Item{Name: t.Title, Required: t.Required, Satisfied: t.Completed}
	})
}

func checklistView(c domain.Checklist) domain.ChecklistView {
	return domain.ChecklistView{Checklist: c, Status: domain.ChecklistStatus(c), Progress: Progress(c.Tasks)}
}

type TaskInput struct {
	Title       string
	Description string
	Required    bool
}

type ChecklistCreateOptions struct {
	Name    string
	Shift   string
	Tasks   []TaskInput
	ActorID string
}

func (e Engine) CreateChecklist(ctx context.Context, opts ChecklistCreateOptions) (domain.ChecklistView, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.ChecklistView{}, fmt.Errorf("name is required: %w", ErrInvalid)
	}
	switch opts.Shift {
	case "morning", "afternoon", "night":
	default:
		return domain.ChecklistView{}, fmt.Errorf("shift must be morning, afternoon or night: %w", ErrInvalid)
	}
	c := domain.Checklist{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(opts.Name),
		Shift: opts.Shift,
		Tasks: make([]domain.ChecklistTask, 0, len(opts.Tasks)),
	}
	for i, t := range opts.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			return domain.ChecklistView{}, fmt.Errorf("task %d title is required: %w", i+1, ErrInvalid)
		}
		c.Tasks = append(c.Tasks, domain.ChecklistTask{
			ID:          strconv.Itoa(i + 1),
			Title:       strings.TrimSpace(t.Title),
			Description: t.Description,
			Required:    t.Required,
		})
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistView{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertChecklist(ctx, tx, c); err != nil {
		return domain.ChecklistView{}, fmt.Errorf("insert checklist: %w", err)
	}
	if err := e.writer().Append(ctx, tx, events.ChecklistCreated, "checklist", c.ID, actorOrDefault(opts.ActorID), events.EventPayload{
		"shift": c.Shift,
		"tasks": len(c.Tasks),
	}); err != nil {
		return domain.ChecklistView{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistView{}, err
	}
	return checklistView(c), nil
}

func (e Engine) GetChecklist(ctx context.Context, id string) (domain.ChecklistView, error) {
	c, err := e.Repo.GetChecklist(ctx, id)
	if err != nil {
		return domain.ChecklistView{}, err
	}
	return checklistView(c), nil
}

func (e Engine) ListChecklists(ctx context.Context) ([]domain.ChecklistView, error) {
	cs, err := e.Repo.ListChecklists(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]domain.ChecklistView, 0, len(cs))
	for _, c := range cs {
		res = append(res, checklistView(c))
	}
	return res, nil
}

// ToggleTask flips the completed flag of one task. Completed checklists are
// locked.
func (e Engine) ToggleTask(ctx context.Context, checklistID, taskID, actorID string) (domain.ChecklistView, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistView{}, err
	}
	defer tx.Rollback()
	c, err := e.Repo.GetChecklistTx(ctx, tx, checklistID)
	if err != nil {
		return domain.ChecklistView{}, err
	}
	if domain.ChecklistStatus(c) == domain.ChecklistCompleted {
		return domain.ChecklistView{}, fmt.Errorf("checklist %s is completed: %w", checklistID, ErrLocked)
	}
	var completed bool
	found := false
	for i := range c.Tasks {
		if c.Tasks[i].ID == taskID {
			c.Tasks[i].Completed = !c.Tasks[i].Completed
			completed = c.Tasks[i].Completed
			found = true
			break
		}
	}
	if !found {
		return domain.ChecklistView{}, fmt.Errorf("task %s on checklist %s: %w", taskID, checklistID, repo.ErrNotFound)
	}
	if err := e.Repo.SetTaskCompleted(ctx, tx, checklistID, taskID, completed); err != nil {
		return domain.ChecklistView{}, err
	}
	if err := e.writer().Append(ctx, tx, events.ChecklistTaskToggled, "checklist", checklistID, actorOrDefault(actorID), events.EventPayload{
		"task_id":   taskID,
		"completed": completed,
	}); err != nil {
		return domain.ChecklistView{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistView{}, err
	}
	return checklistView(c), nil
}

// CompleteChecklist finalizes a checklist once every required task is done.
// A declined gate keeps it in progress and is not an error.
func (e Engine) CompleteChecklist(ctx context.Context, id, actorID string) (domain.ChecklistView, gate.Result, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistView{}, gate.Result{}, err
	}
	defer tx.Rollback()
	c, err := e.Repo.GetChecklistTx(ctx, tx, id)
	if err != nil {
		return domain.ChecklistView{}, gate.Result{}, err
	}
	if domain.ChecklistStatus(c) == domain.ChecklistCompleted {
		return domain.ChecklistView{}, gate.Result{}, &TransitionError{Entity: "checklist", From: domain.ChecklistCompleted, To: domain.ChecklistCompleted}
	}
	actor := actorOrDefault(actorID)
	res := TaskGate(c)
	if !res.Allowed {
		if err := e.writer().Append(ctx, tx, events.ChecklistDeclined, "checklist", id, actor, events.EventPayload{
			"missing": res.Missing,
		}); err != nil {
			return domain.ChecklistView{}, gate.Result{}, err
		}
		if err := tx.Commit(); err != nil {
			return domain.ChecklistView{}, gate.Result{}, err
		}
		e.Metrics.GateDeclined("checklist")
		e.log().Info("checklist completion declined", "id", id, "missing", res.Missing)
		return checklistView(c), res, nil
	}
	at := e.timestamp()
	if err := e.Repo.MarkChecklistCompleted(ctx, tx, id, at, actor); err != nil {
		return domain.ChecklistView{}, gate.Result{}, err
	}
	if err := e.writer().Append(ctx, tx, events.ChecklistCompleted, "checklist", id, actor, events.EventPayload{
		"completed_at": at,
	}); err != nil {
		return domain.ChecklistView{}, gate.Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistView{}, gate.Result{}, err
	}
	c.CompletedAt = &at
	c.CompletedBy = &actor
	e.Metrics.Transition("checklist", domain.ChecklistCompleted)
	return checklistView(c), res, nil
}
