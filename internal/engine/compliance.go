package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"condopapers/internal/domain"
	"condopapers/internal/events"
	"condopapers/internal/repo"
	"condopapers/internal/status"
)

func (e Engine) complianceView(c domain.ComplianceItem) (domain.ComplianceView, error) {
	expiry, err := parseDate("expiry_date", c.ExpiryDate)
	if err != nil {
		return domain.ComplianceView{}, fmt.Errorf("compliance item %s: %w", c.ID, err)
	}
	return domain.ComplianceView{
		ComplianceItem: c,
		Status:         classification(status.Classify(e.Compliance, expiry, e.now())),
		IssueDisplay:   e.Display.Date(c.IssueDate),
		ExpiryDisplay:  e.Display.Date(c.ExpiryDate),
	}, nil
}

func viewTier(v domain.ComplianceView) status.Tier { return status.Tier(v.Status.Tier) }

// ListCompliance returns every item classified against the current clock,
// most urgent first. Items of the same tier keep their stored order.
func (e Engine) ListCompliance(ctx context.Context) ([]domain.ComplianceView, error) {
	items, err := e.Repo.ListComplianceItems(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.ComplianceView, 0, len(items))
	for _, it := range items {
		v, err := e.complianceView(it)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return status.Prioritize(views, viewTier), nil
}

// ComplianceSummary counts items per tier.
func (e Engine) ComplianceSummary(ctx context.Context) (domain.ComplianceSummary, error) {
	views, err := e.ListCompliance(ctx)
	if err != nil {
		return domain.ComplianceSummary{}, err
	}
	c := status.Count(views, viewTier)
	return domain.ComplianceSummary{Valid: c.Valid, Warning: c.Warning, Critical: c.Critical, Total: c.Total()}, nil
}

func (e Engine) GetCompliance(ctx context.Context, id string) (domain.ComplianceView, error) {
	it, err := e.Repo.GetComplianceItem(ctx, id)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	return e.complianceView(it)
}

type ComplianceCreateOptions struct {
	ID          string
	Name        string
	Description string
	Type        string
	IssueDate   string
	ExpiryDate  string
	DocumentURL string
	ActorID     string
}

func (e Engine) CreateCompliance(ctx context.Context, opts ComplianceCreateOptions) (domain.ComplianceView, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.ComplianceView{}, fmt.Errorf("name is required: %w", ErrInvalid)
	}
	if strings.TrimSpace(opts.Type) == "" {
		return domain.ComplianceView{}, fmt.Errorf("type is required: %w", ErrInvalid)
	}
	issue, err := parseDate("issue_date", opts.IssueDate)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	expiry, err := parseDate("expiry_date", opts.ExpiryDate)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	if expiry.Before(issue) {
		return domain.ComplianceView{}, fmt.Errorf("expiry_date %s before issue_date %s: %w", opts.ExpiryDate, opts.IssueDate, ErrInvalid)
	}
	item := domain.ComplianceItem{
		ID:          opts.ID,
		Name:        strings.TrimSpace(opts.Name),
		Description: opts.Description,
		IssueDate:   opts.IssueDate,
		ExpiryDate:  opts.ExpiryDate,
		Type:        opts.Type,
		DocumentURL: opts.DocumentURL,
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	defer tx.Rollback()
	if _, err := e.Repo.GetComplianceItemTx(ctx, tx, item.ID); err == nil {
		return domain.ComplianceView{}, fmt.Errorf("compliance item %s: %w", item.ID, ErrExists)
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.ComplianceView{}, err
	}
	if err := e.Repo.InsertComplianceItem(ctx, tx, item); err != nil {
		return domain.ComplianceView{}, fmt.Errorf("insert compliance item: %w", err)
	}
	if err := e.writer().Append(ctx, tx, events.ComplianceCreated, "compliance_item", item.ID, actorOrDefault(opts.ActorID), events.EventPayload{
		"type":        item.Type,
		"expiry_date": item.ExpiryDate,
	}); err != nil {
		return domain.ComplianceView{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ComplianceView{}, err
	}
	return e.complianceView(item)
}

// AttachComplianceDocument sets the document link of an item.
func (e Engine) AttachComplianceDocument(ctx context.Context, id, url, actorID string) (domain.ComplianceView, error) {
	if strings.TrimSpace(url) == "" {
		return domain.ComplianceView{}, fmt.Errorf("document url is required: %w", ErrInvalid)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.SetComplianceDocument(ctx, tx, id, url); err != nil {
		return domain.ComplianceView{}, err
	}
	if err := e.writer().Append(ctx, tx, events.ComplianceDocAttached, "compliance_item", id, actorOrDefault(actorID), events.EventPayload{"document_url": url}); err != nil {
		return domain.ComplianceView{}, err
	}
	it, err := e.Repo.GetComplianceItemTx(ctx, tx, id)
	if err != nil {
		return domain.ComplianceView{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ComplianceView{}, err
	}
	return e.complianceView(it)
}
