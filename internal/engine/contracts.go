package engine

import (
	"context"
	"fmt"

	"condopapers/internal/domain"
	"condopapers/internal/events"
	"condopapers/internal/status"
)

func (e Engine) contractView(c domain.Contract) (domain.ContractView, error) {
	end, err := parseDate("end_date", c.EndDate)
	if err != nil {
		return domain.ContractView{}, fmt.Errorf("contract %s: %w", c.ID, err)
	}
	return domain.ContractView{
		Contract:     c,
		Status:       classification(status.Classify(e.Contracts, end, e.now())),
		ValueDisplay: e.Display.Money(c.Value),
		StartDisplay: e.Display.Date(c.StartDate),
		EndDisplay:   e.Display.Date(c.EndDate),
	}, nil
}

// ListContracts returns contracts in stored order, classified with the
// contract table.
func (e Engine) ListContracts(ctx context.Context) ([]domain.ContractView, error) {
	cs, err := e.Repo.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.ContractView, 0, len(cs))
	for _, c := range cs {
		v, err := e.contractView(c)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (e Engine) GetContract(ctx context.Context, id string) (domain.ContractView, error) {
	c, err := e.Repo.GetContract(ctx, id)
	if err != nil {
		return domain.ContractView{}, err
	}
	return e.contractView(c)
}

func (e Engine) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return e.Repo.ListSuppliers(ctx)
}

func (e Engine) ListServiceOrders(ctx context.Context, statusFilter string) ([]domain.ServiceOrder, error) {
	if statusFilter != "" && !validOrderStatus(statusFilter) {
		return nil, fmt.Errorf("unknown service order status %q: %w", statusFilter, ErrInvalid)
	}
	return e.Repo.ListServiceOrders(ctx, statusFilter)
}

func validOrderStatus(s string) bool {
	return s == domain.OrderOpen || s == domain.OrderInProgress || s == domain.OrderCompleted
}

func ensureOrderTransition(from, to string) error {
	switch from {
	case domain.OrderOpen:
		if to == domain.OrderInProgress || to == domain.OrderCompleted {
			return nil
		}
	case domain.OrderInProgress:
		if to == domain.OrderCompleted {
			return nil
		}
	}
	return &TransitionError{Entity: "service order", From: from, To: to}
}

// SetServiceOrderStatus moves an order forward. Completed orders are final.
func (e Engine) SetServiceOrderStatus(ctx context.Context, id, to, actorID string) (domain.ServiceOrder, error) {
	if !validOrderStatus(to) {
		return domain.ServiceOrder{}, fmt.Errorf("unknown service order status %q: %w", to, ErrInvalid)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	defer tx.Rollback()
	o, err := e.Repo.GetServiceOrderTx(ctx, tx, id)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := ensureOrderTransition(o.Status, to); err != nil {
		return domain.ServiceOrder{}, err
	}
	from := o.Status
	o.Status = to
	o.UpdatedAt = e.date()
	if err := e.Repo.UpdateServiceOrderStatus(ctx, tx, id, o.Status, o.UpdatedAt); err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := e.writer().Append(ctx, tx, events.OrderStatusChanged, "service_order", id, actorOrDefault(actorID), events.EventPayload{
		"from": from,
		"to":   to,
	}); err != nil {
		return domain.ServiceOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ServiceOrder{}, err
	}
	e.Metrics.Transition("service_order", to)
	return o, nil
}
