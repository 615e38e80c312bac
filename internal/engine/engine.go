package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"condopapers/internal/config"
	"condopapers/internal/display"
	"condopapers/internal/domain"
	"condopapers/internal/events"
	"condopapers/internal/metrics"
	"condopapers/internal/repo"
	"condopapers/internal/seed"
	"condopapers/internal/status"
)

var (
	// ErrInvalid marks rejected input.
	ErrInvalid = errors.New("invalid input")
	// ErrLocked marks an entity that no longer accepts edits.
	ErrLocked = errors.New("locked")
	// ErrExists marks a create whose id is already taken.
	ErrExists = errors.New("already exists")
)

// TransitionError reports a state change the workflow does not allow.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid %s status transition %s -> %s", e.Entity, e.From, e.To)
}

type Engine struct {
	DB         *sql.DB
	Repo       repo.Repo
	Events     events.Writer
	Config     *config.Config
	Compliance status.Policy
	Contracts  status.Policy
	Display    *display.Formatter
	Metrics    *metrics.Recorder
	Logger     *slog.Logger
	Now        func() time.Time
}

// New builds an engine over a migrated database. A nil cfg uses defaults.
func New(db *sql.DB, cfg *config.Config) (Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	compliance, contracts, err := cfg.Policies()
	if err != nil {
		return Engine{}, fmt.Errorf("classification: %w", err)
	}
	f, err := display.New(display.Options{
		Language:       cfg.Display.Language,
		DateLayout:     cfg.Display.DateLayout,
		DateTimeLayout: cfg.Display.DateTimeLayout,
		Currency:       cfg.Display.Currency,
	})
	if err != nil {
		return Engine{}, fmt.Errorf("display: %w", err)
	}
	return Engine{
		DB:         db,
		Repo:       repo.Repo{DB: db},
		Config:     cfg,
		Compliance: compliance,
		Contracts:  contracts,
		Display:    f,
		Now:        time.Now,
	}, nil
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// writer stamps events with the engine clock unless Events has its own.
func (e Engine) writer() events.Writer {
	w := e.Events
	if w.Now == nil {
		w.Now = e.now
	}
	return w
}

func (e Engine) log() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) date() string {
	return e.now().UTC().Format(display.DateLayout)
}

func actorOrDefault(actorID string) string {
	if actorID == "" {
		return "local-user"
	}
	return actorID
}

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(display.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not a YYYY-MM-DD date: %w", field, v, ErrInvalid)
	}
	return t, nil
}

func classification(r status.Result) domain.Classification {
	return domain.Classification{
		Tier:  int(r.Tier),
		Level: r.Tier.String(),
		State: r.State,
		Label: r.Label,
		Days:  r.Days,
	}
}

// Seed replaces the store contents with data in one transaction.
func (e Engine) Seed(ctx context.Context, data *seed.Data, actorID string) error {
	if data == nil {
		return fmt.Errorf("seed data: %w", ErrInvalid)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.Reset(ctx, tx); err != nil {
		return err
	}
	for _, c := range data.ComplianceItems {
		if err := e.Repo.InsertComplianceItem(ctx, tx, c); err != nil {
			return fmt.Errorf("seed compliance item %s: %w", c.ID, err)
		}
	}
	for _, s := range data.Suppliers {
		if err := e.Repo.InsertSupplier(ctx, tx, s); err != nil {
			return fmt.Errorf("seed supplier %s: %w", s.ID, err)
		}
	}
	for _, c := range data.Contracts {
		if err := e.Repo.InsertContract(ctx, tx, c); err != nil {
			return fmt.Errorf("seed contract %s: %w", c.ID, err)
		}
	}
	for _, o := range data.ServiceOrders {
		if err := e.Repo.InsertServiceOrder(ctx, tx, o); err != nil {
			return fmt.Errorf("seed service order %s: %w", o.ID, err)
		}
	}
	for _, w := range data.WorkRequests {
		if err := e.Repo.InsertWorkRequest(ctx, tx, w); err != nil {
			return fmt.Errorf("seed work request %s: %w", w.ID, err)
		}
	}
	for _, c := range data.Checklists {
		if err := e.Repo.InsertChecklist(ctx, tx, c); err != nil {
			return fmt.Errorf("seed checklist %s: %w", c.ID, err)
		}
	}
	for _, p := range data.ControlPoints {
		if err := e.Repo.InsertControlPoint(ctx, tx, p); err != nil {
			return fmt.Errorf("seed control point %s: %w", p.ID, err)
		}
	}
	for _, r := range data.SecurityRounds {
		if err := e.Repo.InsertSecurityRound(ctx, tx, r); err != nil {
			return fmt.Errorf("seed security round %s: %w", r.ID, err)
		}
	}
	if err := e.writer().Append(ctx, tx, events.StoreSeeded, "store", "", actorOrDefault(actorID), events.EventPayload{
		"compliance_items": len(data.ComplianceItems),
		"work_requests":    len(data.WorkRequests),
		"checklists":       len(data.Checklists),
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// EventFilters narrows ListEvents.
type EventFilters = repo.EventFilters

func (e Engine) ListEvents(ctx context.Context, f EventFilters) ([]domain.Event, error) {
	return e.Repo.LatestEvents(ctx, f)
}
