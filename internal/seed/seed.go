// Package seed loads the mock data the store starts with.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"condopapers/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

type Data struct {
	ComplianceItems []domain.ComplianceItem `yaml:"compliance_items"`
	Suppliers       []domain.Supplier       `yaml:"suppliers"`
	Contracts       []domain.Contract       `yaml:"contracts"`
	ServiceOrders   []domain.ServiceOrder   `yaml:"service_orders"`
	WorkRequests    []domain.WorkRequest    `yaml:"work_requests"`
	Checklists      []domain.Checklist      `yaml:"checklists"`
	ControlPoints   []domain.ControlPoint   `yaml:"control_points"`
	SecurityRounds  []domain.SecurityRound  `yaml:"security_rounds"`
}

// Default returns the embedded data set.
func Default() (*Data, error) {
	return Parse(defaultSeed)
}

// Raw returns the embedded YAML.
func Raw() []byte {
	return append([]byte(nil), defaultSeed...)
}

func FromFile(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes and validates seed YAML.
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("invalid seed yaml: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks ids, dates and enumerated fields.
func (d *Data) Validate() error {
	ids := map[string]map[string]bool{}
	unique := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("seed %s: id is required", kind)
		}
		if ids[kind] == nil {
			ids[kind] = map[string]bool{}
		}
		if ids[kind][id] {
			return fmt.Errorf("seed %s: duplicate id %s", kind, id)
		}
		ids[kind][id] = true
		return nil
	}
	for _, c := range d.ComplianceItems {
		if err := unique("compliance_items", c.ID); err != nil {
			return err
		}
		if err := checkDate("compliance_items", c.ID, c.IssueDate); err != nil {
			return err
		}
		if err := checkDate("compliance_items", c.ID, c.ExpiryDate); err != nil {
			return err
		}
	}
	for _, s := range d.Suppliers {
		if err := unique("suppliers", s.ID); err != nil {
			return err
		}
	}
	for _, c := range d.Contracts {
		if err := unique("contracts", c.ID); err != nil {
			return err
		}
		if err := checkDate("contracts", c.ID, c.StartDate); err != nil {
			return err
		}
		if err := checkDate("contracts", c.ID, c.EndDate); err != nil {
			return err
		}
	}
	for _, o := range d.ServiceOrders {
		if err := unique("service_orders", o.ID); err != nil {
			return err
		}
		if !oneOf(o.Status, domain.OrderOpen, domain.OrderInProgress, domain.OrderCompleted) {
			return fmt.Errorf("seed service_orders %s: invalid status %q", o.ID, o.Status)
		}
		if !oneOf(o.Priority, "low", "medium", "high") {
			return fmt.Errorf("seed service_orders %s: invalid priority %q", o.ID, o.Priority)
		}
	}
	for _, w := range d.WorkRequests {
		if err := unique("work_requests", w.ID); err != nil {
			return err
		}
		if !oneOf(w.Status, domain.WorkPending, domain.WorkInAnalysis, domain.WorkApproved, domain.WorkRejected) {
			return fmt.Errorf("seed work_requests %s: invalid status %q", w.ID, w.Status)
		}
		if !oneOf(w.WorkType, domain.WorkStructural, domain.WorkNonStructural) {
			return fmt.Errorf("seed work_requests %s: invalid work_type %q", w.ID, w.WorkType)
		}
		names := map[string]bool{}
		for _, doc := range w.Documents {
			if names[doc.Name] {
				return fmt.Errorf("seed work_requests %s: duplicate document %s", w.ID, doc.Name)
			}
			names[doc.Name] = true
		}
	}
	for _, c := range d.Checklists {
		if err := unique("checklists", c.ID); err != nil {
			return err
		}
		if !oneOf(c.Shift, "morning", "afternoon", "night") {
			return fmt.Errorf("seed checklists %s: invalid shift %q", c.ID, c.Shift)
		}
		tasks := map[string]bool{}
		for _, t := range c.Tasks {
			if t.ID == "" || tasks[t.ID] {
				return fmt.Errorf("seed checklists %s: missing or duplicate task id %q", c.ID, t.ID)
			}
			tasks[t.ID] = true
		}
	}
	for _, p := range d.ControlPoints {
		if err := unique("control_points", p.ID); err != nil {
			return err
		}
		if p.QRCode == "" {
			return fmt.Errorf("seed control_points %s: qr_code is required", p.ID)
		}
	}
	for _, r := range d.SecurityRounds {
		if err := unique("security_rounds", r.ID); err != nil {
			return err
		}
		if !oneOf(r.Status, domain.RoundInProgress, domain.RoundCompleted, domain.RoundMissed) {
			return fmt.Errorf("seed security_rounds %s: invalid status %q", r.ID, r.Status)
		}
		for _, p := range r.Points {
			if !ids["control_points"][p.PointID] {
				return fmt.Errorf("seed security_rounds %s: unknown control point %s", r.ID, p.PointID)
			}
		}
	}
	return nil
}

func checkDate(kind, id, v string) error {
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("seed %s %s: invalid date %q", kind, id, v)
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
