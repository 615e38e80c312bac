package domain

// Work request statuses.
const (
	WorkPending    = "pending"
	WorkInAnalysis = "in_analysis"
	WorkApproved   = "approved"
	WorkRejected   = "rejected"
)

// Checklist statuses. A checklist is completed iff CompletedAt is set.
const (
	ChecklistInProgress = "in_progress"
	ChecklistCompleted  = "completed"
)

// Service order statuses.
const (
	OrderOpen       = "open"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
)

// Security round statuses.
const (
	RoundInProgress = "in_progress"
	RoundCompleted  = "completed"
	RoundMissed     = "missed"
)

const (
	WorkStructural    = "structural"
	WorkNonStructural = "non_structural"
)

type ComplianceItem struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	IssueDate   string `json:"issue_date" yaml:"issue_date" format:"date"`
	ExpiryDate  string `json:"expiry_date" yaml:"expiry_date" format:"date"`
	Type        string `json:"type" yaml:"type"`
	DocumentURL string `json:"document_url,omitempty" yaml:"document_url"`
}

// Classification is a derived status. It is computed on every read and
// never stored.
type Classification struct {
	Tier  int    `json:"tier" minimum:"1" maximum:"3"`
	Level string `json:"level" enum:"valid,warning,critical"`
	State string `json:"state"`
	Label string `json:"label"`
	Days  int    `json:"days_until_expiry"`
}

type ComplianceView struct {
	ComplianceItem
	Status        Classification `json:"status"`
	IssueDisplay  string         `json:"issue_display"`
	ExpiryDisplay string         `json:"expiry_display"`
}

type ComplianceSummary struct {
	Valid    int `json:"valid"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

type Supplier struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Service     string   `json:"service" yaml:"service"`
	Contact     string   `json:"contact" yaml:"contact"`
	Rating      float64  `json:"rating" yaml:"rating"`
	Evaluations int      `json:"evaluations" yaml:"evaluations"`
	Documents   []string `json:"documents" yaml:"documents"`
}

type Contract struct {
	ID        string  `json:"id" yaml:"id"`
	Supplier  string  `json:"supplier" yaml:"supplier"`
	Service   string  `json:"service" yaml:"service"`
	StartDate string  `json:"start_date" yaml:"start_date" format:"date"`
	EndDate   string  `json:"end_date" yaml:"end_date" format:"date"`
	Value     float64 `json:"value" yaml:"value"`
	AlertDays []int   `json:"alert_days" yaml:"alert_days"`
}

type ContractView struct {
	Contract
	Status       Classification `json:"status"`
	ValueDisplay string         `json:"value_display"`
	StartDisplay string         `json:"start_display"`
	EndDisplay   string         `json:"end_display"`
}

type ServiceOrder struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Supplier    string   `json:"supplier" yaml:"supplier"`
	Priority    string   `json:"priority" yaml:"priority" enum:"low,medium,high"`
	Status      string   `json:"status" yaml:"status" enum:"open,in_progress,completed"`
	Attachments []string `json:"attachments" yaml:"attachments"`
	CreatedAt   string   `json:"created_at" yaml:"created_at"`
	UpdatedAt   string   `json:"updated_at" yaml:"updated_at"`
}

type Document struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required" yaml:"required"`
	Uploaded bool   `json:"uploaded" yaml:"uploaded"`
}

type WorkRequest struct {
	ID          string     `json:"id" yaml:"id"`
	Unit        string     `json:"unit" yaml:"unit"`
	Resident    string     `json:"resident" yaml:"resident"`
	WorkType    string     `json:"work_type" yaml:"work_type" enum:"structural,non_structural"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Status      string     `json:"status" yaml:"status" enum:"pending,in_analysis,approved,rejected"`
	Documents   []Document `json:"documents" yaml:"documents"`
	CreatedAt   string     `json:"created_at" yaml:"created_at"`
	UpdatedAt   string     `json:"updated_at" yaml:"updated_at"`
}

type ChecklistTask struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

type Checklist struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Shift       string          `json:"shift" yaml:"shift" enum:"morning,afternoon,night"`
	Tasks       []ChecklistTask `json:"tasks" yaml:"tasks"`
	CompletedAt *string         `json:"completed_at,omitempty" yaml:"completed_at" format:"date-time"`
	CompletedBy *string         `json:"completed_by,omitempty" yaml:"completed_by"`
}

// ChecklistStatus derives the checklist state from CompletedAt.
func ChecklistStatus(c Checklist) string {
	if c.CompletedAt != nil {
		return ChecklistCompleted
	}
	return ChecklistInProgress
}

type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type ChecklistView struct {
	Checklist
	Status   string   `json:"status" enum:"in_progress,completed"`
	Progress Progress `json:"progress"`
}

type ControlPoint struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Location  string  `json:"location" yaml:"location"`
	QRCode    string  `json:"qr_code" yaml:"qr_code"`
	LastCheck *string `json:"last_check,omitempty" yaml:"last_check"`
}

type RoundPoint struct {
	PointID   string `json:"point_id" yaml:"point_id"`
	CheckedAt string `json:"checked_at" yaml:"checked_at"`
}

type SecurityRound struct {
	ID     string       `json:"id" yaml:"id"`
	Date   string       `json:"date" yaml:"date" format:"date"`
	Shift  string       `json:"shift" yaml:"shift"`
	Porter string       `json:"porter" yaml:"porter"`
	Points []RoundPoint `json:"points" yaml:"points"`
	Status string       `json:"status" yaml:"status" enum:"completed,in_progress,missed"`
}

type RoundView struct {
	SecurityRound
	Checked int `json:"checked"`
	Total   int `json:"total"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
