package timesheet

import "time"

type WorkOrderType string

const (
	WorkOrderValidation     WorkOrderType = "validation"
	WorkOrderInternalDesign WorkOrderType = "internal_design"
)

func (t WorkOrderType) Valid() bool {
	return t == WorkOrderValidation || t == WorkOrderInternalDesign
}

// Label is the human form used in messages and reports.
func (t WorkOrderType) Label() string {
	switch t {
	case WorkOrderValidation:
		return "Validation"
	case WorkOrderInternalDesign:
		return "Internal design"
	}
	return string(t)
}

type ProjectStatus string

const (
	StatusDraft        ProjectStatus = "draft"
	StatusInProgress   ProjectStatus = "in_progress"
	StatusDesignReview ProjectStatus = "design_review"
	StatusCompleted    ProjectStatus = "completed"
)

var ProjectStatuses = []ProjectStatus{StatusDraft, StatusInProgress, StatusDesignReview, StatusCompleted}

func (s ProjectStatus) Valid() bool {
	for _, v := range ProjectStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type EventType string

const (
	EventCreated      EventType = "created"
	EventStatusChange EventType = "status_change"
	EventComment      EventType = "comment"
)

type LeaveType string

const (
	LeaveFullDay LeaveType = "full-day"
	LeaveHalfDay LeaveType = "half-day"
	LeaveHours   LeaveType = "hours"
)

func (l LeaveType) Valid() bool {
	return l == LeaveFullDay || l == LeaveHalfDay || l == LeaveHours
}

type Project struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	ReferenceNumber string        `json:"referenceNumber"`
	FormCodeType    string        `json:"formCodeType"`
	Status          ProjectStatus `json:"status"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ProjectPatch carries the fields of a partial project update. Nil fields
// are left untouched.
type ProjectPatch struct {
	Title           *string        `json:"title,omitempty"`
	ReferenceNumber *string        `json:"referenceNumber,omitempty"`
	FormCodeType    *string        `json:"formCodeType,omitempty"`
	Status          *ProjectStatus `json:"status,omitempty"`
	Notes           *string        `json:"notes,omitempty"`
}

func (p ProjectPatch) Apply(dst *Project) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.ReferenceNumber != nil {
		dst.ReferenceNumber = *p.ReferenceNumber
	}
	if p.FormCodeType != nil {
		dst.FormCodeType = *p.FormCodeType
	}
	if p.Status != nil {
		dst.Status = *p.Status
	}
	if p.Notes != nil {
		dst.Notes = *p.Notes
	}
}

type WorkOrder struct {
	ID          int64         `json:"id"`
	ProjectID   int64         `json:"projectId"`
	Type        WorkOrderType `json:"type"`
	Identifier  string        `json:"identifier"`
	Description string        `json:"description,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// WorkOrderIdentifier builds the unique identifier of a project's work order.
func WorkOrderIdentifier(t WorkOrderType, reference string) string {
	if t == WorkOrderValidation {
		return "VALID-" + reference
	}
	return "DESIGN-" + reference
}

type Entry struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	WorkOrderID   int64     `json:"workOrderId"`
	Date          time.Time `json:"date"`
	Hours         float64   `json:"hours"`
	StartTime     string    `json:"startTime,omitempty"`
	EndTime       string    `json:"endTime,omitempty"`
	Description   string    `json:"description,omitempty"`
	BreakTaken    bool      `json:"breakTaken"`
	BreakDuration int       `json:"breakDuration,omitempty"`
	IsLeave       bool      `json:"isLeave"`
	LeaveType     LeaveType `json:"leaveType,omitempty"`
	LeaveHours    float64   `json:"leaveHours,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EntryPatch carries the fields of a partial entry update.
type EntryPatch struct {
	WorkOrderID   *int64     `json:"workOrderId,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Hours         *float64   `json:"hours,omitempty"`
	StartTime     *string    `json:"startTime,omitempty"`
	EndTime       *string    `json:"endTime,omitempty"`
	Description   *string    `json:"description,omitempty"`
	BreakTaken    *bool      `json:"breakTaken,omitempty"`
	BreakDuration *int       `json:"breakDuration,omitempty"`
	IsLeave       *bool      `json:"isLeave,omitempty"`
	LeaveType     *LeaveType `json:"leaveType,omitempty"`
	LeaveHours    *float64   `json:"leaveHours,omitempty"`
}

func (p EntryPatch) Apply(dst *Entry) {
	if p.WorkOrderID != nil {
		dst.WorkOrderID = *p.WorkOrderID
	}
	if p.Date != nil {
		dst.Date = *p.Date
	}
	if p.Hours != nil {
		dst.Hours = *p.Hours
	}
	if p.StartTime != nil {
		dst.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		dst.EndTime = *p.EndTime
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.BreakTaken != nil {
		dst.BreakTaken = *p.BreakTaken
	}
	if p.BreakDuration != nil {
		dst.BreakDuration = *p.BreakDuration
	}
	if p.IsLeave != nil {
		dst.IsLeave = *p.IsLeave
	}
	if p.LeaveType != nil {
		dst.LeaveType = *p.LeaveType
	}
	if p.LeaveHours != nil {
		dst.LeaveHours = *p.LeaveHours
	}
}

type ProjectEvent struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"projectId"`
	Type      EventType `json:"type"`
	Content   string    `json:"content"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	AuditCreate  = "create"
	AuditUpdate  = "update"
	AuditDelete  = "delete"
	AuditRestore = "restore"

	EntityProject      = "project"
	EntityWorkOrder    = "work_order"
	EntityTimesheet    = "timesheet"
	EntityProjectEvent = "project_event"
)

type AuditLog struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   int64     `json:"entityId"`
	Action     string    `json:"action"`
	ActionBy   int64     `json:"actionBy"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuditFilter narrows an audit log listing. Zero fields match everything.
type AuditFilter struct {
	EntityType string
	Action     string
	Start      time.Time
	End        time.Time
}

func (f AuditFilter) Match(l AuditLog) bool {
	if f.EntityType != "" && l.EntityType != f.EntityType {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	if !f.Start.IsZero() && l.CreatedAt.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && l.CreatedAt.After(f.End) {
		return false
	}
	return true
}
