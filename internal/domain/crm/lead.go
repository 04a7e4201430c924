// Package crm contains the sales aggregates: leads, clients, campaigns and
// products, plus the documents kept in the document store.
package crm

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// LeadStatus is a pipeline stage
type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusWon         LeadStatus = "won"
	LeadStatusLost        LeadStatus = "lost"
	LeadStatusConverted   LeadStatus = "converted"
)

// LeadStatuses lists every stage in pipeline order
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusProposal,
	LeadStatusNegotiation,
	LeadStatusWon,
	LeadStatusLost,
	LeadStatusConverted,
}

// IsValid checks if the status is a known stage
func (s LeadStatus) IsValid() bool {
	for _, st := range LeadStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// LeadPriority represents the urgency of a lead
type LeadPriority string

const (
	LeadPriorityLow    LeadPriority = "low"
	LeadPriorityMedium LeadPriority = "medium"
	LeadPriorityHigh   LeadPriority = "high"
	LeadPriorityUrgent LeadPriority = "urgent"
)

// IsValid checks if the priority is known
func (p LeadPriority) IsValid() bool {
	switch p {
	case LeadPriorityLow, LeadPriorityMedium, LeadPriorityHigh, LeadPriorityUrgent:
		return true
	}
	return false
}

// LeadSource describes where a lead came from
type LeadSource string

const (
	LeadSourceManual   LeadSource = "manual"
	LeadSourceImport   LeadSource = "import"
	LeadSourceWeb      LeadSource = "web"
	LeadSourceReferral LeadSource = "referral"
	LeadSourceCampaign LeadSource = "campaign"
	LeadSourceAPI      LeadSource = "api"
)

// IsValid checks if the source is known
func (s LeadSource) IsValid() bool {
	switch s {
	case LeadSourceManual, LeadSourceImport, LeadSourceWeb, LeadSourceReferral, LeadSourceCampaign, LeadSourceAPI:
		return true
	}
	return false
}

// Lead is an unconverted sales prospect
type Lead struct {
	shared.ScopedEntity
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Company     string
	Status      LeadStatus
	Priority    LeadPriority
	Source      LeadSource
	Score       int
	CampaignID  *uuid.UUID
	AssignedTo  *uuid.UUID
	Notes       string
	ConvertedAt *time.Time
	ClientID    *uuid.UUID
}

// NewLeadInput carries the fields accepted on creation
type NewLeadInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Priority  LeadPriority
	Source    LeadSource
	Score     int
	Notes     string
}

// NewLead creates a lead in the "new" stage, stamped with scope
func NewLead(scope shared.Scope, in NewLeadInput) (*Lead, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	lead := &Lead{
		ScopedEntity: shared.NewScopedEntity(scope),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        identity.NormalizeEmail(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Company:      strings.TrimSpace(in.Company),
		Status:       LeadStatusNew,
		Priority:     in.Priority,
		Source:       in.Source,
		Notes:        in.Notes,
	}
	if lead.Priority == "" {
		lead.Priority = LeadPriorityMedium
	}
	if lead.Source == "" {
		lead.Source = LeadSourceManual
	}
	if err := lead.SetScore(in.Score); err != nil {
		return nil, err
	}
	if err := lead.validate(); err != nil {
		return nil, err
	}
	return lead, nil
}

func (l *Lead) validate() error {
	if l.FirstName == "" && l.LastName == "" {
		return shared.NewDomainError("INVALID_LEAD_NAME", "Lead name is required")
	}
	if len(l.FirstName) > 100 || len(l.LastName) > 100 {
		return shared.NewDomainError("INVALID_LEAD_NAME", "Lead name cannot exceed 100 characters")
	}
	if l.Email == "" && l.Phone == "" {
		return shared.NewDomainError("INVALID_LEAD_CONTACT", "Lead needs an email or a phone")
	}
	if l.Email != "" {
		if err := identity.ValidateEmail(l.Email); err != nil {
			return err
		}
	}
	if len(l.Phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	if !l.Priority.IsValid() {
		return shared.NewDomainError("INVALID_LEAD_PRIORITY", "Unknown lead priority")
	}
	if !l.Source.IsValid() {
		return shared.NewDomainError("INVALID_LEAD_SOURCE", "Unknown lead source")
	}
	return nil
}

// FullName joins first and last name
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// IsConverted reports whether the lead has been converted to a client
func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}

// UpdateStatus moves the lead to another stage. Converted leads are frozen,
// and conversion itself goes through MarkConverted.
func (l *Lead) UpdateStatus(status LeadStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_LEAD_STATUS", "Unknown lead status")
	}
	if l.IsConverted() {
		return shared.ErrInvalidState.WithDetails("lead is already converted")
	}
	if status == LeadStatusConverted {
		return shared.NewDomainError("INVALID_LEAD_STATUS", "Use the convert operation to convert a lead")
	}
	l.Status = status
	l.Touch()
	return nil
}

// SetScore sets the 0..100 score
func (l *Lead) SetScore(score int) error {
	if score < 0 || score > 100 {
		return shared.NewDomainError("INVALID_LEAD_SCORE", "Score must be between 0 and 100")
	}
	l.Score = score
	l.Touch()
	return nil
}

// Assign hands the lead to a user; nil unassigns
func (l *Lead) Assign(userID *uuid.UUID) {
	l.AssignedTo = userID
	l.Touch()
}

// AssignCampaign links the lead to a campaign; nil unlinks
func (l *Lead) AssignCampaign(campaignID *uuid.UUID) {
	l.CampaignID = campaignID
	l.Touch()
}

// LeadPatch lists optional field changes; nil fields are left untouched
type LeadPatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Company    *string
	Status     *LeadStatus
	Priority   *LeadPriority
	Source     *LeadSource
	Score      *int
	Notes      *string
	AssignedTo *uuid.UUID
}

// IsEmpty reports whether the patch changes nothing
func (p LeadPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Phone == nil &&
		p.Company == nil && p.Status == nil && p.Priority == nil && p.Source == nil &&
		p.Score == nil && p.Notes == nil && p.AssignedTo == nil
}

// Apply applies the patch atomically: on error the lead is unchanged
func (l *Lead) Apply(p LeadPatch) error {
	next := *l
	if p.FirstName != nil {
		next.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		next.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Email != nil {
		next.Email = identity.NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		next.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Company != nil {
		next.Company = strings.TrimSpace(*p.Company)
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Source != nil {
		next.Source = *p.Source
	}
	if p.Notes != nil {
		next.Notes = *p.Notes
	}
	if p.AssignedTo != nil {
		uid := *p.AssignedTo
		next.AssignedTo = &uid
	}
	if p.Score != nil {
		if err := next.SetScore(*p.Score); err != nil {
			return err
		}
	}
	if p.Status != nil && *p.Status != next.Status {
		if err := next.UpdateStatus(*p.Status); err != nil {
			return err
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.Touch()
	*l = next
	return nil
}

// MarkConverted marks the lead converted, optionally linking the new client
func (l *Lead) MarkConverted(clientID *uuid.UUID) error {
	if l.IsConverted() {
		return shared.ErrInvalidState.WithDetails("lead is already converted")
	}
	now := time.Now()
	l.Status = LeadStatusConverted
	l.ConvertedAt = &now
	l.ClientID = clientID
	l.UpdatedAt = now
	return nil
}
