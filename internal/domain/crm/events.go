package crm

import (
	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/shared"
)

// Event types
const (
	EventTypeLeadConverted = "crm.lead.converted"
)

// LeadConvertedEvent is recorded when a lead becomes a client
type LeadConvertedEvent struct {
	shared.BaseDomainEvent
	OrganizationID uuid.UUID  `json:"organizationId"`
	LeadID         uuid.UUID  `json:"leadId"`
	ClientID       uuid.UUID  `json:"clientId"`
	LeadName       string     `json:"leadName"`
	Company        string     `json:"company,omitempty"`
	CampaignID     *uuid.UUID `json:"campaignId,omitempty"`
	ConvertedBy    uuid.UUID  `json:"convertedBy"`
}

// NewLeadConvertedEvent builds the event for lead and the client created from it
func NewLeadConvertedEvent(lead *Lead, clientID, convertedBy uuid.UUID) *LeadConvertedEvent {
	return &LeadConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeadConverted, "Lead", lead.ID, lead.TenantID),
		OrganizationID:  lead.OrganizationID,
		LeadID:          lead.ID,
		ClientID:        clientID,
		LeadName:        lead.FullName(),
		Company:         lead.Company,
		CampaignID:      lead.CampaignID,
		ConvertedBy:     convertedBy,
	}
}
